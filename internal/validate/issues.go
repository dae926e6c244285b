package validate

// Code identifies a validation finding.
type Code string

const (
	// CodeMissingRequired indicates a required field is absent or empty.
	CodeMissingRequired Code = "missing-required"
	// CodeTypeMismatch indicates a numeric field holds a non-number or non-finite value.
	CodeTypeMismatch Code = "type-mismatch"
	// CodeDuplicateID indicates two records share an id.
	CodeDuplicateID Code = "duplicate-id"
	// CodeRangeInverted indicates a range whose min exceeds its max.
	CodeRangeInverted Code = "range-inverted"
	// CodeNoSource indicates a record with no dataSource flag set.
	CodeNoSource Code = "no-source"
	// CodeNotObject indicates an artifact element that is not a JSON object.
	CodeNotObject Code = "not-object"

	// CodeZeroValue flags a magnitude field equal to zero.
	CodeZeroValue Code = "zero-value"
	// CodeNegativeValue flags a magnitude field below zero.
	CodeNegativeValue Code = "negative-value"
	// CodeImplausibleRatio flags a ratio above the configured ceiling.
	CodeImplausibleRatio Code = "implausible-ratio"
	// CodeLowCoverage flags a field filled in too few records.
	CodeLowCoverage Code = "low-coverage"
	// CodeEmptyCorpus flags an entity kind with no records.
	CodeEmptyCorpus Code = "empty-corpus"
)

// Issue kinds.
const (
	KindStructural = "StructuralError"
	KindQuality    = "QualityWarning"
)

// Issue is one finding. ID and Index are empty/-1 for corpus-level issues.
type Issue struct {
	Code    Code   `json:"code"`
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func structural(code Code, index int, id, field, message string) Issue {
	return Issue{Code: code, Kind: KindStructural, ID: id, Index: index, Field: field, Message: message}
}

func warning(code Code, index int, id, field, message string) Issue {
	return Issue{Code: code, Kind: KindQuality, ID: id, Index: index, Field: field, Message: message}
}
