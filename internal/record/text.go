package record

// Text is a descriptive field that is either hand-authored or generated.
// Generated text may be regenerated on later runs; hand-authored text never is.
type Text struct {
	Text        string `json:"text"`
	IsGenerated bool   `json:"isGenerated"`
}

// Value encodes the text as its artifact object form.
func (t Text) Value() Value {
	return Object(map[string]Value{
		"text":        String(t.Text),
		"isGenerated": Bool(t.IsGenerated),
	})
}

// TextFrom reads a text field. A bare non-empty string counts as
// hand-authored.
func TextFrom(v Value) Opt[Text] {
	switch v.Kind() {
	case KindString:
		s, _ := v.Str()
		if s == "" {
			return None[Text]()
		}
		return Some(Text{Text: s})
	case KindObject:
		s, ok := v.Field("text").Str()
		if !ok || s == "" {
			return None[Text]()
		}
		generated, _ := v.Field("isGenerated").BoolValue()
		return Some(Text{Text: s, IsGenerated: generated})
	default:
		return None[Text]()
	}
}
