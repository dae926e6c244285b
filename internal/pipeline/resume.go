package pipeline

import (
	"errors"
	"io/fs"

	"fischpipe/internal/artifact"
)

// ResumePointer is the persisted batching state.
type ResumePointer struct {
	LastIndex int `json:"lastIndex"`
}

// LoadResume reads the resume pointer. A missing file yields LastIndex -1 so
// the first batch starts at index 0.
func LoadResume(path string) (ResumePointer, error) {
	var ptr ResumePointer
	if err := artifact.ReadJSON(path, &ptr); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ResumePointer{LastIndex: -1}, nil
		}
		return ResumePointer{LastIndex: -1}, err
	}
	return ptr, nil
}

// SaveResume persists the resume pointer atomically.
func SaveResume(path string, ptr ResumePointer) error {
	return artifact.WriteJSON(path, ptr)
}

// nextBatch returns the indices of the next slice of n adapters, continuing
// after last and wrapping to the start. A size of zero or one covering every
// adapter selects all of them in order.
func nextBatch(n, size, last int) []int {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	start := 0
	if last >= 0 {
		start = (last + 1) % n
	}
	out := make([]int, size)
	for i := range out {
		out[i] = (start + i) % n
	}
	return out
}
