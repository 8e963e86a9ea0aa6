package domain

import (
	"bytes"
	"encoding/json"
)

// List decodes listing responses that are either a bare JSON array or a
// paginated envelope of the form {"count": n, "results": [...]}.
type List[T any] struct {
	Count   int
	Next    string
	Results []T
}

func (l *List[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = List[T]{Count: len(items), Results: items}
		return nil
	}
	var page struct {
		Count   int     `json:"count"`
		Next    *string `json:"next"`
		Results []T     `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return err
	}
	*l = List[T]{Count: page.Count, Results: page.Results}
	if page.Next != nil {
		l.Next = *page.Next
	}
	if l.Count == 0 {
		l.Count = len(page.Results)
	}
	return nil
}

// Items returns the decoded results, never nil.
func (l List[T]) Items() []T {
	if l.Results == nil {
		return []T{}
	}
	return l.Results
}
