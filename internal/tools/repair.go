// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tools

// Placeholders substituted for malformed reply segments.
const (
	placeholderNoContent   = "Internal error: invalid content structure"
	placeholderInvalidType = "Invalid content type"
	placeholderEmptyText   = "Empty text"
)

// repair guarantees that every segment is a non-empty text segment. It
// returns the corrected reply and how many segments were replaced.
func repair(res Result) (Result, int) {
	if len(res.Content) == 0 {
		res.Content = []Content{{Type: ContentTypeText, Text: placeholderNoContent}}
		return res, 1
	}
	fixed := make([]Content, len(res.Content))
	n := 0
	for i, c := range res.Content {
		switch {
		case c.Type != ContentTypeText:
			fixed[i] = Content{Type: ContentTypeText, Text: placeholderInvalidType}
			n++
		case c.Text == "":
			fixed[i] = Content{Type: ContentTypeText, Text: placeholderEmptyText}
			n++
		default:
			fixed[i] = c
		}
	}
	res.Content = fixed
	return res, n
}
