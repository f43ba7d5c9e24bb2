package helpers

import "strings"

// HighlightSegment is a piece of text, marked when it matches the search term.
type HighlightSegment struct {
	Text  string
	Match bool
}

// HighlightSegments splits text around case-insensitive matches of term.
func HighlightSegments(text, term string) []HighlightSegment {
	if term = strings.TrimSpace(term); term == "" {
		if text == "" {
			return nil
		}
		return []HighlightSegment{{Text: text}}
	}

	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	needle := []rune(strings.ToLower(term))
	if len(lower) != len(runes) {
		return []HighlightSegment{{Text: text}}
	}

	var segments []HighlightSegment
	plain := 0
	for i := 0; i+len(needle) <= len(lower); {
		if string(lower[i:i+len(needle)]) != string(needle) {
			i++
			continue
		}
		if i > plain {
			segments = append(segments, HighlightSegment{Text: string(runes[plain:i])})
		}
		segments = append(segments, HighlightSegment{Text: string(runes[i : i+len(needle)]), Match: true})
		i += len(needle)
		plain = i
	}
	if plain < len(runes) {
		segments = append(segments, HighlightSegment{Text: string(runes[plain:])})
	}
	return segments
}

// ContainsFold reports whether text contains term, ignoring case.
func ContainsFold(text, term string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(strings.TrimSpace(term)))
}
