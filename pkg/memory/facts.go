package memory

import (
	"math"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// minFactLen is the shortest line kept when falling back to free text.
const minFactLen = 8

var (
	bulletMarker  = regexp.MustCompile(`^[-*•]\s+`)
	numericMarker = regexp.MustCompile(`^\d+\.?\s+`)
)

// ExtractFacts normalizes a memory context into fact candidates.
//
// Structured facts win when at least one entry resolves to text, in backend
// order. Otherwise the free-text context is split into lines with list
// markers stripped, keeping lines of at least eight characters.
func ExtractFacts(c *Context) []FactItem {
	if c == nil {
		return []FactItem{}
	}

	if items := structuredFacts(c.Facts); len(items) > 0 {
		return items
	}

	return textFacts(c.Text)
}

func structuredFacts(raw []RawFact) []FactItem {
	items := make([]FactItem, 0, len(raw))
	for _, f := range raw {
		text := firstNonEmpty(f.Fact, f.Content, f.Text)
		if text == "" {
			continue
		}

		items = append(items, FactItem{
			Text:   text,
			Rating: coerceRating(f.Rating),
			Source: coerceSource(f.Source),
		})
	}
	return items
}

func textFacts(text string) []FactItem {
	items := []FactItem{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line = bulletMarker.ReplaceAllString(line, "")
		line = numericMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)

		if len([]rune(line)) < minFactLen {
			continue
		}
		items = append(items, FactItem{Text: line})
	}
	return items
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}

// coerceRating accepts any numeric-like value. Everything else is nil.
func coerceRating(v any) *float64 {
	switch t := v.(type) {
	case nil, bool:
		return nil
	case string:
		v = strings.TrimSpace(t)
		if v == "" {
			return nil
		}
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func coerceSource(v any) *string {
	if v == nil {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
