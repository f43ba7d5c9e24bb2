package catalog

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Lang is a content language of the catalog.
type Lang string

const (
	LangRU Lang = "ru"
	LangRO Lang = "ro"
)

// Languages lists the supported content languages in display order.
var Languages = []Lang{LangRU, LangRO}

// Multilang holds one text per content language.
type Multilang struct {
	RU string `json:"ru"`
	RO string `json:"ro"`
}

// Get returns the text for lang. Unknown languages resolve to Russian.
func (m Multilang) Get(lang Lang) string {
	if lang == LangRO {
		return m.RO
	}
	return m.RU
}

// Set replaces the text for lang.
func (m *Multilang) Set(lang Lang, text string) {
	if lang == LangRO {
		m.RO = text
		return
	}
	m.RU = text
}

// IsZero reports whether both languages are empty.
func (m Multilang) IsZero() bool { return m.RU == "" && m.RO == "" }

func (m Multilang) trimmed() Multilang {
	return Multilang{RU: strings.TrimSpace(m.RU), RO: strings.TrimSpace(m.RO)}
}

// NormalizeMultilang accepts an object or a JSON string holding an object and
// returns both language texts, taking missing or null entries from fallback.
func NormalizeMultilang(v Value, fallback Multilang) Multilang {
	parsed, ok := parseMaybeObject(v)
	if !ok || parsed.Kind() != KindObject {
		return fallback
	}
	members, ok := objectMembers(parsed.Raw())
	if !ok {
		return fallback
	}
	out := fallback
	for _, lang := range Languages {
		entry, found := lookup(members, string(lang))
		if !found {
			continue
		}
		if text, ok := scalarText(entry); ok {
			out.Set(lang, text)
		}
	}
	return out
}

// NormalizeBool accepts booleans, "true"/"false" strings in any case and
// numbers (non-zero is true). Everything else yields fallback.
func NormalizeBool(v Value, fallback bool) bool {
	switch v.Kind() {
	case KindBool:
		b, _ := v.Bool()
		return b
	case KindString:
		s, _ := v.Str()
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true
		case "false":
			return false
		}
	case KindNumber:
		if d, ok := canonicalDecimal(string(v.Raw())); ok {
			return !d.IsZero()
		}
	}
	return fallback
}

// FormatNumeric returns the canonical decimal text of s, or "0" when s is
// blank or not a finite number.
func FormatNumeric(s string) string {
	if d, ok := canonicalDecimal(s); ok {
		return d.String()
	}
	return "0"
}

// FormatOptionalNumeric returns the canonical decimal text of s. ok is false
// when s is blank or not a finite number, meaning the field should be omitted.
func FormatOptionalNumeric(s string) (string, bool) {
	if d, ok := canonicalDecimal(s); ok {
		return d.String(), true
	}
	return "", false
}

// NumericString applies FormatNumeric to a raw value. Null and absent become "0".
func NumericString(v Value) string {
	text, ok := numericSource(v)
	if !ok {
		return "0"
	}
	return FormatNumeric(text)
}

// OptionalNumericString applies FormatOptionalNumeric to a raw value.
func OptionalNumericString(v Value) (string, bool) {
	text, ok := numericSource(v)
	if !ok {
		return "", false
	}
	return FormatOptionalNumeric(text)
}

func numericSource(v Value) (string, bool) {
	switch v.Kind() {
	case KindNumber:
		return string(v.Raw()), true
	case KindString:
		return v.Str()
	default:
		return "", false
	}
}

// NormalizeIntegerList accepts an array or a JSON string holding an array and
// keeps the elements that are finite integers, either numbers or numeric
// strings. Order is preserved; the result is never nil.
func NormalizeIntegerList(v Value) []int64 {
	out := []int64{}
	parsed, ok := parseMaybeObject(v)
	if !ok || parsed.Kind() != KindArray {
		return out
	}
	elems, ok := arrayElements(parsed.Raw())
	if !ok {
		return out
	}
	for _, elem := range elems {
		text, ok := numericSource(elem)
		if !ok {
			continue
		}
		d, ok := canonicalDecimal(text)
		if !ok || !d.IsInteger() {
			continue
		}
		if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
			continue
		}
		out = append(out, d.IntPart())
	}
	return out
}

// NormalizeStringList accepts an array or a JSON string holding an array and
// keeps the non-empty trimmed strings. The result is never nil.
func NormalizeStringList(v Value) []string {
	out := []string{}
	parsed, ok := parseMaybeObject(v)
	if !ok || parsed.Kind() != KindArray {
		return out
	}
	elems, ok := arrayElements(parsed.Raw())
	if !ok {
		return out
	}
	for _, elem := range elems {
		s, ok := elem.Str()
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Text renders any value as trimmed display text. Null and absent are empty.
func Text(v Value) string {
	switch v.Kind() {
	case KindAbsent, KindNull:
		return ""
	case KindObject, KindArray:
		return strings.TrimSpace(string(v.Raw()))
	}
	text, _ := scalarText(v)
	return strings.TrimSpace(text)
}

// lenientNumberText stringifies a present value for editing without coercing it.
func lenientNumberText(v Value) string {
	if v.IsNullish() {
		return ""
	}
	return Text(v)
}

// scalarText stringifies strings, numbers and booleans. ok is false for null,
// absent and composite values.
func scalarText(v Value) (string, bool) {
	switch v.Kind() {
	case KindString:
		return v.Str()
	case KindNumber:
		raw := string(v.Raw())
		if d, ok := canonicalDecimal(raw); ok {
			return d.String(), true
		}
		return raw, true
	case KindBool:
		b, _ := v.Bool()
		if b {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// canonicalDecimal parses a decimal literal, rejecting blanks, non-numeric text
// and magnitudes outside the float64 range. Values that underflow float64
// collapse to zero.
func canonicalDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	if strings.HasPrefix(s, "+") {
		rest := s[1:]
		if rest == "" || !(rest[0] == '.' || (rest[0] >= '0' && rest[0] <= '9')) {
			return decimal.Decimal{}, false
		}
		s = rest
	}
	if strings.ContainsAny(s, "_xXoObB") {
		return decimal.Decimal{}, false
	}
	// ParseFloat bounds the exponent before the decimal expands it.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return decimal.Decimal{}, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Decimal{}, false
	}
	if f == 0 {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
