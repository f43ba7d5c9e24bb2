package helpers

import (
	"html/template"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/AquaViinaDev/front-admin/internal/admin/catalog"
)

// Currency is the catalog's price currency.
const Currency = "MDL"

// PriceLabel renders a price with two decimals, a space thousands separator
// and the currency code. Empty or unparsable prices render as a dash.
func PriceLabel(price string) string {
	formatted, ok := catalog.FormatOptionalNumeric(price)
	if !ok {
		return "—"
	}
	d, err := decimal.NewFromString(formatted)
	if err != nil {
		return "—"
	}
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac + " " + Currency
}

// Truncate shortens text to at most limit runes, appending an ellipsis.
func Truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

// SetRawQuery returns rawQuery with key set to value.
func SetRawQuery(rawQuery, key, value string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		values = url.Values{}
	}
	values.Set(key, value)
	return values.Encode()
}

// DelRawQuery returns rawQuery without key.
func DelRawQuery(rawQuery, key string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}
	values.Del(key)
	return values.Encode()
}

// BuildURL joins a path and an encoded query.
func BuildURL(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// NavClass returns sidebar link classes.
func NavClass(active bool) string {
	if active {
		return "nav-link nav-link--active"
	}
	return "nav-link"
}

// BadgeClass maps semantic tones to badge classes.
func BadgeClass(tone string) string {
	switch tone {
	case "success", "warning", "danger":
		return "badge badge--" + tone
	default:
		return "badge"
	}
}

// Funcs is the function map shared by every admin template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"priceLabel": PriceLabel,
		"truncate":   Truncate,
		"navClass":   NavClass,
		"badgeClass": BadgeClass,
		"buildURL":   BuildURL,
		"setQuery":   SetRawQuery,
		"langLabel":  LangLabel,
	}
}

// LangLabel is the short upper-case name of a content language.
func LangLabel(lang catalog.Lang) string {
	return strings.ToUpper(string(lang))
}
