// Package normalize canonicalizes free-text identifiers, header names and
// locale-formatted amounts so both sides of a reconciliation compare equal.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NoName replaces a company name that normalizes to nothing.
const NoName = "SIN NOMBRE"

var (
	nonCompanyChars = regexp.MustCompile(`[^A-Z0-9\s]+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	legalSuffixes   = regexp.MustCompile(`\b(S A S|SAS|S A|SA|LTDA|BIC|B I C)\b`)
	nonDigits       = regexp.MustCompile(`[^0-9]+`)
	nonWord         = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// Fold strips diacritics: "Débito" becomes "Debito".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// StandardizeCompanyName builds the grouping form of a counterparty name.
// Legal-entity suffixes are dropped so "ACME S.A.S." and "Acme" group together.
func StandardizeCompanyName(name string) string {
	s := strings.ToUpper(Fold(name))
	s = nonCompanyChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	s = legalSuffixes.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	if s == "" {
		return NoName
	}
	return s
}

// CleanNumericID keeps only the digits of a tax identifier.
func CleanNumericID(id string) string {
	return nonDigits.ReplaceAllString(id, "")
}

// Key turns a free-text document reference into a join key: every character
// other than letters, digits and underscore is removed and the rest uppercased.
func Key(s string) string {
	return strings.ToUpper(nonWord.ReplaceAllString(strings.TrimSpace(s), ""))
}

// ColumnName normalizes a spreadsheet header: "Fecha Emisión" -> "fecha_emision".
func ColumnName(header string) string {
	s := nonWord.ReplaceAllString(Fold(header), "_")
	return strings.Trim(strings.ToLower(s), "_")
}

// ContainsFold reports whether substr occurs in s ignoring case and accents.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToUpper(Fold(s)), strings.ToUpper(Fold(substr)))
}
