package protocol

import "strings"

// escapeTable maps each literal character that is significant to the
// wire format onto its two-character escape sequence. Backslash leads
// the table: it must win over the other sequences when unescaping,
// otherwise a literal `\` followed by e.g. `s` would be mistaken for
// an escaped space.
var escapeTable = []struct {
	literal string
	escaped string
}{
	{`\`, `\\`},
	{"/", `\/`},
	{" ", `\s`},
	{"|", `\p`},
	{"\a", `\a`},
	{"\b", `\b`},
	{"\f", `\f`},
	{"\n", `\n`},
	{"\r", `\r`},
	{"\t", `\t`},
	{"\v", `\v`},
}

var (
	escaper   *strings.Replacer
	unescaper *strings.Replacer
)

func init() {
	pairs := make([]string, 0, len(escapeTable)*2)
	inverse := make([]string, 0, len(escapeTable)*2)

	for _, e := range escapeTable {
		pairs = append(pairs, e.literal, e.escaped)
		inverse = append(inverse, e.escaped, e.literal)
	}

	escaper = strings.NewReplacer(pairs...)
	unescaper = strings.NewReplacer(inverse...)
}

// Escape renders a value into its wire form, substituting every
// syntactically significant character with its escape sequence.
//
// The substitution is a single left-to-right pass, so sequences
// introduced for one character are never re-escaped by another rule.
func Escape(value string) string {
	return escaper.Replace(value)
}

// Unescape is the exact inverse of Escape: Unescape(Escape(s)) == s
// for every s. Unknown backslash sequences are left untouched.
func Unescape(token string) string {
	return unescaper.Replace(token)
}
