package gen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RenameRule converts a Go field name into a column name.
type RenameRule string

// Supported rename_all values.
const (
	RenameNone           RenameRule = ""
	RenameSnake          RenameRule = "snake_case"
	RenameLower          RenameRule = "lowercase"
	RenameUpper          RenameRule = "UPPERCASE"
	RenameCamel          RenameRule = "camelCase"
	RenamePascal         RenameRule = "PascalCase"
	RenameScreamingSnake RenameRule = "SCREAMING_SNAKE_CASE"
	RenameKebab          RenameRule = "kebab-case"
)

var (
	lower = cases.Lower(language.Und)
	upper = cases.Upper(language.Und)
)

// ParseRenameRule validates a rename_all value. Values are case-sensitive.
func ParseRenameRule(s string) (RenameRule, error) {
	switch r := RenameRule(s); r {
	case RenameSnake, RenameLower, RenameUpper, RenameCamel, RenamePascal, RenameScreamingSnake, RenameKebab:
		return r, nil
	}
	return RenameNone, fmt.Errorf("unknown rename_all value %q", s)
}

// Apply returns the column name for a field name. The name is split into
// words at case changes and separators; acronyms stay one word, so UserID
// is user_id and HTTPServer is http_server.
func (r RenameRule) Apply(name string) string {
	switch r {
	case RenameSnake:
		return lower.String(strings.Join(words(name), "_"))
	case RenameLower:
		return lower.String(name)
	case RenameUpper:
		return upper.String(name)
	case RenameCamel:
		ws := words(name)
		if len(ws) == 0 {
			return ""
		}
		return lower.String(ws[0]) + titled(ws[1:])
	case RenamePascal:
		return titled(words(name))
	case RenameScreamingSnake:
		return upper.String(strings.Join(words(name), "_"))
	case RenameKebab:
		return lower.String(strings.Join(words(name), "-"))
	}
	return name
}

// titled joins ws with each word lower-cased and capitalized.
func titled(ws []string) string {
	var b strings.Builder
	for _, w := range ws {
		b.WriteString(inflect.Capitalize(lower.String(w)))
	}
	return b.String()
}

// words splits an identifier into words. A word ends at a separator, at a
// lower-to-upper or digit-to-upper change, and before the last capital of
// an acronym followed by a lower-case letter (HTTPServer is HTTP, Server).
// A plural acronym such as IDs is one word.
func words(s string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = nil
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := cur[len(cur)-1]
			switch {
			case unicode.IsLower(prev), unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1]) && !pluralS(rs, i+1):
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// pluralS reports whether rs[i] is a lone trailing "s" of a word.
func pluralS(rs []rune, i int) bool {
	if rs[i] != 's' {
		return false
	}
	return i+1 == len(rs) || !unicode.IsLower(rs[i+1])
}
