package sqlgen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/docql/internal/ident"
)

// LowerSource renders the _source projection. Entries are field references,
// optionally followed by "as <alias>". Nothing selected means "*".
func LowerSource(source []string) (string, error) {
	if len(source) == 0 {
		return "*", nil
	}

	cols := make([]string, 0, len(source))
	for i, entry := range source {
		col, err := lowerSourceEntry(entry)
		if err != nil {
			return "", invalid(fmt.Sprintf("_source[%d]", i), err)
		}
		cols = append(cols, col)
	}
	return strings.Join(cols, ", "), nil
}

func lowerSourceEntry(entry string) (string, error) {
	expr, alias, hasAlias := splitAlias(entry)
	field, err := LowerField(expr)
	if err != nil {
		return "", err
	}
	if !hasAlias {
		return field, nil
	}
	if err := ident.Validate(alias, ident.LabelAlias); err != nil {
		return "", err
	}
	return field + " AS " + ident.Quote(alias), nil
}

// splitAlias splits "<expr> as <alias>" on the last whitespace-delimited,
// case-insensitive "as".
func splitAlias(entry string) (expr, alias string, ok bool) {
	entry = strings.TrimSpace(entry)
	lower := strings.ToLower(entry)
	for i := len(lower) - 3; i > 0; i-- {
		if lower[i:i+2] != "as" {
			continue
		}
		if !isSpace(lower[i-1]) || !isSpace(lower[i+2]) {
			continue
		}
		return strings.TrimSpace(entry[:i]), strings.TrimSpace(entry[i+2:]), true
	}
	return entry, "", false
}

func isSpace(b byte) bool {
	return unicode.IsSpace(rune(b))
}
