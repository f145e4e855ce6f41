package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/docql/internal/ident"
)

// JSON accessor operators, longest first so "->>" is not read as "->".
var jsonOperators = []string{"->>", "->"}

// LowerField turns a field reference into a quoted SQL expression.
//
//	"*"                   -> *
//	"users.name"          -> "users"."name"
//	"profile->>address.city" -> "profile" ->> '$.address.city'
//
// Every identifier segment is validated; the JSON path after the operator is
// embedded as a string literal (see package doc).
func LowerField(ref string) (string, error) {
	if ref == "*" {
		return "*", nil
	}

	for _, op := range jsonOperators {
		idx := strings.Index(ref, op)
		if idx < 0 {
			continue
		}
		column, path := ref[:idx], ref[idx+len(op):]
		quoted, err := ident.QuotePath(column, ident.LabelColumn)
		if err != nil {
			return "", err
		}
		if path == "" {
			return "", fmt.Errorf("field %q: empty JSON path after %s", ref, op)
		}
		return fmt.Sprintf("%s %s %s", quoted, op, jsonPathLiteral(path)), nil
	}

	return ident.QuotePath(ref, ident.LabelColumn)
}

// jsonPathLiteral renders path as a '$.'-prefixed SQL string literal.
func jsonPathLiteral(path string) string {
	return "'$." + strings.ReplaceAll(path, "'", "''") + "'"
}
