package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/docql/internal/dsl"
)

// LowerSort renders an ORDER BY clause, or "" for no sort fields.
// Any direction other than desc (case-insensitive) sorts ascending.
func LowerSort(fields []dsl.SortField) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}

	terms := make([]string, 0, len(fields))
	for i, sf := range fields {
		field, err := LowerField(sf.Field)
		if err != nil {
			return "", invalid(fmt.Sprintf("sort[%d]", i), err)
		}
		dir := "ASC"
		if strings.EqualFold(strings.TrimSpace(sf.Order), dsl.OrderDesc) {
			dir = "DESC"
		}
		terms = append(terms, field+" "+dir)
	}
	return "ORDER BY " + strings.Join(terms, ", "), nil
}
