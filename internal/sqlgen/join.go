package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/docql/internal/dsl"
	"github.com/roach88/docql/internal/ident"
)

var joinTypes = map[string]bool{
	dsl.JoinLeft:  true,
	dsl.JoinInner: true,
	dsl.JoinRight: true,
	dsl.JoinFull:  true,
}

var joinOps = map[string]bool{
	"=": true, "!=": true, "<>": true,
	"<": true, "<=": true, ">": true, ">=": true,
}

// LowerJoins renders join descriptors as space-separated JOIN clauses.
// An empty list yields "".
func LowerJoins(joins []dsl.Join) (string, error) {
	clauses := make([]string, 0, len(joins))
	for i, j := range joins {
		sql, err := lowerJoin(j)
		if err != nil {
			return "", invalid(fmt.Sprintf("join[%d]", i), err)
		}
		clauses = append(clauses, sql)
	}
	return strings.Join(clauses, " "), nil
}

func lowerJoin(j dsl.Join) (string, error) {
	if err := ident.Validate(j.Target, ident.LabelJoinTarget); err != nil {
		return "", err
	}
	if j.On == nil {
		return "", fmt.Errorf("join on %q: missing on condition", j.Target)
	}
	if j.On.Left == "" || j.On.Right == "" {
		return "", fmt.Errorf("join on %q: on requires left and right", j.Target)
	}

	joinType := strings.ToUpper(strings.TrimSpace(j.Type))
	if joinType == "" {
		joinType = dsl.JoinLeft
	}
	if !joinTypes[joinType] {
		return "", fmt.Errorf("join on %q: unsupported join type %q", j.Target, j.Type)
	}

	op := strings.TrimSpace(j.On.Op)
	if op == "" {
		op = "="
	}
	if !joinOps[op] {
		return "", fmt.Errorf("join on %q: unsupported operator %q", j.Target, j.On.Op)
	}

	left, err := LowerField(j.On.Left)
	if err != nil {
		return "", err
	}
	right, err := LowerField(j.On.Right)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s JOIN %s ON %s %s %s", joinType, ident.Quote(j.Target), left, op, right), nil
}
