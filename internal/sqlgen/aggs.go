package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/docql/internal/dsl"
	"github.com/roach88/docql/internal/ident"
)

// LowerAggs renders the projection and GROUP BY list of an aggregation.
// Group-by columns lead the projection, followed by metrics in order.
// Metrics with an unknown operator are dropped.
func (c *Compiler) LowerAggs(aggs *dsl.Aggs) (projection, groupBy string, err error) {
	if aggs == nil {
		return "", "", invalid("aggs", errors.New("aggregation descriptor is required"))
	}

	groups := make([]string, 0, len(aggs.GroupBy))
	for i, ref := range aggs.GroupBy {
		field, err := LowerField(ref)
		if err != nil {
			return "", "", invalid(fmt.Sprintf("aggs.group_by[%d]", i), err)
		}
		groups = append(groups, field)
	}

	cols := append([]string(nil), groups...)
	for _, m := range aggs.Metrics {
		op := fmt.Sprintf("aggs.metrics.%s", m.Alias)
		if err := ident.Validate(m.Alias, ident.LabelMetric); err != nil {
			return "", "", invalid(op, err)
		}

		fn := strings.ToUpper(m.Op)
		if !isMetricOp(m.Op) {
			c.logger.Warn().Str("alias", m.Alias).Str("op", m.Op).Msg("unknown metric operator, dropping metric")
			continue
		}

		expr := "*"
		if m.Field != "*" {
			if expr, err = LowerField(m.Field); err != nil {
				return "", "", invalid(op, err)
			}
		}
		cols = append(cols, fmt.Sprintf("%s(%s) AS %s", fn, expr, ident.Quote(m.Alias)))
	}

	if len(cols) == 0 {
		return "", "", invalid("aggs", errors.New("nothing to select: no group_by fields and no valid metrics"))
	}
	return strings.Join(cols, ", "), strings.Join(groups, ", "), nil
}

func isMetricOp(op string) bool {
	for _, known := range dsl.MetricOps {
		if strings.EqualFold(op, known) {
			return true
		}
	}
	return false
}
