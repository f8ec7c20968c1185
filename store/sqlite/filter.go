package sqlite

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/bookkeeppr/bookkeep"
)

// filterQuery accumulates predicates onto a base "select all" query.
// Column names and operators are structurally fixed by the callers'
// key-to-field mapping; every user-supplied value is a bound parameter,
// never concatenated into the SQL text.
type filterQuery struct {
	sql  strings.Builder
	args []any
}

func newFilterQuery(base string) *filterQuery {
	q := &filterQuery{}
	q.sql.WriteString(base)
	return q
}

// substring adds a case-insensitive LIKE predicate for non-empty input.
func (q *filterQuery) substring(column, value string) {
	if value == "" {
		return
	}
	q.sql.WriteString(" AND LOWER(" + column + ") LIKE ?")
	q.args = append(q.args, "%"+strings.ToLower(value)+"%")
}

// numericRange adds equality when Eq is present (Min/Max are then
// ignored), otherwise independent >= and <= bounds.
func (q *filterQuery) numericRange(column string, r bookkeep.Range) {
	if r.Eq != nil {
		q.sql.WriteString(" AND " + column + " = ?")
		q.args = append(q.args, r.Eq.InexactFloat64())
		return
	}
	if r.Min != nil {
		q.sql.WriteString(" AND " + column + " >= ?")
		q.args = append(q.args, r.Min.InexactFloat64())
	}
	if r.Max != nil {
		q.sql.WriteString(" AND " + column + " <= ?")
		q.args = append(q.args, r.Max.InexactFloat64())
	}
}

// decimalSet adds an IN predicate with one parameter per element.
func (q *filterQuery) decimalSet(column string, values []decimal.Decimal) {
	if len(values) == 0 {
		return
	}
	q.sql.WriteString(" AND " + column + " IN (" + placeholders(len(values)) + ")")
	for _, v := range values {
		q.args = append(q.args, v.InexactFloat64())
	}
}

// stringSet adds an IN predicate with one parameter per element.
func (q *filterQuery) stringSet(column string, values []string) {
	if len(values) == 0 {
		return
	}
	q.sql.WriteString(" AND " + column + " IN (" + placeholders(len(values)) + ")")
	for _, v := range values {
		q.args = append(q.args, v)
	}
}

// timeBound normalizes a date-range bound before comparison. An
// unparseable bound is dropped silently; the rest of the search still
// applies.
func (q *filterQuery) timeBound(column, op, value string) {
	if value == "" {
		return
	}
	normalized, ok := bookkeep.NormalizeTimestamp(value)
	if !ok {
		return
	}
	q.sql.WriteString(" AND " + column + " " + op + " ?")
	q.args = append(q.args, normalized)
}

// boolEquals adds an equality predicate against an integer-coerced
// boolean when the flag is present.
func (q *filterQuery) boolEquals(column string, value *bool) {
	if value == nil {
		return
	}
	q.sql.WriteString(" AND " + column + " = ?")
	if *value {
		q.args = append(q.args, 1)
	} else {
		q.args = append(q.args, 0)
	}
}

// build returns the parameterized query and its bound arguments.
func (q *filterQuery) build() (string, []any) {
	return q.sql.String(), q.args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
