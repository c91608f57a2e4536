package database

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FilterOperator represents SQL comparison operators.
type FilterOperator int

// FilterOperator values.
const (
	OpEqual FilterOperator = iota
	OpNotEqual
	OpIn
	OpIsNull
	OpIsNotNull
	OpBlank
	OpEqualColumn
)

// String returns the SQL representation of the operator.
func (o FilterOperator) String() string {
	switch o {
	case OpEqual, OpEqualColumn:
		return "="
	case OpNotEqual:
		return "<>"
	case OpIn:
		return "IN"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpBlank:
		return "BLANK"
	default:
		return "="
	}
}

// Filter represents a single query filter condition.
type Filter struct {
	field    string
	operator FilterOperator
	value    any
}

// NewFilter creates a new Filter.
func NewFilter(field string, operator FilterOperator, value any) Filter {
	return Filter{
		field:    field,
		operator: operator,
		value:    value,
	}
}

// Field returns the filter field name.
func (f Filter) Field() string { return f.field }

// Operator returns the filter operator.
func (f Filter) Operator() FilterOperator { return f.operator }

// Value returns the filter value.
func (f Filter) Value() any { return f.value }

// Expression renders the filter as a GORM clause expression. Fields may be
// qualified ("table.column"); both parts are quoted by the dialect.
func (f Filter) Expression() clause.Expression {
	col := Column(f.field)
	switch f.operator {
	case OpNotEqual:
		return clause.Neq{Column: col, Value: f.value}
	case OpIn:
		values, _ := f.value.([]any)
		return clause.IN{Column: col, Values: values}
	case OpIsNull:
		return clause.Eq{Column: col, Value: nil}
	case OpIsNotNull:
		return clause.Neq{Column: col, Value: nil}
	case OpBlank:
		return clause.Expr{SQL: "(? IS NULL OR ? = ?)", Vars: []any{col, col, ""}}
	case OpEqualColumn:
		other, _ := f.value.(string)
		return clause.Eq{Column: col, Value: Column(other)}
	default:
		return clause.Eq{Column: col, Value: f.value}
	}
}

// Column splits an optionally table-qualified name into a clause.Column.
func Column(field string) clause.Column {
	if i := strings.LastIndexByte(field, '.'); i > 0 {
		return clause.Column{Table: field[:i], Name: field[i+1:]}
	}
	return clause.Column{Name: field}
}

// Query is an immutable list of AND-ed filters applied to a GORM session.
type Query struct {
	filters []Filter
}

// NewQuery creates a new empty Query.
func NewQuery() Query {
	return Query{}
}

// Where adds a filter condition.
func (q Query) Where(field string, operator FilterOperator, value any) Query {
	filters := make([]Filter, len(q.filters), len(q.filters)+1)
	copy(filters, q.filters)
	q.filters = append(filters, NewFilter(field, operator, value))
	return q
}

// Equal adds an equality filter.
func (q Query) Equal(field string, value any) Query {
	return q.Where(field, OpEqual, value)
}

// NotEqual adds a not-equal filter.
func (q Query) NotEqual(field string, value any) Query {
	return q.Where(field, OpNotEqual, value)
}

// In adds an IN filter.
func (q Query) In(field string, values []any) Query {
	return q.Where(field, OpIn, values)
}

// IsNull adds an IS NULL filter.
func (q Query) IsNull(field string) Query {
	return q.Where(field, OpIsNull, nil)
}

// IsNotNull adds an IS NOT NULL filter.
func (q Query) IsNotNull(field string) Query {
	return q.Where(field, OpIsNotNull, nil)
}

// Blank matches NULL or empty-string values.
func (q Query) Blank(field string) Query {
	return q.Where(field, OpBlank, nil)
}

// EqualColumn compares two columns, e.g. in correlated subqueries.
func (q Query) EqualColumn(field, other string) Query {
	return q.Where(field, OpEqualColumn, other)
}

// Filters returns all filter conditions.
func (q Query) Filters() []Filter {
	result := make([]Filter, len(q.filters))
	copy(result, q.filters)
	return result
}

// Empty reports whether the query has no filters.
func (q Query) Empty() bool {
	return len(q.filters) == 0
}

// Apply applies the query to a GORM database session.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	result := db
	for _, filter := range q.filters {
		result = result.Where(filter.Expression())
	}
	return result
}

// Scope returns the query as a GORM scope for use with db.Scopes.
func (q Query) Scope() func(*gorm.DB) *gorm.DB {
	return q.Apply
}
