package database

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func TestFilterOperator_String(t *testing.T) {
	tests := []struct {
		op   FilterOperator
		want string
	}{
		{OpEqual, "="},
		{OpNotEqual, "<>"},
		{OpIn, "IN"},
		{OpIsNull, "IS NULL"},
		{OpIsNotNull, "IS NOT NULL"},
		{OpBlank, "BLANK"},
		{OpEqualColumn, "="},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("FilterOperator.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumn(t *testing.T) {
	tests := []struct {
		field string
		want  clause.Column
	}{
		{"attachable_type", clause.Column{Name: "attachable_type"}},
		{"attachments.attachable_type", clause.Column{Table: "attachments", Name: "attachable_type"}},
		{"public.attachments.attachable_id", clause.Column{Table: "public.attachments", Name: "attachable_id"}},
	}

	for _, tt := range tests {
		if got := Column(tt.field); got != tt.want {
			t.Errorf("Column(%q) = %+v, want %+v", tt.field, got, tt.want)
		}
	}
}

func TestNewFilter(t *testing.T) {
	f := NewFilter("name", OpEqual, "test")

	if f.Field() != "name" {
		t.Errorf("Field() = %v, want name", f.Field())
	}
	if f.Operator() != OpEqual {
		t.Errorf("Operator() = %v, want OpEqual", f.Operator())
	}
	if f.Value() != "test" {
		t.Errorf("Value() = %v, want test", f.Value())
	}
}

func TestQuery_Immutable(t *testing.T) {
	base := NewQuery().Equal("a", 1)
	left := base.Equal("b", 2)
	right := base.Equal("c", 3)

	if len(base.Filters()) != 1 {
		t.Errorf("base filters = %d, want 1", len(base.Filters()))
	}
	if left.Filters()[1].Field() != "b" || right.Filters()[1].Field() != "c" {
		t.Error("derived queries share filter storage")
	}
	if !NewQuery().Empty() || base.Empty() {
		t.Error("Empty() mismatch")
	}
}

func TestQuery_AllFilterTypes(t *testing.T) {
	q := NewQuery().
		Equal("a", 1).
		NotEqual("b", 2).
		In("c", []any{1, 2, 3}).
		IsNull("d").
		IsNotNull("e").
		Blank("f").
		EqualColumn("g", "other.h")

	expectedOps := []FilterOperator{
		OpEqual, OpNotEqual, OpIn, OpIsNull, OpIsNotNull, OpBlank, OpEqualColumn,
	}

	filters := q.Filters()
	if len(filters) != len(expectedOps) {
		t.Fatalf("expected %d filters, got %d", len(expectedOps), len(filters))
	}
	for i, filter := range filters {
		if filter.Operator() != expectedOps[i] {
			t.Errorf("filter %d: Operator() = %v, want %v", i, filter.Operator(), expectedOps[i])
		}
	}
}

func TestQuery_ToSQL(t *testing.T) {
	db, _ := newFileDatabase(t)
	defer func() { _ = db.Close() }()

	q := NewQuery().
		Equal("items.kind", "book").
		In("items.owner_id", []any{1, 2}).
		Blank("items.label")

	sql := db.GORM().ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []map[string]any
		return tx.Table("items").Scopes(q.Scope()).Find(&rows)
	})

	for _, want := range []string{
		"FROM `items`",
		"`items`.`kind` = \"book\"",
		"`items`.`owner_id` IN (1,2)",
		"(`items`.`label` IS NULL OR `items`.`label` = \"\")",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("ToSQL = %s, missing %s", sql, want)
		}
	}
}

func TestQuery_Apply(t *testing.T) {
	ctx := context.Background()
	db, _ := newFileDatabase(t)
	defer func() { _ = db.Close() }()

	err := db.Session(ctx).Exec(`
		CREATE TABLE test_items (
			id INTEGER PRIMARY KEY,
			name TEXT,
			kind TEXT,
			label TEXT
		)
	`).Error
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	err = db.Session(ctx).Exec(`
		INSERT INTO test_items (name, kind, label) VALUES
		('a', 'book', 'x'),
		('b', 'book', NULL),
		('c', 'film', ''),
		('d', 'book', '')
	`).Error
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	type Item struct {
		ID   int64
		Name string
	}

	var items []Item
	result := NewQuery().
		Equal("kind", "book").
		Blank("label").
		Apply(db.Session(ctx).Table("test_items")).
		Order("name").
		Find(&items)
	if result.Error != nil {
		t.Fatalf("query: %v", result.Error)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "b" || items[1].Name != "d" {
		t.Errorf("unexpected items: %+v", items)
	}

	var names []string
	result = NewQuery().
		In("name", []any{"a", "c"}).
		Apply(db.Session(ctx).Table("test_items")).
		Pluck("name", &names)
	if result.Error != nil {
		t.Fatalf("pluck: %v", result.Error)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 names, got %d", len(names))
	}
}
