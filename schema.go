package multimorph

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/helixml/multimorph/internal/database"
)

// columnType matches SQL type names such as bigint, varchar(36) or
// numeric(20, 0). Column types cannot be bound, so anything else is refused.
var columnType = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\([0-9, ]+\))?$`)

// IndexName returns the name of the composite index EnsureColumns creates.
func IndexName(table, name string) string {
	return fmt.Sprintf("idx_%s_%s_morph", table, name)
}

// EnsureColumns adds whichever of the {name}_type, {name}_id and
// {name}_relationship columns table is missing, plus a composite index over
// the three. It returns the columns it added.
func EnsureColumns(ctx context.Context, db *gorm.DB, table, name string, opts ...Option) ([]string, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	d := newDescriptor(name, "", opts)
	if !columnType.MatchString(d.idType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColumnType, d.idType)
	}
	cols := d.columns()
	tx := session(db, ctx)
	m := tx.Migrator()
	if !m.HasTable(table) {
		return nil, fmt.Errorf("ensure columns: table %s does not exist", table)
	}

	defs := []struct {
		column  string
		sqlType string
	}{
		{cols.Type, "varchar(255)"},
		{cols.ID, d.idType},
		{cols.Relationship, "varchar(255)"},
	}

	var added []string
	for _, def := range defs {
		if m.HasColumn(table, def.column) {
			continue
		}
		err := tx.Exec("ALTER TABLE ? ADD COLUMN ? "+def.sqlType,
			clause.Table{Name: table}, clause.Column{Name: def.column}).Error
		if err != nil {
			return added, fmt.Errorf("add column %s.%s: %w", table, def.column, err)
		}
		added = append(added, def.column)
	}

	index := IndexName(table, name)
	if !m.HasIndex(table, index) {
		err := tx.Exec("CREATE INDEX ? ON ? (?, ?, ?)",
			clause.Column{Name: index}, clause.Table{Name: table},
			clause.Column{Name: cols.Type}, clause.Column{Name: cols.ID}, clause.Column{Name: cols.Relationship}).Error
		if err != nil {
			return added, fmt.Errorf("create index %s: %w", index, err)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("table", table).
		Str("name", name).
		Strs("added", added).
		Msg("morph columns ensured")
	return added, nil
}

// MissingDiscriminants counts rows of table that point at an owner but
// carry no relationship label. Such rows are invisible to every labelled
// relationship; they typically come from Associate calls without a label.
func MissingDiscriminants(ctx context.Context, db *gorm.DB, table, name string, opts ...Option) (int64, error) {
	if name == "" {
		return 0, ErrNameRequired
	}
	cols := newDescriptor(name, "", opts).columns()
	query := database.NewQuery().
		IsNotNull(cols.Type).
		NotEqual(cols.Type, "").
		Blank(cols.Relationship)

	var n int64
	if err := query.Apply(session(db, ctx).Table(table)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count missing discriminants in %s: %w", table, err)
	}
	return n, nil
}

// Discriminant is the number of rows sharing one type and label.
type Discriminant struct {
	MorphType    string
	Relationship string
	Total        int64
}

// Discriminants reports how the rows of table are distributed over morph
// types and relationship labels. Unlabelled rows have an empty Relationship.
func Discriminants(ctx context.Context, db *gorm.DB, table, name string, opts ...Option) ([]Discriminant, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	cols := newDescriptor(name, "", opts).columns()

	tx := session(db, ctx)
	morphType := tx.Statement.Quote(cols.Type)
	label := fmt.Sprintf("COALESCE(%s, '')", tx.Statement.Quote(cols.Relationship))

	var rows []Discriminant
	err := tx.Table(table).
		Select(morphType+" AS morph_type, "+label+" AS relationship, COUNT(*) AS total").
		Where(clause.Neq{Column: clause.Column{Name: cols.Type}, Value: nil}).
		Group(morphType).
		Group(label).
		Order(morphType + ", " + label).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("discriminants of %s: %w", table, err)
	}
	return rows, nil
}
