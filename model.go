package multimorph

import (
	"context"
	"database/sql/driver"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func parseSchema(db *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("parse %T: %w", model, err)
	}
	return stmt.Schema, nil
}

// session returns a session with no inherited conditions or preloads that
// keeps ctx.
func session(db *gorm.DB, ctx context.Context) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true, Context: ctx})
}

func lookupField(s *schema.Schema, column string) (*schema.Field, error) {
	if f := s.LookUpField(baseName(column)); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s has no %s", ErrMissingColumn, s.Table, baseName(column))
}

func keyField(s *schema.Schema, column string) (*schema.Field, error) {
	if column != "" {
		return lookupField(s, column)
	}
	if s.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, s.Table)
	}
	return s.PrioritizedPrimaryField, nil
}

func addressable(model any) (reflect.Value, error) {
	rv := reflect.ValueOf(model)
	if model == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: got %T", ErrInvalidModel, model)
	}
	return rv, nil
}

func clearField(ctx context.Context, f *schema.Field, rv reflect.Value) {
	f.ReflectValueOf(ctx, rv).Set(reflect.Zero(f.FieldType))
}

// stringValue reads a type column whatever Go type backs it.
func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	case []byte:
		return string(s)
	case driver.Valuer:
		dv, err := s.Value()
		if err != nil || dv == nil {
			return ""
		}
		return stringValue(dv)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// keyString normalises key values so int and uint ids, or typed and untyped
// uuids, compare equal when matching eager results.
func keyString(v any) string {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return ""
	}
	v = rv.Interface()
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}
