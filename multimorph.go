// Package multimorph adds labelled polymorphic relationships to GORM.
//
// A plain polymorphic association stores the owner's type and id on the
// related row ({name}_type, {name}_id). Multi-morph relationships store a
// third column, {name}_relationship, holding a label, so several differently
// named relationships can share the same type/id columns without colliding.
//
// Basic usage:
//
//	type Post struct {
//	    ID    uint
//	    Title string
//	}
//
//	type Attachment struct {
//	    ID                     uint
//	    Path                   string
//	    AttachableType         string
//	    AttachableID           uint
//	    AttachableRelationship string
//	}
//
//	func (p *Post) Comments(db *gorm.DB) (*multimorph.MorphMany[Attachment], error) {
//	    return multimorph.NewMorphMany[Attachment](db, p, "attachable", "comments")
//	}
//
//	func (p *Post) Reviews(db *gorm.DB) (*multimorph.MorphMany[Attachment], error) {
//	    return multimorph.NewMorphMany[Attachment](db, p, "attachable", "reviews")
//	}
//
//	comments, err := post.Comments(db)
//	if err != nil {
//	    return err
//	}
//	err = comments.Create(ctx, &Attachment{Path: "a.png"})
//	rows, err := comments.Find(ctx) // only rows labelled "comments"
//
// Query building, hydration, persistence and transactions stay with GORM;
// this package only adds the discriminant predicate and attribute.
package multimorph

import (
	"errors"
	"strings"
)

var (
	// ErrNameRequired is returned when a relationship is declared without a morph name.
	ErrNameRequired = errors.New("relationship name is required")
	// ErrLabelRequired is returned when a forward relationship is declared without a label.
	ErrLabelRequired = errors.New("relationship label is required")
	// ErrUnknownMorphType is returned when a stored type value has no registered model.
	ErrUnknownMorphType = errors.New("unknown morph type")
	// ErrMissingColumn is returned when a model has no field for a morph column.
	ErrMissingColumn = errors.New("missing morph column")
	// ErrNoPrimaryKey is returned when a key is needed but the model has no primary key.
	ErrNoPrimaryKey = errors.New("model has no primary key")
	// ErrInvalidModel is returned when a model is nil or not addressable.
	ErrInvalidModel = errors.New("model must be a non-nil pointer")

	// ErrInvalidColumnType is returned by EnsureColumns for an id column
	// type that is not a plain SQL type name.
	ErrInvalidColumnType = errors.New("invalid column type")
)

// Columns names the three columns of a morph family.
type Columns struct {
	Type         string
	ID           string
	Relationship string
}

// Morphs derives the column triple for a morph name. Empty overrides fall
// back to {name}_type and {name}_id; the discriminant is always
// {name}_relationship.
func Morphs(name, typeColumn, idColumn string) Columns {
	if typeColumn == "" {
		typeColumn = name + "_type"
	}
	if idColumn == "" {
		idColumn = name + "_id"
	}
	return Columns{
		Type:         typeColumn,
		ID:           idColumn,
		Relationship: name + "_relationship",
	}
}

// Qualify prefixes every column with table.
func (c Columns) Qualify(table string) Columns {
	if table == "" {
		return c
	}
	return Columns{
		Type:         table + "." + baseName(c.Type),
		ID:           table + "." + baseName(c.ID),
		Relationship: table + "." + baseName(c.Relationship),
	}
}

// Names returns the unqualified column names in type, id, relationship order.
func (c Columns) Names() []string {
	return []string{baseName(c.Type), baseName(c.ID), baseName(c.Relationship)}
}

func baseName(column string) string {
	if i := strings.LastIndexByte(column, '.'); i >= 0 {
		return column[i+1:]
	}
	return column
}
