package multimorph_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/helixml/multimorph"
	"github.com/helixml/multimorph/internal/testdb"
)

type Post struct {
	ID    uint
	Title string
}

func (p *Post) Comments(db *gorm.DB) (*multimorph.MorphMany[Attachment], error) {
	return multimorph.NewMorphMany[Attachment](db, p, "attachable", "comments")
}

func (p *Post) Reviews(db *gorm.DB) (*multimorph.MorphMany[Attachment], error) {
	return multimorph.NewMorphMany[Attachment](db, p, "attachable", "reviews")
}

func (p *Post) Cover(db *gorm.DB) (*multimorph.MorphOne[Attachment], error) {
	return multimorph.NewMorphOne[Attachment](db, p, "attachable", "cover")
}

type Video struct {
	ID    uint
	Title string
}

type Attachment struct {
	ID                     uint
	Path                   string
	AttachableType         string
	AttachableID           uint
	AttachableRelationship string
}

// Document and Note exercise non-integer keys.
type Document struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
}

type Note struct {
	ID                  uint
	Body                string
	NotableType         string
	NotableID           uuid.UUID `gorm:"type:uuid"`
	NotableRelationship string
}

// Account is referenced through its Code rather than its primary key.
type Account struct {
	ID   uint
	Code string `gorm:"uniqueIndex"`
	Name string
}

type Badge struct {
	ID                 uint
	Label              string
	HolderType         string
	HolderID           string
	HolderRelationship string
}

// Keyless has no primary key.
type Keyless struct {
	Name string
}

// Plain has no morph columns.
type Plain struct {
	ID   uint
	Name string
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testdb.New(t, &Post{}, &Video{}, &Attachment{}, &Document{}, &Note{}, &Plain{}, &Account{}, &Badge{}).GORM()
}

func newRegistry(t *testing.T, db *gorm.DB) *multimorph.Registry {
	t.Helper()
	reg := multimorph.NewRegistry()
	require.NoError(t, reg.RegisterModels(db, &Post{}, &Video{}, &Document{}, &Account{}))
	return reg
}

func seedPost(t *testing.T, db *gorm.DB, title string) *Post {
	t.Helper()
	p := &Post{Title: title}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedVideo(t *testing.T, db *gorm.DB, title string) *Video {
	t.Helper()
	v := &Video{Title: title}
	require.NoError(t, db.Create(v).Error)
	return v
}

func seedAccount(t *testing.T, db *gorm.DB, code, name string) *Account {
	t.Helper()
	a := &Account{Code: code, Name: name}
	require.NoError(t, db.Create(a).Error)
	return a
}

func paths(rows []Attachment) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Path)
	}
	return out
}

func attach(t *testing.T, ctx context.Context, rel interface {
	Create(context.Context, *Attachment) error
}, path string) *Attachment {
	t.Helper()
	a := &Attachment{Path: path}
	require.NoError(t, rel.Create(ctx, a))
	return a
}

// Legacy has type and id columns but no discriminant.
type Legacy struct {
	ID        uint
	OwnerType string
	OwnerID   uint
}
