package multimorph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/multimorph"
)

func TestRegistry(t *testing.T) {
	db := newDB(t)
	reg := multimorph.NewRegistry()

	reg.Register("post", &Post{})
	reg.Register("video", Video{})

	typ, err := reg.Resolve("post")
	require.NoError(t, err)
	assert.Equal(t, "Post", typ.Name())

	model, err := reg.New("video")
	require.NoError(t, err)
	assert.IsType(t, &Video{}, model)

	class, err := reg.MorphClass(db, &Post{})
	require.NoError(t, err)
	assert.Equal(t, "post", class)

	class, err = reg.MorphClass(db, Document{})
	require.NoError(t, err)
	assert.Equal(t, "documents", class, "unregistered models fall back to their table")

	_, err = reg.Resolve("documents")
	assert.ErrorIs(t, err, multimorph.ErrUnknownMorphType)
	_, err = reg.New("missing")
	assert.ErrorIs(t, err, multimorph.ErrUnknownMorphType)

	assert.Equal(t, []string{"post", "video"}, reg.Aliases())
}

func TestRegistry_Reregister(t *testing.T) {
	db := newDB(t)
	reg := multimorph.NewRegistry()

	reg.Register("post", &Post{})
	reg.Register("article", &Post{})

	_, err := reg.Resolve("post")
	assert.ErrorIs(t, err, multimorph.ErrUnknownMorphType)
	class, err := reg.MorphClass(db, &Post{})
	require.NoError(t, err)
	assert.Equal(t, "article", class)

	reg.Register("article", &Video{})
	class, err = reg.MorphClass(db, &Post{})
	require.NoError(t, err)
	assert.Equal(t, "posts", class)
	assert.Equal(t, []string{"article"}, reg.Aliases())
}

func TestRegistry_RegisterModels(t *testing.T) {
	db := newDB(t)
	reg := newRegistry(t, db)
	assert.Equal(t, []string{"documents", "posts", "videos"}, reg.Aliases())

	model, err := reg.New("posts")
	require.NoError(t, err)
	assert.IsType(t, &Post{}, model)
}

func TestRegistry_RegisterPanics(t *testing.T) {
	reg := multimorph.NewRegistry()
	assert.Panics(t, func() { reg.Register("", &Post{}) })
	assert.Panics(t, func() { reg.Register("post", nil) })
}

func TestRegistry_MorphClassDrivesForwardRelations(t *testing.T) {
	db := newDB(t)
	post := seedPost(t, db, "hello")
	reg := multimorph.NewRegistry()
	reg.Register("blog-post", post)

	rel, err := multimorph.NewMorphMany[Attachment](db, post, "attachable", "comments", multimorph.WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, "blog-post", rel.MorphClass())
}
