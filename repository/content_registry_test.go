package repository

import (
	"encoding/json"
	"testing"

	"coursehub/models"
	"coursehub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedContent(t *testing.T, repo CatalogRepository, loc models.Location) []models.Content {
	t.Helper()
	chapter, err := repo.GetChapter(loc)
	require.NoError(t, err)
	items, err := chapter.Contents()
	require.NoError(t, err)
	return items
}

func TestContentRegistry_ArrayUnionAndRemove(t *testing.T) {
	db := setupTestDB(t)
	catalog := NewCatalogRepository(db)
	registry := NewContentRegistry(db)
	loc := seedPath(t, catalog, "CS", "Year 1", "Networks", "TCP")

	video := models.Content{ID: "v1", Type: models.ContentVideo, Title: "Handshake", URL: "https://youtu.be/abc", Thumbnail: "https://img.youtube.com/vi/abc/sddefault.jpg"}
	notes := models.Content{ID: "n1", Type: models.ContentNotes, Title: "Slides", URL: "https://drive.google.com/file/d/n1/view"}

	added, err := registry.ArrayUnion(loc, video, notes)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	t.Run("union is idempotent", func(t *testing.T) {
		added, err := registry.ArrayUnion(loc, video)
		require.NoError(t, err)
		assert.Zero(t, added)
		assert.Len(t, storedContent(t, catalog, loc), 2)
	})

	t.Run("omitted fields are not stored", func(t *testing.T) {
		chapter, err := catalog.GetChapter(loc)
		require.NoError(t, err)
		var raw []map[string]any
		require.NoError(t, json.Unmarshal(chapter.Content, &raw))
		_, hasDescription := raw[1]["description"]
		assert.False(t, hasDescription)
		_, hasThumbnail := raw[1]["thumbnail"]
		assert.False(t, hasThumbnail)
	})

	t.Run("an extra explicit null does not match", func(t *testing.T) {
		withNull := map[string]any{
			"id": "n1", "type": "notes", "title": "Slides",
			"url": "https://drive.google.com/file/d/n1/view", "description": nil,
		}
		removed, err := registry.ArrayRemove(loc, withNull)
		require.NoError(t, err)
		assert.Zero(t, removed)
		assert.Len(t, storedContent(t, catalog, loc), 2)
	})

	t.Run("equal element is removed", func(t *testing.T) {
		removed, err := registry.ArrayRemove(loc, notes)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		items := storedContent(t, catalog, loc)
		require.Len(t, items, 1)
		assert.Equal(t, "v1", items[0].ID)
	})

	t.Run("missing chapter", func(t *testing.T) {
		_, err := registry.ArrayUnion(loc.WithID(models.LevelChapter, "udp"), video)
		assert.ErrorIs(t, err, ErrChapterNotFound)
	})
}

func TestContentRegistry_FindContentReturnsStoredForm(t *testing.T) {
	db := setupTestDB(t)
	catalog := NewCatalogRepository(db)
	registry := NewContentRegistry(db)
	loc := seedPath(t, catalog, "CS", "Year 1", "Networks", "TCP")

	// Written by an older client with a key the current model does not know.
	legacy := map[string]any{"id": "old", "type": "video", "title": "Legacy", "url": "https://youtu.be/old", "views": float64(12)}
	_, err := registry.ArrayUnion(loc, legacy)
	require.NoError(t, err)

	found, err := registry.FindContent("old")
	require.NoError(t, err)
	assert.Equal(t, "Legacy", found.Title)
	assert.Equal(t, loc, found.Location)
	assert.Equal(t, "TCP", found.ChapterName)

	// The typed view alone would not match the stored element.
	removed, err := registry.ArrayRemove(loc, found.Content)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = registry.ArrayRemove(loc, found.Stored)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = registry.FindContent("old")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestContentRegistry_MoveContent(t *testing.T) {
	db := setupTestDB(t)
	catalog := NewCatalogRepository(db)
	registry := NewContentRegistry(db)
	tcp := seedPath(t, catalog, "CS", "Year 1", "Networks", "TCP")
	udp := seedPath(t, catalog, "CS", "Year 1", "Networks", "UDP")

	item := models.Content{ID: "c1", Type: models.ContentVideo, Title: "Ports", URL: "https://youtu.be/p"}
	_, err := registry.ArrayUnion(tcp, item)
	require.NoError(t, err)

	t.Run("missing target rolls back", func(t *testing.T) {
		updated := item
		updated.Title = "Ports and sockets"
		err := registry.MoveContent(tcp, tcp.WithID(models.LevelChapter, "quic"), item, updated)
		assert.ErrorIs(t, err, ErrChapterNotFound)

		items := storedContent(t, catalog, tcp)
		require.Len(t, items, 1)
		assert.Equal(t, "Ports", items[0].Title)
	})

	t.Run("moves between chapters", func(t *testing.T) {
		updated := item
		updated.Title = "Ports and sockets"
		require.NoError(t, registry.MoveContent(tcp, udp, item, updated))

		assert.Empty(t, storedContent(t, catalog, tcp))
		items := storedContent(t, catalog, udp)
		require.Len(t, items, 1)
		assert.Equal(t, "Ports and sockets", items[0].Title)
	})

	t.Run("edit in place", func(t *testing.T) {
		found, err := registry.FindContent("c1")
		require.NoError(t, err)
		updated := found.Content
		updated.Description = "UDP and TCP ports"
		require.NoError(t, registry.MoveContent(udp, udp, found.Stored, updated))

		items := storedContent(t, catalog, udp)
		require.Len(t, items, 1)
		assert.Equal(t, "UDP and TCP ports", items[0].Description)
	})

	t.Run("original not present", func(t *testing.T) {
		err := registry.MoveContent(tcp, udp, item, item)
		assert.ErrorIs(t, err, ErrContentNotFound)
	})
}

func TestContentRegistry_ListContent(t *testing.T) {
	db := setupTestDB(t)
	catalog := NewCatalogRepository(db)
	registry := NewContentRegistry(db)
	tcp := seedPath(t, catalog, "CS", "Year 1", "Networks", "TCP")
	sorting := seedPath(t, catalog, "CS", "Year 1", "Algorithms", "Sorting")

	_, err := registry.ArrayUnion(tcp,
		models.Content{ID: "a", Type: models.ContentVideo, Title: "Three-way Handshake", URL: "https://youtu.be/a"},
		models.Content{ID: "b", Type: models.ContentNotes, Title: "TCP notes", URL: "https://drive.google.com/file/d/b/view"},
	)
	require.NoError(t, err)
	_, err = registry.ArrayUnion(sorting,
		models.Content{ID: "c", Type: models.ContentPlaylist, Title: "Sorting lectures", URL: "https://youtube.com/playlist?list=PL"},
	)
	require.NoError(t, err)

	all, err := registry.ListContent(ContentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "algorithms sorts before networks")

	notes, err := registry.ListContent(ContentFilter{Type: models.ContentNotes})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "b", notes[0].ID)
	assert.Equal(t, tcp, notes[0].Location)

	search, err := registry.ListContent(ContentFilter{Search: "HANDSHAKE"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "a", search[0].ID)

	scoped, err := registry.ListContent(ContentFilter{CourseID: "cs", SubjectID: "networks"})
	require.NoError(t, err)
	assert.Len(t, scoped, 2)
}

func TestContentRegistry_ListContentChaptersWithSameOrder(t *testing.T) {
	db := setupTestDB(t)
	catalog := NewCatalogRepository(db)
	registry := NewContentRegistry(db)
	seedPath(t, catalog, "CS", "Year 1", "Networks", "TCP")
	subject := models.Location{CourseID: "cs", YearID: "year-1", SubjectID: "networks"}

	for _, name := range []string{"Zeta", "Alpha"} {
		_, err := catalog.Create(models.LevelChapter, subject, NodeInput{Name: name, Order: intPtr(5)})
		require.NoError(t, err)
		_, err = registry.ArrayUnion(subject.WithID(models.LevelChapter, utils.Slugify(name)),
			models.Content{ID: name, Type: models.ContentVideo, Title: name + " lecture", URL: "https://youtu.be/" + name},
		)
		require.NoError(t, err)
	}

	items, err := registry.ListContent(ContentFilter{SubjectID: "networks"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Alpha", items[0].ID)
	assert.Equal(t, "Zeta", items[1].ID)
}

func TestClean(t *testing.T) {
	cleaned, err := Clean(models.Content{ID: "x", Type: models.ContentVideo, Title: "T", URL: "u"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "x", "type": "video", "title": "T", "url": "u"}, cleaned)
}
