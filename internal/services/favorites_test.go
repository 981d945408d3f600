package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteToggle(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	reader := createUser(t, conn, "reader")
	post := createPost(t, conn, author, "hello")

	favorited, count, err := svc.Favorites.Toggle(ctx, reader.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.Equal(t, int64(1), count)

	page, err := svc.Favorites.List(ctx, reader.ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "hello", page.Posts[0].Title)

	favorited, count, err = svc.Favorites.Toggle(ctx, reader.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, favorited)
	assert.Zero(t, count)

	_, _, err = svc.Favorites.Toggle(ctx, reader.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotifications_MarkRead(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	reader := createUser(t, conn, "reader")
	post := createPost(t, conn, author, "hello")

	for i := 0; i < 2; i++ {
		_, err := svc.Comments.Create(ctx, reader, post.ID, nil, "hi")
		require.NoError(t, err)
	}
	notes, err := svc.Notifications.List(ctx, author.ID, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	require.NoError(t, svc.Notifications.MarkRead(ctx, author.ID, notes[0].ID))
	assert.ErrorIs(t, svc.Notifications.MarkRead(ctx, reader.ID, notes[1].ID), ErrNotFound)

	unread, err := svc.Notifications.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, svc.Notifications.ReadAll(ctx, author.ID))
	unread, err = svc.Notifications.UnreadCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

// multipartFile builds a real multipart upload so Save sees the same types a handler passes it.
func multipartFile(t *testing.T, name string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	header := form.File["file"][0]
	f, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, header
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploadSave(t *testing.T) {
	dir := t.TempDir()
	uploads := NewUploadService(dir, 1024)

	f, h := multipartFile(t, "pixel.png", pngHeader)
	res, err := uploads.Save(f, h)
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(res.URL, ".png"))

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(res.URL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)
}

func TestUploadSave_Rejects(t *testing.T) {
	uploads := NewUploadService(t.TempDir(), 16)

	f, h := multipartFile(t, "notes.txt", []byte("just text"))
	_, err := uploads.Save(f, h)
	assert.ErrorIs(t, err, ErrValidation)

	f, h = multipartFile(t, "big.png", pngHeader)
	_, err = uploads.Save(f, h)
	assert.ErrorIs(t, err, ErrValidation)

	f, h = multipartFile(t, "empty.png", nil)
	_, err = uploads.Save(f, h)
	assert.ErrorIs(t, err, ErrValidation)
}
