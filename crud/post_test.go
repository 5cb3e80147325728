package crud

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogFeed/domain"
	"blogFeed/errs"
)

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "leo")
	g := f.group(t, "cats")

	p, next, err := f.Post.Create(ctx, u, domain.PostInput{Text: "hello", GroupID: &g.ID})
	require.NoError(t, err)
	assert.Equal(t, "/profile/leo/", next)
	assert.Equal(t, "hello", p.Text)
	assert.Equal(t, u.ID, p.AuthorID)
	assert.Equal(t, "leo", p.Author.Username)
	require.NotNil(t, p.Group)
	assert.Equal(t, "cats", p.Group.Slug)
	assert.True(t, p.PubDate.Equal(f.clock.Last()))

	feed, err := f.Feed.Author(ctx, "leo", nil, "")
	require.NoError(t, err)
	require.NotEmpty(t, feed.Page.Items)
	assert.Equal(t, p.ID, feed.Page.Items[0].ID)
}

func TestCreatePostNewestFirstInAuthorFeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "leo")
	f.post(t, u, "older", nil)
	newest := f.post(t, u, "hello", nil)

	feed, err := f.Feed.Author(ctx, "leo", nil, "1")
	require.NoError(t, err)
	assert.Equal(t, newest.ID, feed.Page.Items[0].ID)
	assert.Equal(t, []string{"hello", "older"}, texts(feed.Page.Items))
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "leo")
	missing := uint(4242)

	tests := []struct {
		name  string
		actor *domain.User
		in    domain.PostInput
		code  string
		field string
	}{
		{"anonymous", nil, domain.PostInput{Text: "hi"}, errs.EUNAUTHORIZED, ""},
		{"empty text", u, domain.PostInput{Text: ""}, errs.EINVALID, "text"},
		{"blank text", u, domain.PostInput{Text: "  \n\t "}, errs.EINVALID, "text"},
		{"unknown group", u, domain.PostInput{Text: "hi", GroupID: &missing}, errs.EINVALID, "group"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, next, err := f.Post.Create(ctx, tc.actor, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.code, errs.ErrorCode(err))
			assert.Equal(t, tc.field, errs.ErrorField(err))
			assert.Empty(t, next)
		})
	}
	assert.Equal(t, int64(0), f.count(t, &domain.Post{}))
}

func TestCreatePostTrimsText(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.user(t, "leo"), "  hello  ", nil)
	assert.Equal(t, "hello", p.Text)
}

func TestEditPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "leo")
	g := f.group(t, "cats")
	p := f.post(t, u, "draft", g)

	edited, next, err := f.Post.Update(ctx, u, p.ID, domain.PostInput{Text: "final"})
	require.NoError(t, err)
	assert.Equal(t, "/posts/"+itoa(p.ID)+"/", next)
	assert.Equal(t, "final", edited.Text)
	assert.Nil(t, edited.GroupID)
	assert.True(t, edited.PubDate.Equal(p.PubDate))
	assert.Equal(t, int64(1), f.count(t, &domain.Post{}))
}

func TestEditPostByOtherUserIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, "leo")
	other := f.user(t, "mia")
	p := f.post(t, author, "mine", nil)

	_, _, err := f.Post.Update(ctx, other, p.ID, domain.PostInput{Text: "hijacked"})
	assert.True(t, errs.Is(err, errs.EUNAUTHORIZED))

	_, _, err = f.Post.Update(ctx, nil, p.ID, domain.PostInput{Text: "hijacked"})
	assert.True(t, errs.Is(err, errs.EUNAUTHORIZED))

	got, err := f.Post.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Text)
	assert.True(t, got.PubDate.Equal(p.PubDate))
}

func TestEditPostNotFound(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.Post.Update(context.Background(), f.user(t, "leo"), 99, domain.PostInput{Text: "x"})
	assert.True(t, errs.Is(err, errs.ENOTFOUND))
}

func TestEditPostValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "leo")
	p := f.post(t, u, "keep me", nil)

	_, _, err := f.Post.Update(ctx, u, p.ID, domain.PostInput{Text: " "})
	assert.Equal(t, "text", errs.ErrorField(err))

	got, err := f.Post.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me", got.Text)
}

func TestPostImageLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "leo")

	p, _, err := f.Post.Create(ctx, u, domain.PostInput{Text: "with image", Image: pngUpload(t, "cat.png")})
	require.NoError(t, err)
	require.NotEmpty(t, p.Image)
	assert.Equal(t, domain.PostImagesDir, filepath.Dir(filepath.FromSlash(p.Image)))
	first := f.Image.Path(p.Image)
	assert.FileExists(t, first)

	// Replacing the image removes the old file.
	p, _, err = f.Post.Update(ctx, u, p.ID, domain.PostInput{Text: "with image", Image: pngUpload(t, "dog.PNG")})
	require.NoError(t, err)
	second := f.Image.Path(p.Image)
	assert.FileExists(t, second)
	assert.NotEqual(t, first, second)
	assert.NoFileExists(t, first)

	// Editing without an upload keeps the image.
	p, _, err = f.Post.Update(ctx, u, p.ID, domain.PostInput{Text: "still with image"})
	require.NoError(t, err)
	assert.Equal(t, second, f.Image.Path(p.Image))

	// Clearing removes it.
	p, _, err = f.Post.Update(ctx, u, p.ID, domain.PostInput{Text: "no image", ClearImage: true})
	require.NoError(t, err)
	assert.Empty(t, p.Image)
	assert.NoFileExists(t, second)
}

func TestPostRejectsInvalidImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "leo")

	up := pngUpload(t, "notes.txt")
	_, _, err := f.Post.Create(ctx, u, domain.PostInput{Text: "x", Image: up})
	assert.Equal(t, "image", errs.ErrorField(err))
	assert.Equal(t, int64(0), f.count(t, &domain.Post{}))

	entries, err := os.ReadDir(f.mediaRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, "leo")
	other := f.user(t, "mia")
	p, _, err := f.Post.Create(ctx, author, domain.PostInput{Text: "bye", Image: pngUpload(t, "a.png")})
	require.NoError(t, err)

	_, err = f.Post.Delete(ctx, other, p.ID)
	assert.True(t, errs.Is(err, errs.EUNAUTHORIZED))
	_, err = f.Post.Delete(ctx, nil, p.ID)
	assert.True(t, errs.Is(err, errs.EUNAUTHORIZED))
	_, err = f.Post.Delete(ctx, author, p.ID+1)
	assert.True(t, errs.Is(err, errs.ENOTFOUND))

	next, err := f.Post.Delete(ctx, author, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "/profile/leo/", next)
	assert.NoFileExists(t, f.Image.Path(p.Image))
	_, err = f.Post.ByID(ctx, p.ID)
	assert.True(t, errs.Is(err, errs.ENOTFOUND))
}

func TestPostDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, "leo")
	reader := f.user(t, "mia")
	p := f.post(t, author, "detail", nil)
	f.post(t, author, "another", nil)

	_, _, err := f.Comment.Create(ctx, reader, p.ID, "first!")
	require.NoError(t, err)
	_, _, err = f.Comment.Create(ctx, author, p.ID, "thanks")
	require.NoError(t, err)

	d, err := f.Post.Detail(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "detail", d.Post.Text)
	assert.Equal(t, int64(2), d.AuthorPostCount)
	require.Len(t, d.Comments, 2)
	assert.Equal(t, "thanks", d.Comments[0].Text)
	assert.Equal(t, "leo", d.Comments[0].Author.Username)
	assert.Equal(t, "first!", d.Comments[1].Text)

	_, err = f.Post.Detail(ctx, 999)
	assert.True(t, errs.Is(err, errs.ENOTFOUND))
}
