package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogFeed/domain"
	"blogFeed/errs"
)

func TestCreateComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, "leo")
	reader := f.user(t, "mia")
	p := f.post(t, author, "post", nil)

	c, next, err := f.Comment.Create(ctx, reader, p.ID, "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "/posts/"+itoa(p.ID)+"/", next)
	assert.Equal(t, "hi", c.Text)
	assert.Equal(t, "mia", c.Author.Username)
	assert.True(t, c.Created.Equal(f.clock.Last()))

	comments, err := f.Comment.ByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, c.ID, comments[0].ID)
}

func TestCreateCommentAnonymous(t *testing.T) {
	f := newFixture(t)
	p := f.post(t, f.user(t, "leo"), "post", nil)

	_, next, err := f.Comment.Create(context.Background(), nil, p.ID, "hi")
	assert.True(t, errs.Is(err, errs.EUNAUTHORIZED))
	assert.Empty(t, next)
	assert.Equal(t, int64(0), f.count(t, &domain.Comment{}))
}

func TestCreateCommentErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "leo")
	p := f.post(t, u, "post", nil)

	_, _, err := f.Comment.Create(ctx, u, p.ID+100, "hi")
	assert.True(t, errs.Is(err, errs.ENOTFOUND))

	_, _, err = f.Comment.Create(ctx, u, p.ID, "   ")
	assert.True(t, errs.Is(err, errs.EINVALID))
	assert.Equal(t, "text", errs.ErrorField(err))

	assert.Equal(t, int64(0), f.count(t, &domain.Comment{}))
}
