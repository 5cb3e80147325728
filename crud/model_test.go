package crud

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogFeed/domain"
	"blogFeed/errs"
)

func TestDeletingGroupKeepsItsPosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, "leo")
	g := f.group(t, "cats")
	p := f.post(t, author, "about cats", g)
	require.NotNil(t, p.GroupID)

	require.NoError(t, f.Group.Delete(ctx, "cats"))

	got, err := f.Post.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.Group)
	assert.Equal(t, "about cats", got.Text)

	_, err = f.Group.BySlug(ctx, "cats")
	assert.True(t, errs.Is(err, errs.ENOTFOUND))
}

func TestDeletingPostDeletesItsComments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := f.user(t, "leo")
	reader := f.user(t, "mia")
	p := f.post(t, author, "first", nil)
	other := f.post(t, author, "second", nil)

	_, _, err := f.Comment.Create(ctx, reader, p.ID, "nice")
	require.NoError(t, err)
	_, _, err = f.Comment.Create(ctx, reader, other.ID, "also nice")
	require.NoError(t, err)

	_, err = f.Post.Delete(ctx, author, p.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.count(t, &domain.Comment{}))
	comments, err := f.Comment.ByPost(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "also nice", comments[0].Text)
}

func TestDeletingUserDeletesEverythingTheyOwn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gone := f.user(t, "gone")
	stays := f.user(t, "stays")

	own := f.post(t, gone, "own post", nil)
	kept := f.post(t, stays, "kept post", nil)
	_, _, err := f.Comment.Create(ctx, gone, kept.ID, "comment on someone else's post")
	require.NoError(t, err)
	_, _, err = f.Comment.Create(ctx, stays, own.ID, "comment on the deleted user's post")
	require.NoError(t, err)
	_, err = f.Follow.Follow(ctx, gone, "stays")
	require.NoError(t, err)
	_, err = f.Follow.Follow(ctx, stays, "gone")
	require.NoError(t, err)

	require.NoError(t, f.User.Delete(ctx, gone.ID))

	assert.Equal(t, int64(1), f.count(t, &domain.Post{}))
	assert.Equal(t, int64(0), f.count(t, &domain.Comment{}))
	assert.Equal(t, int64(0), f.count(t, &domain.Follow{}))
	_, err = f.Post.ByID(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestFollowPairIsUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.user(t, "a")
	f.user(t, "b")

	for i := 0; i < 2; i++ {
		_, err := f.Follow.Follow(ctx, a, "b")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), f.count(t, &domain.Follow{}))

	// The database rejects duplicates even when the service is bypassed.
	var edge domain.Follow
	require.NoError(t, f.DB().First(&edge).Error)
	dup := domain.Follow{FollowerID: edge.FollowerID, FollowedID: edge.FollowedID}
	assert.Error(t, f.DB().Omit("Follower", "Followed").Create(&dup).Error)
}

func TestPostString(t *testing.T) {
	assert.Equal(t, "short", domain.Post{Text: "short"}.String())
	assert.Equal(t, "exactly fifteen", domain.Post{Text: "exactly fifteen"}.String())
	assert.Equal(t, "this is a rathe", domain.Post{Text: "this is a rather long post"}.String())
	assert.Equal(t, strings.Repeat("ä", 15), domain.Post{Text: strings.Repeat("ä", 16)}.String())
}
