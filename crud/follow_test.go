package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogFeed/domain"
	"blogFeed/errs"
)

func TestFollowAndUnfollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.user(t, "a")
	b := f.user(t, "b")

	next, err := f.Follow.Follow(ctx, a, "b")
	require.NoError(t, err)
	assert.Equal(t, "/profile/b/", next)

	following, err := f.Follow.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, following)
	following, err = f.Follow.IsFollowing(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, following)

	next, err = f.Follow.Unfollow(ctx, a, "b")
	require.NoError(t, err)
	assert.Equal(t, "/profile/b/", next)
	following, err = f.Follow.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestUnfollowWithoutEdgeIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.user(t, "a")
	c := f.user(t, "c")
	f.user(t, "b")
	_, err := f.Follow.Follow(ctx, c, "b")
	require.NoError(t, err)

	_, err = f.Follow.Unfollow(ctx, a, "b")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), f.count(t, &domain.Follow{}))
}

func TestFollowErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.user(t, "a")

	_, err := f.Follow.Follow(ctx, nil, "a")
	assert.True(t, errs.Is(err, errs.EUNAUTHORIZED))
	_, err = f.Follow.Unfollow(ctx, nil, "a")
	assert.True(t, errs.Is(err, errs.EUNAUTHORIZED))

	_, err = f.Follow.Follow(ctx, a, "nobody")
	assert.True(t, errs.Is(err, errs.ENOTFOUND))
	_, err = f.Follow.Unfollow(ctx, a, "nobody")
	assert.True(t, errs.Is(err, errs.ENOTFOUND))

	_, err = f.Follow.Follow(ctx, a, "a")
	assert.True(t, errs.Is(err, errs.EINVALID))

	assert.Equal(t, int64(0), f.count(t, &domain.Follow{}))
}
