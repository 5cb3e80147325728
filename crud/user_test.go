package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogFeed/domain"
	"blogFeed/errs"
)

func TestUserSignupAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u := &domain.User{Username: " leo ", Email: "Leo@Example.com ", Password: "correct horse"}
	require.NoError(t, f.User.Create(ctx, u))
	assert.Equal(t, "leo", u.Username)
	assert.Equal(t, "leo@example.com", u.Email)
	assert.Empty(t, u.Password)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEmpty(t, u.Remember)

	found, err := f.User.Authenticate(ctx, "leo", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = f.User.Authenticate(ctx, "leo", "wrong horse")
	assert.Equal(t, "password", errs.ErrorField(err))
	_, err = f.User.Authenticate(ctx, "nobody", "correct horse")
	assert.Equal(t, "username", errs.ErrorField(err))

	byToken, err := f.User.ByRemember(ctx, u.Remember)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byToken.ID)
}

func TestUserRememberTokenRotation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := &domain.User{Username: "leo", Password: "correct horse"}
	require.NoError(t, f.User.Create(ctx, u))
	old := u.Remember

	token, err := f.User.MakeRememberToken()
	require.NoError(t, err)
	u.Remember = token
	require.NoError(t, f.User.Update(ctx, u))

	_, err = f.User.ByRemember(ctx, old)
	assert.True(t, errs.Is(err, errs.ENOTFOUND))
	found, err := f.User.ByRemember(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestUserValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.User.Create(ctx, &domain.User{Username: "taken", Password: "long enough"}))

	tests := []struct {
		name  string
		user  domain.User
		field string
	}{
		{"missing username", domain.User{Password: "long enough"}, "username"},
		{"bad username", domain.User{Username: "no spaces allowed", Password: "long enough"}, "username"},
		{"taken username", domain.User{Username: "taken", Password: "long enough"}, "username"},
		{"bad email", domain.User{Username: "leo", Email: "not-an-email", Password: "long enough"}, "email"},
		{"missing password", domain.User{Username: "leo"}, "password"},
		{"short password", domain.User{Username: "leo", Password: "short"}, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.user
			err := f.User.Create(ctx, &u)
			assert.True(t, errs.Is(err, errs.EINVALID))
			assert.Equal(t, tc.field, errs.ErrorField(err))
		})
	}
}

func TestDeleteUnknownUser(t *testing.T) {
	f := newFixture(t)
	err := f.User.Delete(context.Background(), 12345)
	assert.True(t, errs.Is(err, errs.ENOTFOUND))
}

func TestUserCreateLosingUsernameRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "leo")

	// Both signups passed validation; the database decides.
	ug := &userGorm{db: f.DB()}
	err := ug.Create(ctx, &domain.User{Username: "leo", PasswordHash: "hash", RememberHash: "other-remember"})
	assert.True(t, errs.Is(err, errs.ECONFLICT), "%v", err)
	assert.Equal(t, "username", errs.ErrorField(err))
	assert.Equal(t, int64(1), f.count(t, &domain.User{}))
}
