package errs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeUnwrapsWrappedErrors(t *testing.T) {
	err := errors.Wrap(Errorf(ENOTFOUND, "The post does not exist."), "loading post")
	assert.Equal(t, ENOTFOUND, ErrorCode(err))
	assert.Equal(t, "The post does not exist.", ErrorMessage(err))
	assert.True(t, Is(err, ENOTFOUND))
	assert.False(t, Is(err, EINVALID))
}

func TestErrorCodeOfForeignError(t *testing.T) {
	err := errors.New("connection refused")
	assert.Equal(t, EINTERNAL, ErrorCode(err))
	assert.Equal(t, "Internal error.", ErrorMessage(err))
	assert.Equal(t, "", ErrorCode(nil))
}

func TestInvalidCarriesField(t *testing.T) {
	err := Invalid("text", "Post text must not be empty.")
	assert.Equal(t, EINVALID, ErrorCode(err))
	assert.Equal(t, "text", ErrorField(err))
	assert.Contains(t, err.Error(), "field=text")
}

func TestReturnError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{Invalid("group", "The group does not exist."), http.StatusBadRequest},
		{Errorf(ENOTFOUND, "missing"), http.StatusNotFound},
		{Errorf(EUNAUTHORIZED, "nope"), http.StatusForbidden},
		{Errorf(ECONFLICT, "taken"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		ReturnError(w, r, tt.err)
		assert.Equal(t, tt.status, w.Code)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, ErrorMessage(tt.err), body.Error)
		assert.Equal(t, ErrorField(tt.err), body.Field)
	}
}
