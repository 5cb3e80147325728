package errs

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"blogFeed/logging"
)

// codes maps error codes to http status codes.
var codes = map[string]int{
	EINVALID:      http.StatusBadRequest,
	ENOTFOUND:     http.StatusNotFound,
	EUNAUTHORIZED: http.StatusForbidden,
	ECONFLICT:     http.StatusConflict,
	EINTERNAL:     http.StatusInternalServerError,
}

// StatusCode returns the http status code for an error code.
func StatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the json body written for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ReturnError writes the error as json with the matching status code.
// Internal errors are logged and their details hidden from the client.
func ReturnError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := ErrorCode(err), ErrorMessage(err)
	if code == EINTERNAL {
		LogError(r, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(code))
	json.NewEncoder(w).Encode(&ErrorResponse{Error: message, Field: ErrorField(err)})
}

// LogError logs an error along with the request it occurred in.
func LogError(r *http.Request, err error) {
	logging.Log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).WithError(err).Error("request failed")
}
