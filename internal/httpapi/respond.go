package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/MrEthical07/taskauth/internal/accounts"
	"github.com/MrEthical07/taskauth/internal/tasks"
)

const (
	msgInvalidJSON     = "Invalid JSON body"
	msgMissingInfo     = "Missing information"
	msgInvalidRequest  = "Invalid request"
	msgTooManyRequests = "Too many requests"
	msgInternal        = "Internal Server Error"
	msgUnauthorized    = "Unauthorized"
)

type messageBody struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// statusFor maps collaborator errors to a status and public message. ok is
// false for errors that should surface as 500.
func statusFor(err error) (status int, msg string, ok bool) {
	switch {
	case errors.Is(err, accounts.ErrEmailInUse):
		return http.StatusConflict, "Email already in use", true
	case errors.Is(err, accounts.ErrInvalidEmail):
		return http.StatusBadRequest, "Invalid email", true
	case errors.Is(err, accounts.ErrInvalidPassword):
		return http.StatusBadRequest, "Invalid password", true
	case errors.Is(err, accounts.ErrEmptyName):
		return http.StatusBadRequest, "Name cannot be empty", true
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", true
	case errors.Is(err, accounts.ErrNotFound):
		return http.StatusNotFound, "User does not exist", true
	case errors.Is(err, tasks.ErrTitleEmpty):
		return http.StatusBadRequest, "Title cannot be empty", true
	case errors.Is(err, tasks.ErrNotFound):
		return http.StatusNotFound, "Task not found", true
	case errors.Is(err, tasks.ErrForbidden):
		return http.StatusForbidden, "Forbidden", true
	case errors.Is(err, tasks.ErrInvalidPage):
		return http.StatusBadRequest, msgInvalidRequest, true
	}
	return http.StatusInternalServerError, msgInternal, false
}

// decodeBody reads a JSON object into dst after checking that every required
// key is present. It writes the 400 response itself and returns false on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, required ...string) bool {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil || raw == nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}

	var missing []string
	for _, key := range required {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		writeJSON(w, http.StatusBadRequest, messageBody{Message: msgMissingInfo, Details: missing})
		return false
	}

	// Re-marshal the validated object into the typed destination.
	buf, err := json.Marshal(raw)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	if err := json.Unmarshal(buf, dst); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}

const maxBodyBytes = 1 << 20
