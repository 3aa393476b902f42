package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/taskauth"
)

// Authenticator is the part of *taskauth.Engine the guard needs.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*taskauth.AuthenticatedSubject, error)
}

// Guard authenticates the Authorization header and injects the subject into
// the request context. Rejections are written as {"message": ...} with 401,
// or 503 when the revocation ledger is unreachable.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				WriteRejection(w, taskauth.ErrEngineNotReady)
				return
			}

			subject, err := auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				WriteRejection(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(taskauth.WithSubject(r.Context(), subject)))
		})
	}
}

// SubjectID returns the authenticated subject id injected by Guard.
func SubjectID(r *http.Request) (int64, bool) {
	subject, ok := taskauth.SubjectFromContext(r.Context())
	if !ok {
		return 0, false
	}
	return subject.SubjectID, true
}

// WriteRejection renders a credential error. Anything that is not a ledger
// outage is reported as 401.
func WriteRejection(w http.ResponseWriter, err error) {
	reason := taskauth.ReasonOf(err)
	status := http.StatusUnauthorized
	if reason == taskauth.ReasonUnavailable {
		status = http.StatusServiceUnavailable
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="taskauth"`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": reason.Message()})
}
