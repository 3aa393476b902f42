package httpapi

import (
	"net/http"

	"github.com/MrEthical07/taskauth"
	"github.com/MrEthical07/taskauth/internal/flows"
	"github.com/MrEthical07/taskauth/middleware"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type deleteMeRequest struct {
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req, "name", "email", "password") {
		return
	}

	id, err := s.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, "register", err)
		return
	}
	s.issue(w, r, id, http.StatusCreated)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req, "email", "password") {
		return
	}
	if s.lockedOut(w, r, req.Email) {
		return
	}

	id, err := s.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.loginFailed(r, req.Email, err)
		s.fail(w, r, "login", err)
		return
	}
	s.loginSucceeded(r, req.Email)
	s.issue(w, r, id, http.StatusOK)
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, subjectID int64, status int) {
	pair, err := s.engine.IssuePair(r.Context(), subjectID)
	if err != nil {
		s.log.Error(r.Context(), "issue credentials failed", "subject", subjectID, "error", err)
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, status, pair)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := flows.ParseBearer(r.Header.Get("Authorization"))
	if !ok {
		middleware.WriteRejection(w, taskauth.ErrMissingCredential)
		return
	}

	access, err := s.engine.RefreshAccess(r.Context(), token)
	if err != nil {
		if taskauth.ReasonOf(err) == taskauth.ReasonNone {
			s.log.Error(r.Context(), "refresh failed", "error", err)
			writeMessage(w, http.StatusInternalServerError, msgInternal)
			return
		}
		middleware.WriteRejection(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": access})
}

// logout revokes the bearer access credential and the refresh credential
// from the body. Neither is validated first; unusable tokens are skipped.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if !decodeBody(w, r, &req, "refresh_token") {
		return
	}

	access, ok := flows.ParseBearer(r.Header.Get("Authorization"))
	if !ok {
		middleware.WriteRejection(w, taskauth.ErrMissingCredential)
		return
	}

	if err := s.engine.Logout(r.Context(), access, req.RefreshToken); err != nil {
		middleware.WriteRejection(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// deleteMe removes the caller's account and tasks, then revokes the access
// credential used for the call.
func (s *Server) deleteMe(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.SubjectID(r)

	var req deleteMeRequest
	if !decodeBody(w, r, &req, "password") {
		return
	}

	if err := s.accounts.DeleteSelf(r.Context(), id, req.Password); err != nil {
		s.fail(w, r, "delete account", err)
		return
	}
	if _, err := s.tasks.DeleteAll(r.Context(), id); err != nil {
		s.log.Error(r.Context(), "delete tasks of removed account failed", "subject", id, "error", err)
	}
	if token, ok := flows.ParseBearer(r.Header.Get("Authorization")); ok {
		if _, err := s.engine.Revoke(r.Context(), token); err != nil {
			s.log.Warn(r.Context(), "revoke after account deletion failed", "subject", id, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
