package httpserver

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/and161185/shopkeeper/internal/errs"
)

type userDTO struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// csrf_token is consumed by the middleware; listed here so decoding
	// does not choke on it
	Token string `json:"csrf_token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	u, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    userDTO{Email: u.Email, IsAdmin: u.IsAdmin},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}
	sess, u, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, remoteIP(r))
	if err != nil {
		s.writeAuthErr(w, r, err)
		return
	}
	s.setCookie(w, sessionCookie, sess.ID, s.cfg.SessionTTL)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userDTO{Email: u.Email, IsAdmin: u.IsAdmin},
	})
}

// handleLogout destroys the current session. Success is reported even if the
// row was already gone.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromCtx(r.Context())
	if !ok {
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	if err := s.sessions.Destroy(r.Context(), sess.ID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.clearCookie(w, sessionCookie)
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	s.respondJSON(w, http.StatusOK, userDTO{Email: u.Email, IsAdmin: u.IsAdmin})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	var req struct {
		Current string `json:"currentPassword"`
		Next    string `json:"newPassword"`
		Token   string `json:"csrf_token"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if err := s.auth.ChangePassword(r.Context(), u.ID, req.Current, req.Next); err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			s.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "current password is incorrect"})
			return
		}
		s.writeErr(w, r, err)
		return
	}
	// all sessions are revoked; the client must log in again
	s.clearCookie(w, sessionCookie)
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	tok, err := s.csrf.Issue()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	// the cookie is httpOnly, so the body copy is the client's only chance
	// to read the value and echo it back on mutating requests
	s.setCookie(w, csrfCookie, tok, s.cfg.CSRFTTL)
	s.respondJSON(w, http.StatusOK, map[string]string{"csrf_token": tok})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
