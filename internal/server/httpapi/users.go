package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), creds.UserName, creds.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", user.ID, "request_id", requestID(r))
	writeData(w, http.StatusCreated, "User created successfully", user.Public())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	pair, err := s.users.Login(r.Context(), creds.UserName, creds.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.cookies.set(w, pair)
	writeData(w, http.StatusOK, "Login successful", pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleRefreshToken exchanges a refresh token for a new pair. The token is
// taken from the refresh-token header, the refresh cookie or a JSON body, in
// that order.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(headerRefreshToken)
	if token == "" {
		token = cookieValue(r, cookieRefreshToken)
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			s.writeServiceError(w, r, err)
			return
		}
		token = req.RefreshToken
	}

	pair, err := s.users.RefreshToken(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.cookies.set(w, pair)
	writeData(w, http.StatusOK, "Tokens refreshed successfully", pair)
}

func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "User retrieved successfully", currentUser(r).Public())
}

// updatedUser is the PATCH /users payload. Tokens are present when the
// username changed, since access tokens carry the username.
type updatedUser struct {
	models.UserPublic
	Tokens *auth.TokenPair `json:"tokens,omitempty"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd models.UserUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	current := currentUser(r)
	user, err := s.users.Update(r.Context(), current, upd)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	data := updatedUser{UserPublic: user.Public()}
	if user.UserName != current.UserName {
		pair, err := s.users.IssueTokens(user)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.cookies.set(w, pair)
		data.Tokens = &pair
	}

	writeData(w, http.StatusOK, "User updated successfully", data)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := s.users.Delete(r.Context(), user.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user deleted", "user_id", user.ID, "request_id", requestID(r))
	s.cookies.clear(w)
	writeData(w, http.StatusOK, "User deleted successfully", nil)
}
