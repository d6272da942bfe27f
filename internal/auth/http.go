package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ApniDukan/pkg/kit"
)

const (
	defaultTokenTTL = 24 * time.Hour
	minPasswordLen  = 6
)

type Server struct {
	Log      *zap.Logger
	Store    UserStore
	JWT      *TokenMaker
	TokenTTL time.Duration
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type profileReq struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type passwordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = kit.RoleCustomer
	}

	var c kit.Checks
	c.Email("email", req.Email)
	c.Check(len(normalizePassword(req.Password)) >= minPasswordLen, "password", "Password must be at least 6 characters")
	c.Required("name", req.Name, "Name is required")
	c.Check(req.Role == kit.RoleCustomer || req.Role == kit.RoleShopkeeper, "role", "Role must be customer or shopkeeper")
	if c.Failed() {
		kit.WriteValidation(w, r, c.Errors())
		return
	}

	now := time.Now().UTC()
	u, err := s.Store.Create(r.Context(), User{
		ID:        "u_" + uuid.NewString(),
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}, req.Password)
	if errors.Is(err, ErrEmailExists) {
		kit.WriteError(w, r, http.StatusConflict, "User already exists", nil)
		return
	}
	if err != nil {
		s.Log.Error("create user failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.writeToken(w, r, http.StatusCreated, "User registered successfully", u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	var c kit.Checks
	c.Email("email", normalizeEmail(req.Email))
	c.Required("password", req.Password, "Password is required")
	if c.Failed() {
		kit.WriteValidation(w, r, c.Errors())
		return
	}

	u, err := s.Store.Verify(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		kit.WriteError(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err != nil {
		s.Log.Error("verify user failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.writeToken(w, r, http.StatusOK, "Login successful", u)
}

// Tokens are stateless; logout only confirms the caller held a valid one.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, kit.Message{Message: "Logged out successfully"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req profileReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	var c kit.Checks
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
		c.Required("name", name, "Name cannot be empty")
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
		c.Email("email", email)
	}
	if c.Failed() {
		kit.WriteValidation(w, r, c.Errors())
		return
	}

	u, err := s.Store.UpdateProfile(r.Context(), claims.UserID, ProfileUpdate{Name: req.Name, Email: req.Email}, time.Now().UTC())
	switch {
	case errors.Is(err, ErrEmailExists):
		kit.WriteError(w, r, http.StatusConflict, "Email already in use", nil)
		return
	case errors.Is(err, ErrUserNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "User not found", nil)
		return
	case err != nil:
		s.Log.Error("update profile failed", zap.Error(err), zap.String("user_id", claims.UserID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Profile updated successfully", "user": u})
}

func (s *Server) handlePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var req passwordReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	var c kit.Checks
	c.Required("currentPassword", req.CurrentPassword, "Current password is required")
	c.Check(len(normalizePassword(req.NewPassword)) >= minPasswordLen, "newPassword", "New password must be at least 6 characters")
	if c.Failed() {
		kit.WriteValidation(w, r, c.Errors())
		return
	}

	err := s.Store.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword, time.Now().UTC())
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		kit.WriteError(w, r, http.StatusBadRequest, "Current password is incorrect", nil)
		return
	case errors.Is(err, ErrUserNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "User not found", nil)
		return
	case err != nil:
		s.Log.Error("change password failed", zap.Error(err), zap.String("user_id", claims.UserID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, kit.Message{Message: "Password updated successfully"})
}

func (s *Server) writeToken(w http.ResponseWriter, r *http.Request, status int, msg string, u User) {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	tok, err := s.JWT.New(u, ttl)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, status, tokenResp{Message: msg, Token: tok, User: u})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (User, bool) {
	claims, _ := claimsFromContext(r.Context())

	u, err := s.Store.Get(r.Context(), claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		kit.WriteError(w, r, http.StatusUnauthorized, "User not found", nil)
		return User{}, false
	}
	if err != nil {
		s.Log.Error("load user failed", zap.Error(err), zap.String("user_id", claims.UserID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return User{}, false
	}
	return u, true
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := kit.BearerToken(r)
		if !ok {
			kit.WriteError(w, r, http.StatusUnauthorized, "No token, authorization denied", nil)
			return
		}

		claims, err := s.JWT.Parse(tok)
		if err != nil {
			kit.WriteError(w, r, http.StatusUnauthorized, "Token is not valid", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}
