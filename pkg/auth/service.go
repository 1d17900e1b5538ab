// Package auth provides the remote authentication operations: login,
// register, logout, and fetching the current profile. The service is
// stateless; session mutation is the caller's job (pkg/client.Engine), so
// this layer stays a thin set of round trips.
package auth

import (
	"context"
	"fmt"

	"github.com/NicolasHaas/itemtrack/pkg/api"
	"github.com/NicolasHaas/itemtrack/pkg/model"
)

// LoginRequest carries a login submission. It exists only for the duration
// of one request and is never persisted.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries a registration submission.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// AuthResponse is the server's answer to a successful login or registration.
type AuthResponse struct {
	Token string          `json:"token"`
	User  *model.UserInfo `json:"user"`
}

// Service performs the /auth round trips against the shared API client.
type Service struct {
	api *api.Client
}

// NewService creates an auth service on top of the given API client.
func NewService(client *api.Client) *Service {
	return &Service{api: client}
}

// Login exchanges credentials for a token and profile. A rejected credential
// surfaces as an *api.Error with status 401 (see api.IsAuthFailure).
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.api.Post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("auth: server returned incomplete login response")
	}
	return &resp, nil
}

// Register creates an account. It does not authenticate the session; the
// caller decides whether to sign the new account in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.api.Post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout notifies the server, best effort. Local session clearing is the
// caller's responsibility regardless of this call's outcome.
func (s *Service) Logout(ctx context.Context) error {
	return s.api.Post(ctx, "/auth/logout", nil, nil)
}

// CurrentUser fetches the profile for the currently attached token. An
// invalid token fails with a 401, which also trips the client's global
// invalidation path.
func (s *Service) CurrentUser(ctx context.Context) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := s.api.Get(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
