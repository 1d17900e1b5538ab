package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NicolasHaas/itemtrack/pkg/api"
	"github.com/NicolasHaas/itemtrack/pkg/auth"
	"github.com/NicolasHaas/itemtrack/pkg/model"
	"github.com/NicolasHaas/itemtrack/pkg/session"
	"github.com/NicolasHaas/itemtrack/pkg/storage"

	"github.com/google/go-cmp/cmp"
)

func newTestService(t *testing.T, handler http.Handler) (*auth.Service, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.New(storage.NewMemory())
	return auth.NewService(api.NewClient(srv.URL, sess)), sess
}

func TestLogin(t *testing.T) {
	wantUser := &model.UserInfo{ID: "1", Email: "a@b.com", DisplayName: "A"}

	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req auth.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Email != "a@b.com" || req.Password != "pw" {
			t.Errorf("request body = %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(auth.AuthResponse{Token: "tkn1", User: wantUser})
	}))

	resp, err := svc.Login(context.Background(), auth.LoginRequest{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token != "tkn1" {
		t.Errorf("token = %q, want %q", resp.Token, "tkn1")
	}
	if diff := cmp.Diff(wantUser, resp.User); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginRejected(t *testing.T) {
	svc, sess := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
	}))

	_, err := svc.Login(context.Background(), auth.LoginRequest{Email: "a@b.com", Password: "wrong"})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !api.IsAuthFailure(err) {
		t.Errorf("IsAuthFailure(%v) = false, want true", err)
	}
	if sess.Current().Authenticated {
		t.Errorf("session authenticated after rejected login")
	}
}

func TestLoginIncompleteResponse(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":""}`))
	}))

	if _, err := svc.Login(context.Background(), auth.LoginRequest{Email: "a@b.com", Password: "pw"}); err == nil {
		t.Errorf("expected error for incomplete response, got nil")
	}
}

func TestRegister(t *testing.T) {
	svc, sess := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/register" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req auth.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.DisplayName != "A" {
			t.Errorf("displayName = %q, want %q", req.DisplayName, "A")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(auth.AuthResponse{
			Token: "tkn1",
			User:  &model.UserInfo{ID: "1", Email: req.Email, DisplayName: req.DisplayName},
		})
	}))

	req := auth.RegisterRequest{Email: "a@b.com", Password: "pw", DisplayName: "A"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Registration never authenticates the session by itself.
	if sess.Current().Authenticated {
		t.Errorf("session authenticated after register")
	}
}

func TestCurrentUser(t *testing.T) {
	want := &model.UserInfo{ID: "1", Email: "a@b.com", DisplayName: "A", Roles: []string{"admin"}}

	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/auth/me" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(want)
	}))

	got, err := svc.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestLogout(t *testing.T) {
	var called bool
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/logout" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if !called {
		t.Errorf("logout endpoint not called")
	}
}
