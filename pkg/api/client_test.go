package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NicolasHaas/itemtrack/pkg/api"
	"github.com/NicolasHaas/itemtrack/pkg/model"
	"github.com/NicolasHaas/itemtrack/pkg/query"
	"github.com/NicolasHaas/itemtrack/pkg/session"
	"github.com/NicolasHaas/itemtrack/pkg/storage"
)

func authedSession(t *testing.T, token string) *session.Store {
	t.Helper()
	st := session.New(storage.NewMemory())
	st.SetAuth(&model.UserInfo{ID: "1", Email: "a@b.com", DisplayName: "A"}, token)
	return st
}

func TestBearerHeaderAttachment(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		wantHeader string
	}{
		{"with token", "tkn1", "Bearer tkn1"},
		{"signed out", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotHeader string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotHeader = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer srv.Close()

			st := session.New(storage.NewMemory())
			if tt.token != "" {
				st.SetAuth(&model.UserInfo{ID: "1", Email: "a@b.com", DisplayName: "A"}, tt.token)
			}

			c := api.NewClient(srv.URL, st)
			var out map[string]bool
			if err := c.Get(context.Background(), "/ping", &out); err != nil {
				t.Fatalf("Get: %v", err)
			}
			if gotHeader != tt.wantHeader {
				t.Errorf("Authorization = %q, want %q", gotHeader, tt.wantHeader)
			}
		})
	}
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	st := authedSession(t, "abc")

	cache := query.NewCache()
	cache.Set("items/list", []string{"cached"})

	var navigated string
	c := api.NewClient(srv.URL, st,
		api.OnUnauthorized(cache.Clear),
		api.OnUnauthorized(func() { navigated = "login" }),
	)

	err := c.Get(context.Background(), "/auth/me", nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !api.IsAuthFailure(err) {
		t.Errorf("IsAuthFailure(%v) = false, want true", err)
	}

	// The session is cleared and the hooks have run before the caller sees
	// the error.
	if s := st.Current(); s.Authenticated || s.Token != "" {
		t.Errorf("session not cleared after 401: %+v", s)
	}
	if cache.Len() != 0 {
		t.Errorf("query cache not cleared after 401: %d entries", cache.Len())
	}
	if navigated != "login" {
		t.Errorf("navigation hook not run, navigated = %q", navigated)
	}
}

func TestUnauthorizedOnAnyEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	st := authedSession(t, "abc")
	c := api.NewClient(srv.URL, st)

	if err := c.Post(context.Background(), "/items", map[string]string{"name": "x"}, nil); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if st.Current().Authenticated {
		t.Errorf("401 on a non-auth endpoint did not clear the session")
	}
}

func TestOtherErrorsPropagateUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	st := authedSession(t, "abc")
	c := api.NewClient(srv.URL, st)

	err := c.Get(context.Background(), "/items", nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if api.IsAuthFailure(err) {
		t.Errorf("500 classified as auth failure")
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *api.Error: %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "boom" {
		t.Errorf("got %d/%q, want 500/%q", apiErr.StatusCode, apiErr.Message, "boom")
	}

	// Non-401 failures leave the session alone.
	if !st.Current().Authenticated {
		t.Errorf("session cleared by non-401 error")
	}
}

func TestNetworkErrorWrapped(t *testing.T) {
	st := session.New(storage.NewMemory())
	c := api.NewClient("http://127.0.0.1:1", st)

	err := c.Get(context.Background(), "/items", nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if api.IsAuthFailure(err) {
		t.Errorf("network error classified as auth failure")
	}
}

func TestResponseDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"7","name":"screwdriver"}`))
	}))
	defer srv.Close()

	st := session.New(storage.NewMemory())
	c := api.NewClient(srv.URL, st)

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.Get(context.Background(), "/items/7", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.ID != "7" || out.Name != "screwdriver" {
		t.Errorf("decoded %+v", out)
	}
}
