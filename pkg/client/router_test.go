package client_test

import (
	"testing"

	"github.com/NicolasHaas/itemtrack/pkg/client"
	"github.com/NicolasHaas/itemtrack/pkg/model"
	"github.com/NicolasHaas/itemtrack/pkg/session"
	"github.com/NicolasHaas/itemtrack/pkg/storage"
)

func newTestRouter(sess *session.Store) (*client.Router, *[]string) {
	var shown []string
	r := client.NewRouter(sess, func(route string) {
		shown = append(shown, route)
	})
	r.Register(client.RouteLogin, false)
	r.Register(client.RouteRegister, false)
	r.Register(client.RouteItems, true)
	return r, &shown
}

func TestGuardRedirectsUnauthenticated(t *testing.T) {
	sess := session.New(storage.NewMemory())
	r, shown := newTestRouter(sess)

	r.Navigate(client.RouteItems)

	if r.Current() != client.RouteLogin {
		t.Errorf("Current() = %q, want %q", r.Current(), client.RouteLogin)
	}
	if len(*shown) != 1 || (*shown)[0] != client.RouteLogin {
		t.Errorf("shown = %v, want [login]", *shown)
	}
}

func TestGuardAllowsAuthenticated(t *testing.T) {
	sess := session.New(storage.NewMemory())
	sess.SetAuth(&model.UserInfo{ID: "1", Email: "a@b.com"}, "tkn1")
	r, _ := newTestRouter(sess)

	r.Navigate(client.RouteItems)

	if r.Current() != client.RouteItems {
		t.Errorf("Current() = %q, want %q", r.Current(), client.RouteItems)
	}
}

func TestGuardReevaluatesAfterClear(t *testing.T) {
	sess := session.New(storage.NewMemory())
	sess.SetAuth(&model.UserInfo{ID: "1", Email: "a@b.com"}, "tkn1")
	r, _ := newTestRouter(sess)

	r.Navigate(client.RouteItems)
	if r.Current() != client.RouteItems {
		t.Fatalf("Current() = %q, want %q", r.Current(), client.RouteItems)
	}

	// The guard runs on every navigation, so a session cleared mid-flight
	// blocks the next protected entry.
	sess.ClearAuth()
	r.Navigate(client.RouteItems)
	if r.Current() != client.RouteLogin {
		t.Errorf("Current() = %q after clear, want %q", r.Current(), client.RouteLogin)
	}
}

func TestPublicRoutesAlwaysReachable(t *testing.T) {
	sess := session.New(storage.NewMemory())
	r, _ := newTestRouter(sess)

	for _, route := range []string{client.RouteLogin, client.RouteRegister} {
		r.Navigate(route)
		if r.Current() != route {
			t.Errorf("Current() = %q, want %q", r.Current(), route)
		}
	}
}

func TestUnknownRouteFallsBackToLogin(t *testing.T) {
	sess := session.New(storage.NewMemory())
	r, _ := newTestRouter(sess)

	r.Navigate("settings")

	if r.Current() != client.RouteLogin {
		t.Errorf("Current() = %q, want %q", r.Current(), client.RouteLogin)
	}
}
