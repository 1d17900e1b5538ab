// Package client implements the Itemtrack client flows: navigation with its
// authentication guard, and the login/register/logout orchestration the UI
// drives.
package client

import (
	"log/slog"
	"sync"

	"github.com/NicolasHaas/itemtrack/pkg/session"
)

// Route names. RouteItems is the protected application root; login and
// register are public.
const (
	RouteLogin    = "login"
	RouteRegister = "register"
	RouteItems    = "items"
)

// ShowFunc renders a route. The UI supplies one that swaps the window
// content; tests supply a recorder.
type ShowFunc func(route string)

// Router decides which screen is visible. Entering a protected route is
// gated on the session store: an unauthenticated visitor is sent to login
// instead. The check runs on every navigation, so a session cleared
// mid-flight blocks the next protected entry. It reads only local state; a
// server-side revocation is caught by the next API call, not here.
type Router struct {
	mu        sync.Mutex
	session   *session.Store
	show      ShowFunc
	protected map[string]bool
	current   string
}

// NewRouter creates a router over the given session store.
func NewRouter(sess *session.Store, show ShowFunc) *Router {
	return &Router{
		session:   sess,
		show:      show,
		protected: make(map[string]bool),
	}
}

// Register declares a route and whether it sits behind the auth guard.
func (r *Router) Register(route string, protected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.protected[route] = protected
}

// Navigate shows the named route, redirecting to login when the route is
// protected and no authenticated session is held. The guard performs no
// network call and cannot fail; it only redirects.
func (r *Router) Navigate(route string) {
	r.mu.Lock()
	protected, known := r.protected[route]
	r.mu.Unlock()

	if !known {
		slog.Warn("router: unknown route", "route", route)
		route = RouteLogin
	} else if protected && !r.session.Current().Authenticated {
		slog.Debug("router: unauthenticated, redirecting to login", "wanted", route)
		route = RouteLogin
	}

	r.mu.Lock()
	r.current = route
	show := r.show
	r.mu.Unlock()

	if show != nil {
		show(route)
	}
}

// Current returns the route shown by the last Navigate call.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
