package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/NicolasHaas/itemtrack/pkg/auth"
	"github.com/NicolasHaas/itemtrack/pkg/model"
	"github.com/NicolasHaas/itemtrack/pkg/session"
)

// ErrBusy is returned when a login/register submission arrives while another
// is still in flight.
var ErrBusy = errors.New("client: a submission is already in flight")

// Engine orchestrates the login, register, and logout flows. The UI calls
// its methods from goroutines and listens on the callbacks; the engine owns
// no widgets.
type Engine struct {
	mu   sync.Mutex
	busy bool

	session *session.Store
	auth    *auth.Service
	router  *Router

	// Callbacks for UI updates
	OnAuthChange func(s session.Session)
	OnBusy       func(busy bool)
}

// NewEngine wires the session store, auth service, and router together.
func NewEngine(sess *session.Store, authSvc *auth.Service, router *Router) *Engine {
	return &Engine{
		session: sess,
		auth:    authSvc,
		router:  router,
	}
}

// Busy reports whether a submission is currently in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

func (e *Engine) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return false
	}
	e.busy = true
	e.notifyBusy(true)
	return true
}

func (e *Engine) end() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	e.notifyBusy(false)
}

// Login validates the submission locally, exchanges it for a token, writes
// the session, and navigates to the application root. On any failure the
// session is left untouched and the error goes back to the caller; the UI
// shows one generic message for rejected credentials and network failures
// alike.
func (e *Engine) Login(ctx context.Context, email, password string) error {
	if err := model.ValidateEmail(email); err != nil {
		return err
	}
	if err := model.ValidatePassword(password); err != nil {
		return err
	}

	if !e.begin() {
		return ErrBusy
	}
	defer e.end()

	resp, err := e.auth.Login(ctx, auth.LoginRequest{Email: email, Password: password})
	if err != nil {
		slog.Info("login failed", "err", err)
		return err
	}

	e.session.SetAuth(resp.User, resp.Token)
	slog.Info("logged in", "user", resp.User.Email)
	e.notifyAuthChange()
	e.router.Navigate(RouteItems)
	return nil
}

// Register validates the submission, creates the account, and navigates to
// the login screen. It never authenticates the session; the new account
// signs in through the normal login flow.
func (e *Engine) Register(ctx context.Context, email, password, displayName string) error {
	if err := model.ValidateEmail(email); err != nil {
		return err
	}
	if err := model.ValidatePassword(password); err != nil {
		return err
	}
	if err := model.ValidateDisplayName(displayName); err != nil {
		return err
	}

	if !e.begin() {
		return ErrBusy
	}
	defer e.end()

	req := auth.RegisterRequest{Email: email, Password: password, DisplayName: displayName}
	if _, err := e.auth.Register(ctx, req); err != nil {
		slog.Info("registration failed", "err", err)
		return err
	}

	slog.Info("registered", "email", email)
	e.router.Navigate(RouteLogin)
	return nil
}

// Logout notifies the server best-effort, then clears the local session and
// navigates to login regardless of the server's answer.
func (e *Engine) Logout(ctx context.Context) {
	if err := e.auth.Logout(ctx); err != nil {
		slog.Debug("logout notification failed", "err", err)
	}
	e.session.ClearAuth()
	e.notifyAuthChange()
	e.router.Navigate(RouteLogin)
}

func (e *Engine) notifyAuthChange() {
	if e.OnAuthChange != nil {
		e.OnAuthChange(e.session.Current())
	}
}

func (e *Engine) notifyBusy(busy bool) {
	if e.OnBusy != nil {
		e.OnBusy(busy)
	}
}
