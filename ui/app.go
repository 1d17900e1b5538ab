// Package ui provides the Fyne-based GUI for the Itemtrack client.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/itemtrack/pkg/api"
	"github.com/NicolasHaas/itemtrack/pkg/auth"
	"github.com/NicolasHaas/itemtrack/pkg/client"
	"github.com/NicolasHaas/itemtrack/pkg/crypto"
	"github.com/NicolasHaas/itemtrack/pkg/items"
	"github.com/NicolasHaas/itemtrack/pkg/model"
	"github.com/NicolasHaas/itemtrack/pkg/query"
	"github.com/NicolasHaas/itemtrack/pkg/session"
	"github.com/NicolasHaas/itemtrack/pkg/storage"
	"github.com/NicolasHaas/itemtrack/pkg/version"
)

// App is the main GUI application.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	started atomic.Bool

	settings *client.Settings
	session  *session.Store
	cache    *query.Cache
	router   *client.Router
	engine   *client.Engine
	itemsSvc *items.Service

	// Login view
	loginEmail    *widget.Entry
	loginPassword *widget.Entry
	loginError    *widget.Label
	loginBtn      *widget.Button
	loginView     fyne.CanvasObject

	// Register view
	regEmail    *widget.Entry
	regPassword *widget.Entry
	regName     *widget.Entry
	regError    *widget.Label
	regBtn      *widget.Button
	regView     fyne.CanvasObject

	// Items view
	welcomeLabel *widget.Label
	itemList     *widget.List
	itemStatus   *widget.Label
	itemsView    fyne.CanvasObject

	// State
	items []items.Item
}

// NewApp creates the Itemtrack GUI application and wires the session store,
// API client, services, router, and engine together.
func NewApp() *App {
	a := &App{
		fyneApp:  app.NewWithID("io.itemtrack.client"),
		settings: client.LoadSettings(),
		cache:    query.NewCache(),
	}

	a.session = session.New(a.buildSessionStorage())
	a.router = client.NewRouter(a.session, a.showRoute)
	a.router.Register(client.RouteLogin, false)
	a.router.Register(client.RouteRegister, false)
	a.router.Register(client.RouteItems, true)

	// A 401 on any call clears the session (inside the client), drops the
	// query cache, and forces navigation back to login.
	apiClient := api.NewClient(a.settings.ServerURL, a.session,
		api.OnUnauthorized(a.cache.Clear),
		api.OnUnauthorized(func() { a.router.Navigate(client.RouteLogin) }),
	)

	a.engine = client.NewEngine(a.session, auth.NewService(apiClient), a.router)
	a.itemsSvc = items.NewService(apiClient, a.cache)

	a.window = a.fyneApp.NewWindow("Itemtrack")
	a.window.Resize(fyne.NewSize(700, 500))
	a.window.SetMaster()
	return a
}

// buildSessionStorage picks the snapshot backend from settings, falling back
// to the plaintext file backend when a fancier one cannot be set up.
func (a *App) buildSessionStorage() session.Storage {
	dir := client.DataDir()

	switch a.settings.SessionBackend {
	case client.BackendSQLite:
		st, err := storage.NewSQLite(filepath.Join(dir, "itemtrack.db"))
		if err == nil {
			return st
		}
		slog.Error("open sqlite snapshot backend, falling back to file", "err", err)
	case client.BackendFile:
		if a.settings.EncryptSnapshot {
			st, err := a.buildEncryptedStorage(dir)
			if err == nil {
				return st
			}
			slog.Error("set up encrypted snapshot backend, falling back to file", "err", err)
		}
	}

	return storage.NewFile(filepath.Join(dir, "session.yaml"))
}

func (a *App) buildEncryptedStorage(dir string) (session.Storage, error) {
	key, err := crypto.LoadOrCreateKey(filepath.Join(dir, "session.key"))
	if err != nil {
		return nil, err
	}
	return storage.NewEncryptedFile(filepath.Join(dir, "session.bin"), key)
}

// Run starts the GUI application (blocks). The first screen honors the
// rehydrated session: a persisted sign-in lands on the items view, anything
// else on login.
func (a *App) Run() {
	a.buildViews()
	a.bindEvents()

	initial := client.RouteLogin
	if a.session.Current().Authenticated {
		initial = client.RouteItems
	}
	a.router.Navigate(initial)
	a.started.Store(true)

	a.window.ShowAndRun()
}

// showRoute is the router's render hook. Navigation can be triggered from
// request goroutines, so content swaps are marshaled onto the UI thread once
// the app is running.
func (a *App) showRoute(route string) {
	if !a.started.Load() {
		a.setContent(route)
		return
	}
	fyne.Do(func() { a.setContent(route) })
}

func (a *App) setContent(route string) {
	switch route {
	case client.RouteRegister:
		a.window.SetContent(a.regView)
	case client.RouteItems:
		a.window.SetContent(a.itemsView)
		a.refreshWelcome()
		go a.refreshItems()
	default:
		a.window.SetContent(a.loginView)
	}
}

func (a *App) buildViews() {
	a.loginView = a.buildLoginView()
	a.regView = a.buildRegisterView()
	a.itemsView = a.buildItemsView()
}

func (a *App) bindEvents() {
	a.engine.OnBusy = func(busy bool) {
		fyne.Do(func() {
			if busy {
				a.loginBtn.Disable()
				a.regBtn.Disable()
			} else {
				a.loginBtn.Enable()
				a.regBtn.Enable()
			}
		})
	}

	a.engine.OnAuthChange = func(s session.Session) {
		fyne.Do(func() { a.refreshWelcome() })
	}
}

// ----- Login -----

func (a *App) buildLoginView() fyne.CanvasObject {
	a.loginEmail = widget.NewEntry()
	a.loginEmail.SetPlaceHolder("you@example.com")

	a.loginPassword = widget.NewPasswordEntry()
	a.loginPassword.SetPlaceHolder("Password")

	a.loginError = widget.NewLabel("")
	a.loginError.Importance = widget.DangerImportance
	a.loginError.Hide()

	a.loginBtn = widget.NewButtonWithIcon("Sign In", theme.LoginIcon(), a.submitLogin)
	a.loginPassword.OnSubmitted = func(string) { a.submitLogin() }

	registerLink := widget.NewButton("Need an account? Register", func() {
		a.router.Navigate(client.RouteRegister)
	})
	registerLink.Importance = widget.LowImportance

	form := container.NewVBox(
		widget.NewLabelWithStyle("Sign in to Itemtrack", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Email"),
		a.loginEmail,
		widget.NewLabel("Password"),
		a.loginPassword,
		a.loginError,
		a.loginBtn,
		registerLink,
	)

	return container.NewCenter(container.New(layout.NewGridWrapLayout(fyne.NewSize(320, 340)), form))
}

func (a *App) submitLogin() {
	email := strings.TrimSpace(a.loginEmail.Text)
	password := a.loginPassword.Text
	a.loginError.Hide()

	go func() {
		err := a.engine.Login(context.Background(), email, password)
		if err == nil {
			return
		}
		fyne.Do(func() {
			// Required-field problems get the specific message; everything
			// that reached the network gets one generic line.
			switch {
			case model.IsValidationError(err):
				a.loginError.SetText(err.Error())
			default:
				a.loginError.SetText("Login failed. Check your credentials and try again.")
			}
			a.loginError.Show()
		})
	}()
}

// ----- Register -----

func (a *App) buildRegisterView() fyne.CanvasObject {
	a.regEmail = widget.NewEntry()
	a.regEmail.SetPlaceHolder("you@example.com")

	a.regPassword = widget.NewPasswordEntry()
	a.regPassword.SetPlaceHolder("Password")

	a.regName = widget.NewEntry()
	a.regName.SetPlaceHolder("Display name")

	a.regError = widget.NewLabel("")
	a.regError.Importance = widget.DangerImportance
	a.regError.Hide()

	a.regBtn = widget.NewButtonWithIcon("Create Account", theme.ConfirmIcon(), a.submitRegister)

	loginLink := widget.NewButton("Already registered? Sign in", func() {
		a.router.Navigate(client.RouteLogin)
	})
	loginLink.Importance = widget.LowImportance

	form := container.NewVBox(
		widget.NewLabelWithStyle("Create your account", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Email"),
		a.regEmail,
		widget.NewLabel("Password"),
		a.regPassword,
		widget.NewLabel("Display name"),
		a.regName,
		a.regError,
		a.regBtn,
		loginLink,
	)

	return container.NewCenter(container.New(layout.NewGridWrapLayout(fyne.NewSize(320, 400)), form))
}

func (a *App) submitRegister() {
	email := strings.TrimSpace(a.regEmail.Text)
	password := a.regPassword.Text
	name := strings.TrimSpace(a.regName.Text)
	a.regError.Hide()

	go func() {
		// Registration lands on the login screen; it never signs the new
		// account in.
		err := a.engine.Register(context.Background(), email, password, name)
		if err == nil {
			return
		}
		fyne.Do(func() {
			switch {
			case model.IsValidationError(err):
				a.regError.SetText(err.Error())
			default:
				a.regError.SetText("Registration failed. Please try again.")
			}
			a.regError.Show()
		})
	}()
}

// ----- Items (protected root) -----

func (a *App) buildItemsView() fyne.CanvasObject {
	a.welcomeLabel = widget.NewLabel("")
	a.welcomeLabel.TextStyle = fyne.TextStyle{Bold: true}

	logoutBtn := widget.NewButtonWithIcon("Sign Out", theme.LogoutIcon(), func() {
		go a.engine.Logout(context.Background())
	})

	refreshBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		a.cache.Clear()
		go a.refreshItems()
	})

	toolbar := container.NewHBox(a.welcomeLabel, layout.NewSpacer(), refreshBtn, logoutBtn)

	a.itemList = widget.NewList(
		func() int { return len(a.items) },
		func() fyne.CanvasObject {
			name := widget.NewLabel("item placeholder")
			qty := widget.NewLabel("x0")
			delBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
			delBtn.Importance = widget.LowImportance
			return container.NewHBox(name, layout.NewSpacer(), qty, delBtn)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			a.updateItemRow(id, obj)
		},
	)

	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("New item name")
	qtyEntry := widget.NewEntry()
	qtyEntry.SetText("1")
	addBtn := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), func() {
		name := strings.TrimSpace(nameEntry.Text)
		if name == "" {
			return
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyEntry.Text))
		if err != nil || qty < 0 {
			qty = 1
		}
		nameEntry.SetText("")
		go a.createItem(name, qty)
	})
	addBar := container.NewBorder(nil, nil, nil,
		container.NewHBox(container.New(layout.NewGridWrapLayout(fyne.NewSize(60, 36)), qtyEntry), addBtn),
		nameEntry,
	)

	a.itemStatus = widget.NewLabel("")
	a.itemStatus.TextStyle = fyne.TextStyle{Italic: true}

	versionLabel := widget.NewLabel(version.String())
	versionLabel.TextStyle = fyne.TextStyle{Italic: true}
	versionLabel.Importance = widget.LowImportance
	statusBar := container.NewHBox(a.itemStatus, layout.NewSpacer(), versionLabel)

	return container.NewBorder(
		container.NewVBox(toolbar, widget.NewSeparator()),
		container.NewVBox(addBar, statusBar),
		nil, nil,
		a.itemList,
	)
}

func (a *App) updateItemRow(id widget.ListItemID, obj fyne.CanvasObject) {
	if id >= len(a.items) {
		return
	}
	item := a.items[id]

	box := obj.(*fyne.Container)
	name := box.Objects[0].(*widget.Label)
	// Objects[1] is layout spacer
	qty := box.Objects[2].(*widget.Label)
	delBtn := box.Objects[3].(*widget.Button)

	name.SetText(item.Name)
	qty.SetText(fmt.Sprintf("x%d", item.Quantity))
	delBtn.OnTapped = func() {
		dialog.ShowConfirm("Delete Item", fmt.Sprintf("Delete %q?", item.Name), func(ok bool) {
			if ok {
				go a.deleteItem(item.ID)
			}
		}, a.window)
	}
}

func (a *App) refreshWelcome() {
	s := a.session.Current()
	if s.User != nil {
		a.welcomeLabel.SetText(fmt.Sprintf("Items (%s)", s.User.DisplayName))
	} else {
		a.welcomeLabel.SetText("Items")
	}
}

func (a *App) refreshItems() {
	list, err := a.itemsSvc.List(context.Background())
	if err != nil {
		// A 401 already cleared the session and navigated away.
		if !api.IsAuthFailure(err) {
			slog.Error("load items", "err", err)
			fyne.Do(func() { a.itemStatus.SetText("Could not load items.") })
		}
		return
	}
	fyne.Do(func() {
		a.items = list
		a.itemStatus.SetText(fmt.Sprintf("%d items", len(list)))
		a.itemList.Refresh()
	})
}

func (a *App) createItem(name string, qty int) {
	if _, err := a.itemsSvc.Create(context.Background(), items.CreateRequest{Name: name, Quantity: qty}); err != nil {
		if !api.IsAuthFailure(err) {
			slog.Error("create item", "err", err)
			fyne.Do(func() { a.itemStatus.SetText("Could not add item.") })
		}
		return
	}
	a.refreshItems()
}

func (a *App) deleteItem(id string) {
	if err := a.itemsSvc.Delete(context.Background(), id); err != nil {
		if !api.IsAuthFailure(err) {
			slog.Error("delete item", "err", err)
			fyne.Do(func() { a.itemStatus.SetText("Could not delete item.") })
		}
		return
	}
	a.refreshItems()
}

