package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contractor-desk/contractor-desk/internal/session"
	"github.com/contractor-desk/contractor-desk/internal/shared"
	"github.com/contractor-desk/contractor-desk/internal/view"
)

// Workspaces forgets per-session state on logout.
type Workspaces interface {
	Drop(sessionID string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	workspaces     Workspaces
}

// NewHandler constructs a Handler instance. workspaces may be nil.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, workspaces Workspaces) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		workspaces:     workspaces,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
}

// RequireLogin redirects anonymous requests to the login page.
func (h *Handler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.Authenticated(session.FromContext(r.Context())) {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authForm struct {
	Name  string
	Email string
}

type authPageData struct {
	Form  authForm
	Error string
	Field string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if session.Authenticated(session.FromContext(r.Context())) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/login.html", "Sign in", authPageData{}, http.StatusOK)
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	if session.Authenticated(session.FromContext(r.Context())) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/register.html", "Create account", authPageData{}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := authForm{Email: r.PostFormValue("email")}
	result, err := h.service.Login(r.Context(), form.Email, r.PostFormValue("password"))
	if err != nil {
		h.fail(w, r, "pages/login.html", "Sign in", form, err, "Login failed")
		return
	}
	h.signedIn(w, r, "Welcome back, "+displayName(result.User)+"!")
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := authForm{Name: r.PostFormValue("name"), Email: r.PostFormValue("email")}
	result, err := h.service.Register(r.Context(), form.Name, form.Email, r.PostFormValue("password"))
	if err != nil {
		h.fail(w, r, "pages/register.html", "Create account", form, err, "Registration failed")
		return
	}
	h.signedIn(w, r, "Welcome, "+displayName(result.User)+"!")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		h.logger.Warn("clear session store", slog.Any("error", err))
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if h.workspaces != nil {
			h.workspaces.Drop(sess.ID)
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) signedIn(w http.ResponseWriter, r *http.Request, greeting string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		// A desk left over from an earlier user of this browser session
		// must not leak into the new one, nor may the pre-login id survive.
		if h.workspaces != nil {
			h.workspaces.Drop(sess.ID)
		}
		h.sessionManager.Renew(sess)
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: greeting})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, template, title string, form authForm, err error, fallback string) {
	data := authPageData{Form: form, Error: shared.UserMessage(err, fallback)}
	status := http.StatusBadRequest
	var (
		verr *shared.ValidationError
		aerr *shared.AuthError
	)
	switch {
	case errors.As(err, &verr):
		data.Field = verr.Field
	case errors.As(err, &aerr):
		status = http.StatusUnauthorized
	default:
		h.logger.Error("authentication call failed", slog.Any("error", err))
		status = http.StatusBadGateway
	}
	h.render(w, r, template, title, data, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data authPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := h.csrfManager.EnsureToken(sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	body, err := h.templates.Bytes(template, viewData)
	if err != nil {
		h.logger.Error("render auth page", slog.Any("error", err), slog.String("template", template))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func displayName(u session.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
