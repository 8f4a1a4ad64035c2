// Package router wires the HTTP surface of the service: the public
// redirect endpoint and the server-rendered pages for registration,
// login, and the dashboard.
package router

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/urlclip/internal/auth"
	"github.com/patric-chuzhbe/urlclip/internal/logger"
	"github.com/patric-chuzhbe/urlclip/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

// flashCookieName is the one-shot cookie carrying a message across a redirect.
const flashCookieName = "urlclip_flash"

type urlShortener interface {
	Shorten(ctx context.Context, originalURL, ownerID string) (*models.URL, error)
	Resolve(ctx context.Context, code string) (string, error)
	UserURLs(ctx context.Context, ownerID string) ([]models.DashboardRow, error)
	Ping(ctx context.Context) error
}

type authenticator interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	SetSessionCookie(response http.ResponseWriter, userID string) error
	ClearSessionCookie(response http.ResponseWriter)
	AuthenticateUser(h http.Handler) http.Handler
	RequireAuth(h http.Handler) http.Handler
}

type handler struct {
	service   urlShortener
	auth      authenticator
	templates *template.Template
}

type pageData struct {
	Flash         string
	Authenticated bool
	Rows          []models.DashboardRow
}

// New builds the chi router with logging and authentication middleware
// and all page and redirect routes attached.
func New(service urlShortener, theAuth authenticator) *chi.Mux {
	h := &handler{
		service:   service,
		auth:      theAuth,
		templates: template.Must(template.ParseFS(templateFiles, "templates/*.html")),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(theAuth.AuthenticateUser)

	router.Get(`/`, h.getIndex)
	router.Get(`/register`, h.getRegister)
	router.Post(`/register`, h.postRegister)
	router.Get(`/login`, h.getLogin)
	router.Post(`/login`, h.postLogin)
	router.Get(`/ping`, h.getPing)

	router.Group(func(protected chi.Router) {
		protected.Use(theAuth.RequireAuth)
		protected.Get(`/dashboard`, h.getDashboard)
		protected.Post(`/dashboard`, h.postDashboard)
		protected.Get(`/logout`, h.getLogout)
	})

	router.Get(`/{code}`, h.getRedirectToOriginalURL)

	return router
}

func (h *handler) getIndex(response http.ResponseWriter, request *http.Request) {
	_, authenticated := auth.UserIDFromContext(request.Context())
	h.render(response, "index.html", pageData{
		Flash:         popFlash(response, request),
		Authenticated: authenticated,
	})
}

func (h *handler) getRegister(response http.ResponseWriter, request *http.Request) {
	h.render(response, "register.html", pageData{Flash: popFlash(response, request)})
}

func (h *handler) postRegister(response http.ResponseWriter, request *http.Request) {
	email := request.FormValue("email")
	password := request.FormValue("password")
	if email == "" || password == "" {
		setFlash(response, "Email and password are required")
		http.Redirect(response, request, "/register", http.StatusFound)
		return
	}

	_, err := h.auth.Register(request.Context(), email, password)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			setFlash(response, "Email address already exists")
			http.Redirect(response, request, "/register", http.StatusFound)
			return
		}
		logger.Log.Debugln("Error calling the `h.auth.Register()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	setFlash(response, "Account created successfully")
	http.Redirect(response, request, "/login", http.StatusFound)
}

func (h *handler) getLogin(response http.ResponseWriter, request *http.Request) {
	h.render(response, "login.html", pageData{Flash: popFlash(response, request)})
}

func (h *handler) postLogin(response http.ResponseWriter, request *http.Request) {
	email := request.FormValue("email")
	password := request.FormValue("password")

	usr, err := h.auth.Login(request.Context(), email, password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			setFlash(response, "Invalid email or password")
			http.Redirect(response, request, "/login", http.StatusFound)
			return
		}
		logger.Log.Debugln("Error calling the `h.auth.Login()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := h.auth.SetSessionCookie(response, usr.ID); err != nil {
		logger.Log.Debugln("Error calling the `h.auth.SetSessionCookie()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, "/dashboard", http.StatusFound)
}

func (h *handler) getDashboard(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.UserIDFromContext(request.Context())

	rows, err := h.service.UserURLs(request.Context(), userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `h.service.UserURLs()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.render(response, "dashboard.html", pageData{
		Flash:         popFlash(response, request),
		Authenticated: true,
		Rows:          rows,
	})
}

func (h *handler) postDashboard(response http.ResponseWriter, request *http.Request) {
	userID, _ := auth.UserIDFromContext(request.Context())
	originalURL := request.FormValue("original_url")

	_, err := h.service.Shorten(request.Context(), originalURL, userID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidURL) {
			setFlash(response, "Please submit a valid http(s) URL")
			http.Redirect(response, request, "/dashboard", http.StatusFound)
			return
		}
		logger.Log.Debugln("Error calling the `h.service.Shorten()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	setFlash(response, "Short URL created successfully")
	http.Redirect(response, request, "/dashboard", http.StatusFound)
}

func (h *handler) getRedirectToOriginalURL(response http.ResponseWriter, request *http.Request) {
	code := chi.URLParam(request, "code")

	originalURL, err := h.service.Resolve(request.Context(), code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.NotFound(response, request)
			return
		}
		logger.Log.Debugln("Error calling the `h.service.Resolve()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, originalURL, http.StatusFound)
}

func (h *handler) getLogout(response http.ResponseWriter, request *http.Request) {
	h.auth.ClearSessionCookie(response)
	http.Redirect(response, request, "/", http.StatusFound)
}

func (h *handler) getPing(response http.ResponseWriter, request *http.Request) {
	if err := h.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `h.service.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (h *handler) render(response http.ResponseWriter, name string, data pageData) {
	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(response, name, data); err != nil {
		logger.Log.Debugln("Error calling the `h.templates.ExecuteTemplate()`: ", zap.Error(err))
	}
}

func setFlash(response http.ResponseWriter, message string) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:  flashCookieName,
			Value: url.QueryEscape(message),
			Path:  "/",
		},
	)
}

func popFlash(response http.ResponseWriter, request *http.Request) string {
	cookie, err := request.Cookie(flashCookieName)
	if err != nil {
		return ""
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:   flashCookieName,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		},
	)

	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}

	return message
}
