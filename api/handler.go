package api

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/Domenick1991/airadmin/config"
	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/Domenick1991/airadmin/internal/service/airports"
	"github.com/Domenick1991/airadmin/internal/service/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

const recentEventsLimit = 10

const dbErrorMessage = "Error with the database connection. Please check the server logs and the database section of the config file."

// AuditLog lists recently persisted audit events for the welcome page.
type AuditLog interface {
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}

// Handler serves the HTML administration pages.
type Handler struct {
	airports      airports.AirportUseCase
	users         users.UserUseCase
	sessions      SessionStore
	audit         AuditLog
	logger        *zap.Logger
	flash         flasher
	secureCookies bool
}

type Option func(*Handler)

func WithAuditLog(audit AuditLog) Option {
	return func(h *Handler) { h.audit = audit }
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func NewHandler(
	airportService airports.AirportUseCase,
	userService users.UserUseCase,
	sessions SessionStore,
	cfg config.AdminConfig,
	opts ...Option,
) *Handler {
	h := &Handler{
		airports:      airportService,
		users:         userService,
		sessions:      sessions,
		logger:        zap.NewNop(),
		flash:         flasher{secret: []byte(cfg.SessionSecret), secure: cfg.SecureCookies},
		secureCookies: cfg.SecureCookies,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"upper": strings.ToUpper,
	}).ParseFS(templatesFS, "templates/*.html")
}

// Register installs templates, session handling and every page route on r.
func (h *Handler) Register(r *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(h.loadSession)

	r.GET("/login", h.loginForm)
	r.POST("/login", h.login)
	r.GET("/logout", h.logout)

	authed := r.Group("/", h.requireLogin)
	authed.GET("/", h.index)

	authed.GET("/users", h.listUsers)
	authed.GET("/users/:userid", h.listSingleUser)
	authed.GET("/consolidated/users", h.listConsolidatedUsers)
	authed.GET("/user_stats", h.userStats)
	authed.GET("/users/search", h.searchForm)
	authed.POST("/users/search", h.searchUsers)

	admin := authed.Group("/", h.requireAdmin)
	admin.GET("/users/delete/:userid", h.deleteUser)
	admin.GET("/users/update", h.updateUserRedirect)
	admin.POST("/users/update", h.updateUser)
	admin.GET("/users/edit/:userid", h.editUserForm)
	admin.POST("/users/edit/:userid", h.updateUser)
	admin.GET("/users/add", h.addUserForm)
	admin.POST("/users/add", h.addUser)

	authed.GET("/airports", h.listAirports)
	authed.GET("/airports/add", h.addAirportForm)
	authed.POST("/airports/add", h.addAirport)
	authed.GET("/airports/remove/", h.removeAirportForm)
	authed.POST("/airports/remove/", h.removeAirportConfirm)
	authed.POST("/airports/remove/final/", h.removeAirportFinal)
	authed.GET("/airports/get_airport_by_id/", h.getAirportByID)
	authed.POST("/airports/get_airport_by_id/", h.getAirportByID)
	authed.GET("/airports/get_summary", h.airportSummary)
	for _, f := range airportUpdateForms {
		path := "/airports/update_" + f.slug + "/"
		authed.GET(path, h.updateAirportForm(f))
		authed.POST(path, h.updateAirport(f))
	}
	return nil
}

// render executes a page template with the common layout data: title,
// session and any pending flash messages.
func (h *Handler) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Session"] = sessionFrom(c)
	data["Flashes"] = h.pendingFlashes(c)
	c.HTML(status, name, data)
}

func (h *Handler) pendingFlashes(c *gin.Context) []FlashMessage {
	messages := h.flash.take(c)
	if v, ok := c.Get(flashContextKey); ok {
		messages = append(messages, v.([]FlashMessage)...)
		c.SetCookie(flashCookieName, "", -1, "/", "", h.secureCookies, true)
	}
	return messages
}

// flashError turns err into a user-facing flash message. notFound replaces
// the generic text for missing records; infrastructure and internal errors
// are logged and never shown verbatim.
func (h *Handler) flashError(c *gin.Context, err error, notFound string) {
	switch domain.OutcomeOf(err) {
	case domain.OutcomeNotFound:
		if notFound == "" {
			notFound = "The requested record does not exist."
		}
		h.flash.add(c, flashDanger, notFound)
	case domain.OutcomeValidation, domain.OutcomeAlreadyExists, domain.OutcomeConflict, domain.OutcomeForbidden:
		h.flash.add(c, flashDanger, err.Error())
	case domain.OutcomeNoChange:
		h.flash.add(c, flashWarning, "No changes made.")
	case domain.OutcomeUnauthenticated:
		h.flash.add(c, flashDanger, "There was an error logging you in")
	case domain.OutcomeUnavailable:
		h.logger.Error("data store unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
		h.flash.add(c, flashDanger, dbErrorMessage)
	default:
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		h.flash.add(c, flashDanger, "Something went wrong. Please try again.")
	}
}

func (h *Handler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}
