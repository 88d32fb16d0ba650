package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "airadmin_session"
	sessionContextKey = "airadmin.session"
)

// SessionStore keeps login sessions between requests.
type SessionStore interface {
	CreateSession(ctx context.Context, s domain.Session) (*domain.Session, error)
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// RequestLogger logs one line per request, skipping probes.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if path == "/healthz" || path == "/metrics" {
			c.Next()
			return
		}

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		}
		if s := sessionFrom(c); s != nil {
			fields = append(fields, zap.String("user", s.UserID))
		}

		for _, ginErr := range c.Errors.ByType(gin.ErrorTypeAny) {
			log.Warn("request error", append(fields, zap.Error(ginErr.Err))...)
		}

		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("server error", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("client error", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

// loadSession attaches the caller's session, if any, to the gin context and
// tags the request context with the acting user.
func (h *Handler) loadSession(c *gin.Context) {
	token, err := c.Cookie(sessionCookieName)
	if err != nil || token == "" {
		c.Next()
		return
	}

	s, err := h.sessions.GetSession(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("session lookup failed", zap.Error(err))
		}
		h.clearSessionCookie(c)
		c.Next()
		return
	}

	c.Set(sessionContextKey, s)
	c.Request = c.Request.WithContext(domain.WithActor(c.Request.Context(), s.UserID))
	c.Next()
}

func (h *Handler) requireLogin(c *gin.Context) {
	if sessionFrom(c) == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) requireAdmin(c *gin.Context) {
	s := sessionFrom(c)
	if s == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	if !s.IsAdmin {
		h.denyAdmin(c)
		return
	}

	// The session remembers the role held at login; a demotion since then
	// must take effect right away.
	user, err := h.users.Get(c.Request.Context(), s.UserID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.revokeSessions(c, s.UserID)
		h.clearSessionCookie(c)
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	case err != nil:
		h.flashError(c, err, "")
		c.Redirect(http.StatusFound, "/users")
		c.Abort()
		return
	case !user.Role.IsAdmin:
		h.denyAdmin(c)
		return
	}
	c.Next()
}

func (h *Handler) denyAdmin(c *gin.Context) {
	h.flash.add(c, flashDanger, "Only administrators can manage users.")
	c.Redirect(http.StatusFound, "/users")
	c.Abort()
}

// revokeSessions logs userID out of every open session. Failures are logged
// and the session expires on its own.
func (h *Handler) revokeSessions(c *gin.Context, userID string) {
	if err := h.sessions.DeleteUserSessions(c.Request.Context(), userID); err != nil {
		h.logger.Warn("revoke sessions failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func sessionFrom(c *gin.Context) *domain.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*domain.Session)
	return s
}

func (h *Handler) setSessionCookie(c *gin.Context, s *domain.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, s.Token, maxAge, "/", "", h.secureCookies, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookieName, "", -1, "/", "", h.secureCookies, true)
}
