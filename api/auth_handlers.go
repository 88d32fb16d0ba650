package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) index(c *gin.Context) {
	data := gin.H{}
	if s := sessionFrom(c); s != nil && s.IsAdmin && h.audit != nil {
		events, err := h.audit.ListRecent(c.Request.Context(), recentEventsLimit)
		if err != nil {
			h.logger.Warn("failed to load recent audit events", zap.Error(err))
		}
		data["Events"] = events
	}
	h.render(c, http.StatusOK, "welcome.html", "Welcome", data)
}

func (h *Handler) loginForm(c *gin.Context) {
	if sessionFrom(c) != nil {
		h.redirect(c, "/")
		return
	}
	h.render(c, http.StatusOK, "login.html", "Login", nil)
}

func (h *Handler) login(c *gin.Context) {
	userID := strings.TrimSpace(c.PostForm("userid"))
	password := c.PostForm("password")

	user, err := h.users.Authenticate(c.Request.Context(), userID, password)
	if err != nil {
		h.flashError(c, err, "")
		h.redirect(c, "/login")
		return
	}

	s, err := h.sessions.CreateSession(c.Request.Context(), domain.Session{
		UserID:    user.ID,
		FirstName: user.FirstName,
		IsAdmin:   user.Role.IsAdmin,
	})
	if err != nil {
		h.logger.Error("failed to create session", zap.String("user", user.ID), zap.Error(err))
		h.flash.add(c, flashDanger, "There was an error logging you in")
		h.redirect(c, "/login")
		return
	}

	h.setSessionCookie(c, s)
	h.redirect(c, "/")
}

func (h *Handler) logout(c *gin.Context) {
	if s := sessionFrom(c); s != nil {
		if err := h.sessions.DeleteSession(c.Request.Context(), s.Token); err != nil {
			h.logger.Warn("failed to delete session", zap.Error(err))
		}
	}
	h.clearSessionCookie(c)
	h.flash.add(c, flashInfo, "You have been logged out")
	h.redirect(c, "/login")
}
