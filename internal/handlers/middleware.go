package handlers

import (
	"net/http"
	"strings"

	lf "lost_and_found"
	"lost_and_found/internal/models"
	"lost_and_found/internal/security"

	"github.com/gin-gonic/gin"
)

// Keys stored in the gin context by authenticate.
const (
	ctxUserID   = "userId"
	ctxRole     = "role"
	ctxIdentity = "identity"
)

// sessionToken returns the token from the auth_token cookie, falling back
// to an Authorization: Bearer header. ok is false for a malformed header.
func sessionToken(c *gin.Context) (token string, ok bool) {
	if v, err := c.Cookie(sessionCookieName); err == nil && v != "" {
		return v, true
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", true
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func (h *Handler) authenticate(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, lf.ErrorResponse{
			Error: "invalid Authorization header format",
		})
		return
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, lf.ErrorResponse{
			Error: "missing session token",
		})
		return
	}

	id, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("session_rejected", "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, lf.ErrorResponse{
			Error: "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUserID, id.SubjectID)
	c.Set(ctxRole, id.Role)
	c.Set(ctxIdentity, id)
	c.Next()
}

// requireRole rejects sessions whose role differs from role. It must run after authenticate.
func (h *Handler) requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, _ := c.Get(ctxRole)
		if r, ok := got.(models.Role); !ok || r != role {
			c.AbortWithStatusJSON(http.StatusForbidden, lf.ErrorResponse{Error: "forbidden"})
			return
		}
		c.Next()
	}
}

// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  lost_and_found.MeResponse
// @Failure      401  {object}  lost_and_found.ErrorResponse
// @Router       /api/v1/me [get]
// @Security     CookieAuth
// @Security     BearerAuth
func (h *Handler) me(c *gin.Context) {
	v, _ := c.Get(ctxIdentity)
	id, _ := v.(security.Identity)
	c.JSON(http.StatusOK, lf.MeResponse{ID: id.SubjectID, Role: id.Role, ExpiresAt: id.ExpiresAt})
}
