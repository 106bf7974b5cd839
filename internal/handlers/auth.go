package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/14kear/online_voting/polls-service/internal/domain/models"
	"github.com/14kear/online_voting/polls-service/internal/lib/jwt"
	"github.com/14kear/online_voting/polls-service/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (jwt.TokenPair, models.User, error)
	Login(ctx context.Context, email, password string) (jwt.TokenPair, models.User, error)
	Refresh(ctx context.Context, refreshToken string) (jwt.TokenPair, models.User, error)
	SearchUsers(ctx context.Context, prefix string) ([]models.UserRef, error)
}

// CookieConfig controls how tokens are mirrored into httpOnly cookies.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthHandler struct {
	log     *slog.Logger
	auth    AuthService
	cookies CookieConfig
}

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         models.Identity `json:"user"`
}

func NewAuthHandler(log *slog.Logger, auth AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{log: log, auth: auth, cookies: cookies}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pair, user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.respondWithTokens(c, http.StatusCreated, pair, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pair, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.respondWithTokens(c, http.StatusOK, pair, user)
}

// Refresh accepts the refresh token from the cookie, the X-Refresh-Token
// header or the JSON body, in that order.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)
	if refreshToken == "" {
		refreshToken = strings.TrimSpace(c.GetHeader("X-Refresh-Token"))
	}
	if refreshToken == "" && c.Request.ContentLength != 0 {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}

	if refreshToken == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}

	pair, user, err := h.auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.clearCookies(c)
		writeError(c, h.log, err)
		return
	}

	h.respondWithTokens(c, http.StatusOK, pair, user)
}

// Logout only clears the cookies. Issued tokens stay valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) SearchUsers(c *gin.Context) {
	users, err := h.auth.SearchUsers(c.Request.Context(), c.Query("email"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, pair jwt.TokenPair, user models.User) {
	h.setCookie(c, middleware.AccessTokenCookie, pair.AccessToken, h.cookies.AccessTTL)
	h.setCookie(c, middleware.RefreshTokenCookie, pair.RefreshToken, h.cookies.RefreshTTL)

	c.JSON(status, authResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Identity(),
	})
}

func (h *AuthHandler) clearCookies(c *gin.Context) {
	h.setCookie(c, middleware.AccessTokenCookie, "", -1)
	h.setCookie(c, middleware.RefreshTokenCookie, "", -1)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}

	// cross-site cookies need SameSite=None, which browsers only accept with Secure
	if h.cookies.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(name, value, maxAge, "/", "", h.cookies.Secure, true)
}
