package stubapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopfront/model"
)

const refreshCookie = "refreshToken"

type registerRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if _, err := h.store.CreateAccount(req.FullName, req.Email, hash, model.UserRoleBuyer); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEmailTaken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "registration successful"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	profile, hash, err := h.store.AccountByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": ErrWrongPassword.Error()})
		return
	}
	ok, err := VerifyPassword(req.Password, hash)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": ErrWrongPassword.Error()})
		return
	}
	if profile.Status != model.UserStatusActive {
		c.JSON(http.StatusForbidden, gin.H{"message": "account suspended"})
		return
	}

	h.issueTokens(c, profile)
}

// issueTokens mints the access token and installs the httpOnly refresh
// cookie the refresh endpoint relies on.
func (h HandlerSet) issueTokens(c *gin.Context, profile model.UserProfile) {
	access, err := mintAccessToken(h.cfg.Security.JWTSecret, profile.ID, profile.Role, h.cfg.Security.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	refresh, refreshHash, err := newRefreshToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	sessionID := h.store.CreateSession(profile.ID, refreshHash, h.cfg.Security.RefreshTTL)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, sessionID+":"+refresh, int(h.cfg.Security.RefreshTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

func (h HandlerSet) refresh(c *gin.Context) {
	raw, err := c.Cookie(refreshCookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing refresh cookie"})
		return
	}
	sessionID, token, found := strings.Cut(raw, ":")
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "malformed refresh cookie"})
		return
	}

	next, nextHash, err := newRefreshToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	userID, err := h.store.RotateSession(sessionID, hashRefreshToken(token), nextHash, h.cfg.Security.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid refresh session"})
		return
	}

	profile, ok := h.store.UserByID(userID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unknown user"})
		return
	}

	access, err := mintAccessToken(h.cfg.Security.JWTSecret, profile.ID, profile.Role, h.cfg.Security.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, sessionID+":"+next, int(h.cfg.Security.RefreshTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

func (h HandlerSet) logout(c *gin.Context) {
	if raw, err := c.Cookie(refreshCookie); err == nil {
		if sessionID, _, found := strings.Cut(raw, ":"); found {
			h.store.DeleteSession(sessionID)
		}
	}
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ---- middleware ----

const currentUserKey = "current_user"

func (h HandlerSet) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}

		claims, err := parseAccessToken(strings.TrimPrefix(authHeader, "Bearer "), h.cfg.Security.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		user, ok := h.store.UserByID(claims.UserID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unknown user"})
			return
		}
		if user.Status != model.UserStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "account suspended"})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func requireRoles(roles ...model.UserRole) gin.HandlerFunc {
	roleSet := make(map[model.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user := currentUser(c)
		if _, ok := roleSet[user.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) model.UserProfile {
	val, _ := c.Get(currentUserKey)
	user, _ := val.(model.UserProfile)
	return user
}
