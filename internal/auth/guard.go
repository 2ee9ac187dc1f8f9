package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/api"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
)

const currentUserKey = "current_user"

// Auth error messages
const (
	MsgNotAuthenticated   = "Not authenticated"
	MsgInvalidCredentials = "Could not validate credentials"
	MsgInactiveUser       = "Inactive user"
	MsgNotEnoughPrivilege = "The user doesn't have enough privileges"
)

// Guard resolves bearer tokens to users
type Guard struct {
	tokens *TokenManager
	db     *gorm.DB
}

// NewGuard creates a guard over the user table
func NewGuard(tokens *TokenManager, db *gorm.DB) *Guard {
	return &Guard{tokens: tokens, db: db}
}

// Tokens returns the guard's token manager
func (g *Guard) Tokens() *TokenManager {
	return g.tokens
}

// RequireUser rejects the request unless it carries a valid token of an active user
func (g *Guard) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireSuperuser rejects the request unless the active user is a superuser
func (g *Guard) RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := g.authenticate(c)
		if !ok {
			return
		}
		if !user.IsSuperuser {
			api.RespondWithError(c, types.NewForbiddenError(MsgNotEnoughPrivilege))
			return
		}
		c.Next()
	}
}

func (g *Guard) authenticate(c *gin.Context) (*database.User, bool) {
	raw := bearerToken(c)
	if raw == "" {
		api.RespondWithError(c, types.NewUnauthorizedError(MsgNotAuthenticated))
		return nil, false
	}

	userID, err := g.tokens.Validate(raw)
	if err != nil {
		api.RespondWithError(c, types.NewUnauthorizedError(MsgInvalidCredentials))
		return nil, false
	}

	var user database.User
	if err := g.db.WithContext(c.Request.Context()).Where("id = ?", userID).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			api.RespondWithError(c, types.NewUnauthorizedError(MsgInvalidCredentials))
		} else {
			api.RespondWithError(c, types.NewInternalError("failed to load user", err))
		}
		return nil, false
	}

	if !user.IsActive {
		api.RespondWithError(c, types.NewValidationError(MsgInactiveUser))
		return nil, false
	}

	c.Set(currentUserKey, &user)
	return &user, true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CurrentUser returns the user attached by the guard
func CurrentUser(c *gin.Context) (*database.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*database.User)
	return user, ok
}
