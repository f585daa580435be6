package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/HSL-KM/class-registration-service/internal/config"
	"github.com/HSL-KM/class-registration-service/internal/repositories"
	"github.com/HSL-KM/class-registration-service/internal/services"
)

const identityContextKey = "identity"

// CasdoorAuthMiddleware authenticates requests with Casdoor-issued tokens and
// resolves the caller against the local user table. The portal's source of
// truth for roles and admin levels is the database, not the token.
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
	config   config.CasdoorConfig
}

// NewCasdoorAuthMiddleware creates the authentication middleware.
func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Application,
		cfg.Organization,
	)

	return &CasdoorAuthMiddleware{
		client:   client,
		userRepo: userRepo,
		config:   cfg,
	}
}

// AuthMiddleware validates the bearer token and stores the caller's Identity
// in the Gin context. Requests from deactivated accounts are rejected here so
// no handler has to re-check the flag.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header missing")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := cam.client.ParseJwtToken(tokenParts[1])
		if err != nil {
			abortUnauthorized(c, fmt.Sprintf("invalid token: %v", err))
			return
		}

		email := strings.ToLower(strings.TrimSpace(claims.User.Email))
		if email == "" {
			abortUnauthorized(c, "token carries no email")
			return
		}

		identity := services.Identity{
			Name:      claims.User.DisplayName,
			Email:     email,
			IPAddress: c.ClientIP(),
		}

		// A user row may not exist yet: the check-or-create endpoint is the
		// first authenticated call after the OAuth callback.
		user, err := cam.userRepo.GetByEmail(c.Request.Context(), nil, email)
		if err == nil {
			if !user.IsActive {
				c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: "user account is disabled"})
				c.Abort()
				return
			}
			identity.UserID = &user.ID
			identity.Roles = user.RoleNames()
			identity.AdminLevel = user.AdminLevel()
			if user.Name != "" {
				identity.Name = user.Name
			}
		} else if !repositories.IsNotFoundError(err) {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "something went wrong"})
			c.Abort()
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// RequireAdmin allows only callers holding an admin permission.
func (cam *CasdoorAuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return cam.RequireAdminLevel(1)
}

// RequireAdminLevel allows only admins at or above the given sub-level.
func (cam *CasdoorAuthMiddleware) RequireAdminLevel(minLevel int) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok || identity.AdminLevel < minLevel {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "forbidden",
				Message: "insufficient permissions",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFromContext returns the authenticated caller set by AuthMiddleware.
func IdentityFromContext(c *gin.Context) (services.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return services.Identity{}, false
	}
	identity, ok := value.(services.Identity)
	return identity, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: message})
	c.Abort()
}
