package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"song-request-backend/internal/config"
	"song-request-backend/internal/models"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	RolesKey     = "roles"
)

// RoleSource resolves the application roles granted to a user.
type RoleSource interface {
	Roles(ctx context.Context, userID string) ([]string, error)
}

func abort(c *gin.Context, status int, errCode, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: errCode, Message: message})
}

// AuthMiddleware validates a Supabase HS256 access token and stores the
// caller's id and email on the context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing authorization header")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "empty token")
			return
		}

		// Some clients URL-encode the token
		if decoded, err := url.QueryUnescape(tokenString); err == nil {
			tokenString = decoded
		}

		if len(strings.Split(tokenString, ".")) != 3 {
			abort(c, http.StatusUnauthorized, "unauthorized", "JWT token must have 3 parts separated by dots")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			if cfg.SupabaseJWTSecret == "" {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.SupabaseJWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			var message string
			switch {
			case strings.Contains(err.Error(), "signature is invalid"):
				message = "token signature is invalid"
			case strings.Contains(err.Error(), "token is expired"):
				message = "token has expired"
			case strings.Contains(err.Error(), "could not JSON decode"):
				message = "token is malformed"
			default:
				message = err.Error()
			}
			abort(c, http.StatusUnauthorized, "invalid token", message)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			abort(c, http.StatusUnauthorized, "invalid token", "invalid token claims")
			return
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid token", "missing user id in token")
			return
		}
		if _, err := uuid.Parse(sub); err != nil {
			abort(c, http.StatusUnauthorized, "invalid token", "user id is not a uuid")
			return
		}

		c.Set(UserIDKey, sub)
		if email, ok := claims["email"].(string); ok {
			c.Set(UserEmailKey, email)
		}
		c.Next()
	}
}

// RequireRole admits callers holding at least one of roles. It must run after
// AuthMiddleware.
func RequireRole(source RoleSource, logger *zap.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		if userID == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "user not authenticated")
			return
		}

		granted, err := source.Roles(c.Request.Context(), userID)
		if err != nil {
			logger.Error("failed to load roles", zap.String("user_id", userID), zap.Error(err))
			abort(c, http.StatusInternalServerError, "internal_error", "failed to load roles")
			return
		}

		for _, role := range roles {
			if slices.Contains(granted, role) {
				c.Set(RolesKey, granted)
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "forbidden", "insufficient role")
	}
}

// SharedSecret guards internal endpoints called by an external scheduler.
func SharedSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid cron secret")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's id.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(UserIDKey))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
