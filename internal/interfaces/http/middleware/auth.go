package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"shortcut-relay.backend/internal/domain/entities"
	"shortcut-relay.backend/internal/interfaces/http/response"
	"shortcut-relay.backend/internal/usecases"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// APIKeyHeader carries an API key credential
	APIKeyHeader = "X-Api-Key"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// UserKey is the context key for the resolved user
	UserKey = "user"
	// AuthOutcomeKey is the context key for the full resolution outcome
	AuthOutcomeKey = "authOutcome"
	// SessionTokenKey is the context key for the raw bearer token
	SessionTokenKey = "sessionToken"
)

// ExtractCredentials pulls the raw credential material off a request. Shared
// by the auth middleware and the public trigger endpoint, which resolves
// credentials itself because authentication there is optional.
func ExtractCredentials(c *gin.Context) usecases.Credentials {
	creds := usecases.Credentials{
		APIKey:   c.GetHeader(APIKeyHeader),
		ClientIP: c.ClientIP(),
	}
	if authHeader := c.GetHeader(AuthorizationHeader); strings.HasPrefix(authHeader, BearerPrefix) {
		creds.BearerToken = strings.TrimPrefix(authHeader, BearerPrefix)
	}
	return creds
}

// AuthMiddleware resolves request credentials and requires an authenticated
// identity. Accepts a bearer token (access token or session token) or an API
// key carrying the given scope.
func AuthMiddleware(resolver *usecases.CredentialResolver, requiredScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := ExtractCredentials(c)
		if creds.BearerToken == "" && creds.APIKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "ERR_UNAUTHORIZED",
				"message": "authentication required",
			})
			return
		}

		outcome, err := resolver.Resolve(c.Request.Context(), creds, requiredScope)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !outcome.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "ERR_UNAUTHORIZED",
				"message": "invalid or expired credentials",
			})
			return
		}

		c.Set(UserKey, outcome.User)
		c.Set(AuthOutcomeKey, outcome)
		c.Set(SessionTokenKey, creds.BearerToken)
		c.Next()
	}
}

// GetUser gets the resolved user from context
func GetUser(c *gin.Context) (*entities.User, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*entities.User)
	return user, ok
}

// GetSessionToken gets the raw bearer token from context
func GetSessionToken(c *gin.Context) (string, bool) {
	value, exists := c.Get(SessionTokenKey)
	if !exists {
		return "", false
	}
	token, ok := value.(string)
	return token, ok
}
