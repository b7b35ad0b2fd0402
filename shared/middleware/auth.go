package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/lodgio/lodgio-platform/shared/utils"
)

// AuthMiddleware validates platform JWT tokens
type AuthMiddleware struct {
	secret []byte
}

// PlatformClaims represents the claims carried by a platform token
type PlatformClaims struct {
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware creates the authentication middleware. The signing
// secret comes from JWT_SECRET.
func NewAuthMiddleware() (*AuthMiddleware, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return &AuthMiddleware{secret: []byte(secret)}, nil
}

// RequireAuth validates the bearer token and loads the caller's identity
// into the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := am.parseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("email", claims.Email)
		c.Set("tenant_id", claims.TenantID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RequireRole validates the caller's role
func (am *AuthMiddleware) RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found in context"})
			c.Abort()
			return
		}

		if role != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Insufficient permissions",
				"required_role": requiredRole,
				"user_role":     role,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireTenantOwnerOrAdmin allows platform admins everywhere and tenant
// owners on their own tenant only.
func (am *AuthMiddleware) RequireTenantOwnerOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")

		if role == "admin" {
			c.Next()
			return
		}

		if role == "tenant_owner" {
			requestedTenantID := c.Param("id")
			userTenantID := c.GetString("tenant_id")

			if requestedTenantID == "" || requestedTenantID == userTenantID {
				c.Next()
				return
			}

			c.JSON(http.StatusForbidden, gin.H{
				"error": "Tenant owners can only manage their own tenant",
			})
			c.Abort()
			return
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":         "Insufficient permissions",
			"required_role": "tenant_owner or admin",
			"user_role":     role,
		})
		c.Abort()
	}
}

// RequireTenantAccess validates that the caller may act on the requested
// tenant: admins on any tenant, everyone else on their own only.
func (am *AuthMiddleware) RequireTenantAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		userTenantID, exists := c.Get("tenant_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant information not found"})
			c.Abort()
			return
		}

		role, _ := c.Get("role")
		if role == "admin" {
			c.Next()
			return
		}

		requestedTenantID := c.Param("id")
		if requestedTenantID == "" {
			requestedTenantID = c.Param("tenant_id")
		}

		if requestedTenantID != "" && requestedTenantID != userTenantID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this tenant"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserFromContext returns the caller's identity set by RequireAuth
func GetUserFromContext(c *gin.Context) (userID, email, tenantID, role string) {
	return c.GetString("user_id"), c.GetString("email"), c.GetString("tenant_id"), c.GetString("role")
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}

// cacheKey hashes the token for use as a Redis key, so raw tokens are
// never stored.
func cacheKey(tokenString string) string {
	hash := sha256.Sum256([]byte(tokenString))
	return "token:" + hex.EncodeToString(hash[:])
}

// parseToken verifies the token signature and returns its claims. Verified
// claims are cached in Redis for an hour to skip repeat verification on
// hot paths; cache misses or an uninitialized Redis fall through to a full
// parse.
func (am *AuthMiddleware) parseToken(tokenString string) (*PlatformClaims, error) {
	key := cacheKey(tokenString)
	if cached, err := utils.CacheGet(key); err == nil {
		var claims PlatformClaims
		if err := json.Unmarshal([]byte(cached), &claims); err == nil {
			return &claims, nil
		}
	}

	claims := &PlatformClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("token missing role claim")
	}
	// Admin tokens are platform scoped and carry no tenant
	if claims.Role != "admin" && claims.TenantID == "" {
		return nil, fmt.Errorf("token missing tenant claim")
	}

	if data, err := json.Marshal(claims); err == nil {
		_ = utils.CacheSet(key, string(data), time.Hour)
	}

	return claims, nil
}
