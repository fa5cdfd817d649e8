package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const claimsKey = "claims"

type claimsContextKey struct{}

// Claims carries the verified identity of a request. The zero value is the
// anonymous visitor.
type Claims struct {
	Subject  string
	UserID   int
	Nicename string
	Avatar   string
	Caps     []string
}

// HasCap reports whether the identity carries a capability.
func (c *Claims) HasCap(name string) bool {
	if c == nil {
		return false
	}
	for _, have := range c.Caps {
		if have == name {
			return true
		}
	}
	return false
}

// AuthMiddleware verifies an optional Bearer token signed with the shared
// HMAC secret. Requests without a token continue anonymously; requests with
// an invalid token are rejected, so a client never silently loses its
// elevated read access.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		claims := parseClaims(mapClaims)
		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(ContextWithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// ContextWithClaims attaches a verified identity to a plain context, so
// code below the HTTP layer can consult it.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromStdContext returns the identity attached by ContextWithClaims,
// or nil.
func ClaimsFromStdContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}

// ClaimsFromContext returns the verified identity, or nil for anonymous
// requests.
func ClaimsFromContext(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

func parseClaims(m jwt.MapClaims) *Claims {
	out := &Claims{}
	if sub, err := m.GetSubject(); err == nil {
		out.Subject = sub
	}
	if id, ok := m["user_id"].(float64); ok {
		out.UserID = int(id)
	}
	if s, ok := m["nicename"].(string); ok {
		out.Nicename = s
	}
	if s, ok := m["avatar"].(string); ok {
		out.Avatar = s
	}
	if caps, ok := m["caps"].([]any); ok {
		for _, v := range caps {
			if s, ok := v.(string); ok {
				out.Caps = append(out.Caps, s)
			}
		}
	}
	return out
}
