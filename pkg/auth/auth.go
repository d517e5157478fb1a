// Package auth verifies the bearer tokens issued by the external identity
// provider. Credential handling itself lives with the provider; this
// package only checks signatures and claims.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/dairyshop/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated covers missing, malformed and rejected tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// ContextUserKey is where the middleware stores the verified identity.
const ContextUserKey = "auth.user"

// RoleAdmin marks staff tokens issued for the administrative path.
const RoleAdmin = "admin"

// Identity is the requester as asserted by the provider's token.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// IsAdmin reports whether the token carries the staff role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type tokenClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(cfg *config.AuthConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	return &Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// Middleware requires a valid bearer token and stores the identity on the
// request context. Unauthenticated callers get a redirect-to-login
// instruction.
func Middleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			abortUnauthenticated(c)
			return
		}

		identity, err := verifier.Verify(tokenString)
		if err != nil {
			abortUnauthenticated(c)
			return
		}

		c.Set(ContextUserKey, identity)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    "Please sign in to continue.",
		"redirect": "/login",
	})
}

// IdentityFrom returns the verified identity the middleware stored.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*Identity)
	return identity, ok
}
