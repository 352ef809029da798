// Package auth implements the bearer-token half of the Auth & Tracing
// Middleware (§4.6). It has no teacher equivalent — bank-api carries no
// auth at all — so it is enriched from the pack: both LerianStudio-midaz and
// r3e-network-service_layer depend on golang-jwt/jwt for exactly this
// concern.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

type ctxKey int

const (
	ctxCustomerID ctxKey = iota
	ctxIdentification
	ctxAuthority
)

const RoleUser = "ROLE_USER"

// Claims is the JWT payload this platform issues and verifies: subject
// claims customer_id/identification bound to a single ROLE_USER authority,
// per §4.6.
type Claims struct {
	CustomerID     string `json:"customer_id"`
	Identification string `json:"identification"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret      string
	Expiry      time.Duration
	PublicPaths map[string]struct{}
}

func NewConfig(secret string, expiry time.Duration, publicPaths []string) Config {
	set := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		set[p] = struct{}{}
	}
	return Config{Secret: secret, Expiry: expiry, PublicPaths: set}
}

// Issue mints a signed HS256 token for a customer, expiring after
// cfg.Expiry. Nothing in this module calls it.
func (cfg Config) Issue(customerID, identification string) (string, error) {
	now := time.Now()
	claims := Claims{
		CustomerID:     customerID,
		Identification: identification,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

func (cfg Config) isPublic(path string) bool {
	_, ok := cfg.PublicPaths[path]
	return ok
}

// Middleware validates the bearer token's signature and expiry, binding
// customer_id/identification to the request context on success. Public
// paths bypass authentication entirely.
func Middleware(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.isPublic(c.FullPath()) {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apierror.Respond(c, nil, apierror.Unauthorized("missing bearer token"))
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			apierror.Respond(c, nil, apierror.Unauthorized("invalid or expired token"))
			return
		}

		ctx := context.WithValue(c.Request.Context(), ctxCustomerID, claims.CustomerID)
		ctx = context.WithValue(ctx, ctxIdentification, claims.Identification)
		ctx = context.WithValue(ctx, ctxAuthority, RoleUser)
		c.Request = c.Request.WithContext(ctx)
		c.Set("auth.customerId", claims.CustomerID)

		c.Next()
	}
}

func CustomerIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxCustomerID).(string)
	return v, ok
}

func CustomerID(c *gin.Context) string {
	if v, ok := c.Get("auth.customerId"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
