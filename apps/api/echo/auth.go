package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/xenthrall/academy/core"
)

// operator roles
const (
	RoleReports = "reports" // read aggregate reports
	RoleRecords = "records" // write school records
)

var Roles = []string{RoleReports, RoleRecords}

const contextTokenKey = "operatorToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Caller identifies the operator in logs.
func (c Claims) Caller() core.Caller {
	return core.Caller{ID: c.Subject, Name: c.Name}
}

// NewOperatorClaims returns the claims of an operator token valid for `ttl`,
// or for the configured JWT expiration when ttl is 0.
func NewOperatorClaims(conf *core.Config, subject string, roles []string, ttl time.Duration) *Claims {
	if ttl <= 0 {
		ttl = conf.Server.JWTExpirationDelta
	}
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  subject,
		Roles: roles,
	}
}

// GenerateToken generates a signed JWT token string representing the operator Claims.
func GenerateToken(secretKey string, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		for _, role := range roles {
			for _, granted := range claims.Roles {
				if role == granted {
					return true
				}
			}
		}
	}
	return false
}
