package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestContextHasAnyRole(t *testing.T) {
	claims := &Claims{Roles: []string{RoleReports, RoleRecords}}
	ctx := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	ctx.Set(contextTokenKey, &jwt.Token{Claims: claims})

	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{"no role required", nil, true},
		{"granted", []string{RoleRecords}, true},
		{"any of", []string{"admin", RoleReports}, true},
		{"not granted", []string{"admin"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contextHasAnyRole(ctx, tt.roles))
		})
	}
	assert.Equal(t, []string{RoleReports, RoleRecords}, claims.Roles, "token claims must be left untouched")

	anonymous := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.False(t, contextHasAnyRole(anonymous, []string{RoleReports}))
}
