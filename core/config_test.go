package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Setenv("WORKDIR", t.TempDir())
	t.Setenv("ENV", "test")
	t.Setenv("TEST_DATABASE_ENGINE", "postgres")
	t.Setenv("TEST_DATABASE_PORT", "5433")
	t.Setenv("TEST_DATABASE_QUERYTIMEOUT", "3s")

	conf := NewConfig()
	assert.Equal(t, "TEST", conf.Env)
	assert.True(t, conf.TestMode)
	assert.False(t, conf.Debug)
	assert.Equal(t, DevSecretKey, conf.SecretKey)
	assert.Equal(t, "Academy", conf.AppName)
	assert.Equal(t, "postgres", conf.Database.Engine)
	assert.Equal(t, 5433, conf.Database.Port)
	assert.Equal(t, "localhost:5433", conf.Database.Address())
	assert.Equal(t, 3*time.Second, conf.Database.QueryTimeout)
	assert.Equal(t, DefaultJWTExpiration, conf.Server.JWTExpirationDelta)
	assert.Equal(t, ":8000", conf.Server.Address)
}

func TestNewConfig_dotEnv(t *testing.T) {
	wd := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(wd, "config"), 0o755))
	dotEnv := "QA_APPNAME=Academy QA\nQA_SERVER_ADDRESS=:9000\nQA_SECRETKEY=qa-secret\n"
	require.NoError(t, os.WriteFile(filepath.Join(wd, "config", ".env.qa"), []byte(dotEnv), 0o600))

	t.Setenv("WORKDIR", wd)
	t.Setenv("ENV", "QA")
	t.Cleanup(func() {
		_ = os.Unsetenv("QA_APPNAME")
		_ = os.Unsetenv("QA_SERVER_ADDRESS")
		_ = os.Unsetenv("QA_SECRETKEY")
	})

	conf := NewConfig()
	assert.Equal(t, "QA", conf.Env)
	assert.False(t, conf.TestMode)
	assert.False(t, conf.Debug)
	assert.Equal(t, "qa-secret", conf.SecretKey)
	assert.Equal(t, "Academy QA", conf.AppName)
	assert.Equal(t, ":9000", conf.Server.Address)
	assert.Equal(t, wd, conf.WorkDir)
}

func TestNewConfig_dev(t *testing.T) {
	t.Setenv("WORKDIR", t.TempDir())
	t.Setenv("ENV", "")

	conf := NewConfig()
	assert.Equal(t, "DEV", conf.Env)
	assert.True(t, conf.Debug)
	assert.Equal(t, DevSecretKey, conf.SecretKey)
}

func TestConfig_validate(t *testing.T) {
	tests := []struct {
		env, secretKey string
		wantErr        bool
	}{
		{"DEV", DevSecretKey, false},
		{"TEST", DevSecretKey, false},
		{"QA", DevSecretKey, true},
		{"PROD", DevSecretKey, true},
		{"PROD", "prod-secret", false},
		{"PROD", "", true},
		{"DEV", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.secretKey, func(t *testing.T) {
			conf := &Config{Env: tt.env, SecretKey: tt.secretKey}
			err := conf.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetwd(t *testing.T) {
	t.Setenv("WORKDIR", "")
	wd := Getwd()
	_, err := os.Stat(filepath.Join(wd, "go.mod"))
	assert.NoError(t, err, "project root should hold go.mod")
}
