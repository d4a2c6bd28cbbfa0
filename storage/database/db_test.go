package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenthrall/academy/core"
)

func memConfig(t *testing.T) *core.Config {
	conf := &core.Config{}
	conf.Database.Engine = SQLite
	conf.Database.Path = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conf.Database.PingAttempts = 1
	return conf
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"academy.db", "academy.db?_foreign_keys=on"},
		{"file:x?mode=memory", "file:x?mode=memory&_foreign_keys=on"},
		{"file:x?_fk=1", "file:x?_fk=1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.path), tt.path)
	}
}

func TestPostgresDSN(t *testing.T) {
	conf := &core.Config{}
	conf.Database.Host = "db"
	conf.Database.Port = 5432
	conf.Database.User = "app"
	conf.Database.Password = "secret"
	conf.Database.AdminUser = "postgres"
	conf.Database.AdminPassword = "root"
	conf.Database.DisableTLS = true

	assert.Equal(t, "postgres://app:secret@db:5432/academy?sslmode=disable&timezone=utc", postgresDSN("academy", false, conf))
	assert.Equal(t, "postgres://postgres:root@db:5432/postgres?sslmode=disable&timezone=utc", postgresDSN("postgres", true, conf))
}

func TestMysqlDSN(t *testing.T) {
	conf := &core.Config{}
	conf.Database.Host = "db"
	conf.Database.Port = 3306
	conf.Database.User = "app"
	conf.Database.Password = "secret"
	conf.Database.DisableTLS = true

	cfg, err := mysql.ParseDSN(mysqlDSN("academy", false, conf))
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "academy", cfg.DBName)
}

func TestOpen_unknownEngine(t *testing.T) {
	conf := memConfig(t)
	conf.Database.Engine = "oracle"
	_, err := Open(conf)
	assert.True(t, errors.Is(err, errUnknownEngine))
	assert.True(t, errors.Is(CreateIfNotExist(conf), errUnknownEngine))
}

func TestMigrate(t *testing.T) {
	conf := memConfig(t)
	require.NoError(t, CreateIfNotExist(conf))
	db, err := Open(conf)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, Ping(context.Background(), db, conf.Database.PingAttempts))

	require.NoError(t, Migrate(db, SQLite))
	// idempotent
	require.NoError(t, Migrate(db, SQLite))

	for _, table := range []string{"curso", "estudiante", "materia", "profesor", "profesor_materia", "asistencia", "notas"} {
		var n int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}

	_, err = db.Exec("INSERT INTO estudiante (nombre, apellido, id_curso) VALUES ('Ana', 'Diaz', 42)")
	assert.True(t, IsForeignKeyViolation(err), "foreign keys must be enforced, got %v", err)

	_, err = db.Exec("INSERT INTO materia (nombre_materia) VALUES ('Math'), ('Math')")
	assert.True(t, IsUniqueViolation(err), "got %v", err)
}

func TestCreateIfNotExist_sqliteDir(t *testing.T) {
	conf := memConfig(t)
	conf.Database.Path = filepath.Join(t.TempDir(), "data", "academy.db")
	require.NoError(t, CreateIfNotExist(conf))
	assert.DirExists(t, filepath.Dir(conf.Database.Path))
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres", &pq.Error{Code: "23505"}, true},
		{"postgres other", &pq.Error{Code: "23503"}, false},
		{"mysql", &mysql.MySQLError{Number: 1062}, true},
		{"sqlite", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"wrapped", errors.Wrap(&pq.Error{Code: "23505"}, "inserting"), true},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestIsConnectionLost(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"mysql invalid conn", mysql.ErrInvalidConn, true},
		{"wrapped mysql invalid conn", errors.Wrap(mysql.ErrInvalidConn, "binding rows"), true},
		{"postgres connection failure", &pq.Error{Code: "08006"}, true},
		{"postgres admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"postgres syntax error", &pq.Error{Code: "42601"}, false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, false},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectionLost(tt.err))
		})
	}
}
