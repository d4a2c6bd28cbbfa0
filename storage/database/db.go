package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/xenthrall/academy/core"
	appfs "github.com/xenthrall/academy/fs"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite3"
)

var errUnknownEngine = errors.New("unknown database engine")

func checkEngine(engine string) error {
	switch engine {
	case Postgres, MySQL, SQLite:
		return nil
	}
	return errors.Wrapf(errUnknownEngine, "%q", engine)
}

func postgresDSN(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   Postgres,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func mysqlDSN(dbName string, admin bool, conf *core.Config) string {
	cfg := mysql.NewConfig()
	cfg.User = conf.Database.User
	cfg.Passwd = conf.Database.Password
	if admin && conf.Database.AdminUser != "" {
		cfg.User = conf.Database.AdminUser
		cfg.Passwd = conf.Database.AdminPassword
	}
	cfg.Net = "tcp"
	cfg.Addr = conf.Database.Address()
	cfg.DBName = dbName
	cfg.Loc = time.UTC
	if !conf.Database.DisableTLS {
		cfg.TLSConfig = "true"
	}
	return cfg.FormatDSN()
}

// sqliteDSN accepts a plain path or a "file:" URI and always turns foreign keys on.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") || strings.Contains(path, "_fk=") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	engine := conf.Database.Engine
	var dsn string
	switch engine {
	case Postgres:
		dsn = postgresDSN(dbName, admin, conf)
	case MySQL:
		dsn = mysqlDSN(dbName, admin, conf)
	case SQLite:
		dsn = sqliteDSN(conf.Database.Path)
	default:
		return nil, checkEngine(engine)
	}

	db, err := sql.Open(engine, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", engine)
	}
	if engine == SQLite {
		// a single writer avoids "database is locked"; in-memory databases also live in one connection
		db.SetMaxOpenConns(1)
	} else if conf.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.Database.MaxOpenConns)
	}
	return db, nil
}

// Open opens the application database pool. It does not check connectivity.
func Open(conf *core.Config) (*sql.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, db *sql.DB, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if attempts == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func rowExists(db *sql.DB, query string, args ...interface{}) (bool, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()
	exists := rows.Next()
	return exists, rows.Err()
}

func createPostgresAppUser(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}
	exists, err := rowExists(db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !exists {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createPostgresDB(db *sql.DB, conf *core.Config) error {
	exists, err := rowExists(db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !exists {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

func createPostgres(conf *core.Config) error {
	// connect as admin
	adminDB, err := open(Postgres, true, conf)
	if err != nil {
		return err
	}
	defer func() { _ = adminDB.Close() }()

	if err = Ping(context.Background(), adminDB, conf.Database.PingAttempts); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createPostgresAppUser(adminDB, conf); err != nil {
		return err
	}

	// create DB as app user
	db, err := open(Postgres, false, conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return createPostgresDB(db, conf)
}

func createMySQL(conf *core.Config) error {
	db, err := open("", true, conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err = Ping(context.Background(), db, conf.Database.PingAttempts); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	q := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4", conf.Database.Name)
	if _, err = db.Exec(q); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

func createSQLite(conf *core.Config) error {
	path := strings.TrimPrefix(conf.Database.Path, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(conf.Database.Path, "mode=memory") {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating database directory")
		}
	}
	return nil
}

// CreateIfNotExist creates the application database (and postgres role) when missing.
func CreateIfNotExist(conf *core.Config) error {
	switch conf.Database.Engine {
	case Postgres:
		return createPostgres(conf)
	case MySQL:
		return createMySQL(conf)
	case SQLite:
		return createSQLite(conf)
	}
	return checkEngine(conf.Database.Engine)
}

// SetupMigrations points goose at the embedded migrations of `engine` and returns their directory.
func SetupMigrations(engine string) (string, error) {
	if err := checkEngine(engine); err != nil {
		return "", err
	}
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(engine); err != nil {
		return "", errors.Wrap(err, "setting goose dialect")
	}
	return "migrations/" + engine, nil
}

func Migrate(db *sql.DB, engine string) error {
	dir, err := SetupMigrations(engine)
	if err != nil {
		return err
	}
	if err = goose.Up(db, dir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
