package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string        `mapstructure:"host"`
		Address            string        `mapstructure:"address"`
		DebugHost          string        `mapstructure:"debugHost"`
		ShutdownTimeout    time.Duration `mapstructure:"shutdownTimeout"`
		JWTExpirationDelta time.Duration `mapstructure:"jwtExpirationDelta"`
		DisableReqLogs     bool          `mapstructure:"disableReqLogs"`
	}

	DatabaseConfig struct {
		Engine        string        `mapstructure:"engine"` // postgres | mysql | sqlite3
		Host          string        `mapstructure:"host"`
		Port          int           `mapstructure:"port"`
		Name          string        `mapstructure:"name"`
		User          string        `mapstructure:"user"`
		Password      string        `mapstructure:"password"`
		AdminUser     string        `mapstructure:"adminUser"`
		AdminPassword string        `mapstructure:"adminPassword"`
		DisableTLS    bool          `mapstructure:"disableTLS"`
		Path          string        `mapstructure:"path"` // sqlite3 only
		QueryTimeout  time.Duration `mapstructure:"queryTimeout"`
		MaxOpenConns  int           `mapstructure:"maxOpenConns"`
		PingAttempts  int           `mapstructure:"pingAttempts"`
	}

	Config struct {
		Env          string
		WorkDir      string
		Debug        bool           `mapstructure:"debug"`
		TestMode     bool           `mapstructure:"testMode"`
		AppName      string         `mapstructure:"appName"`
		Build        string         `mapstructure:"build"`
		SecretKey    string         `mapstructure:"secretKey"`
		RollbarToken string         `mapstructure:"rollbarToken"`
		Server       ServerConfig   `mapstructure:"server"`
		Database     DatabaseConfig `mapstructure:"database"`
	}
)

// Address returns the "host:port" of the database server.
func (c DatabaseConfig) Address() string {
	if c.Port == 0 {
		return c.Host
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

const (
	// DefaultJWTExpiration is how long operator tokens stay valid unless configured otherwise.
	DefaultJWTExpiration = 30 * 24 * time.Hour
	// DevSecretKey signs tokens when no key is configured. It is public, only DEV and TEST accept it.
	DevSecretKey = "t4k7-0qv)e1n$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Academy")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", DevSecretKey)
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", DefaultJWTExpiration)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "sqlite3")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.name", "academy")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "academy.db")
	v.SetDefault("database.queryTimeout", 10*time.Second)
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.pingAttempts", 30)
}

// NewConfig loads the application configuration.
// ENV selects the environment (DEV by default, TEST, QA, PROD) and the prefix of the env vars to read from,
// e.g. DEV_DATABASE_ENGINE=postgres overrides "database.engine".
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetDefault("debug", env == "DEV")
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	conf.Env = env
	conf.WorkDir = wd
	if err := conf.validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return conf
}

func (c *Config) validate() error {
	if c.SecretKey == "" {
		return errors.Errorf("%s_SECRETKEY is empty", c.Env)
	}
	if c.SecretKey == DevSecretKey && c.Env != "DEV" && c.Env != "TEST" {
		return errors.Errorf("%s_SECRETKEY must be set, the development key is public", c.Env)
	}
	return nil
}
