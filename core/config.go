package core

import (
	"log"
	"net"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                string
		Host                   string
		DebugHost              string
		ShutdownTimeout        time.Duration
		SessionExpirationDelta time.Duration
		SecureCookies          bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RegistrationConfig struct {
		OrgDomain        string   // suffix required on every non-superadmin email
		SuperadminEmails []string // the only emails allowed to register as superadmin
	}

	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		RollbarToken     string
		LogFile          string

		Server       ServerConfig
		Database     DatabaseConfig
		Registration RegistrationConfig
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// DSN returns the connection URL for dbName; admin switches to the admin credentials when they are set.
func (dc DatabaseConfig) DSN(dbName string, admin bool) string {
	usr := url.UserPassword(dc.User, dc.Password)
	if admin && dc.AdminUser != "" {
		usr = url.UserPassword(dc.AdminUser, dc.AdminPassword)
	}

	sslMode := "require"
	if dc.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     usr,
		Host:     dc.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Kenova")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "k3n0va-w9#(x^d=2m!s7$qz0+e(1r4l&t*u@o5v8p_j6c%yh")
	v.SetDefault("defaultFromEmail", "noreply@kenova.xyz")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("logFile", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.sessionExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.secureCookies", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "kenova")
	v.SetDefault("database.user", "kenova")
	v.SetDefault("database.password", "kenova")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("registration.orgDomain", "@kenova.xyz")
	v.SetDefault("registration.superadminEmails", []string{
		"santillan@cetis14.edu.mx",
		"francisco.santillan@cetis14.edu.mx",
		"santillan@kenova.xyz",
		"francisco.santillan@kenova.xyz",
		"administrador@kenova.xyz",
	})

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.Set("env", env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// eg. DEV_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewConfig loads the application configuration from defaults, dotenv file and environment.
func NewConfig() *Config {
	v := newViper()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              v.GetString("env"),
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: *from,
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		LogFile:          v.GetString("logFile"),
		Server: ServerConfig{
			Address:                v.GetString("server.address"),
			Host:                   v.GetString("server.host"),
			DebugHost:              v.GetString("server.debugHost"),
			ShutdownTimeout:        v.GetDuration("server.shutdownTimeout"),
			SessionExpirationDelta: v.GetDuration("server.sessionExpirationDelta"),
			SecureCookies:          v.GetBool("server.secureCookies"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Registration: RegistrationConfig{
			OrgDomain:        strings.ToLower(v.GetString("registration.orgDomain")),
			SuperadminEmails: v.GetStringSlice("registration.superadminEmails"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: defaults only, test mode on.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = true
	conf.SecretKey = "secret"
	conf.Database.Engine = "memory"
	return conf
}
