package config

import (
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	defaultDBHost = "127.0.0.1"
	defaultDBPort = 3306
)

type Config struct {
	HTTPHost  string
	HTTPPort  string
	GRPCHost  string
	GRPCPort  string
	Database  DatabaseConfig
	Session   SessionConfig
	Reconcile ReconcileConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	TLS          string
	MaxOpenConns int
	QueryTimeout time.Duration
}

type SessionConfig struct {
	Secret    string
	AdminRole string
}

type ReconcileConfig struct {
	CrossTableGuard    bool
	IsolateRowFailures bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Missing env files are not an error.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	port := getIntEnv("DB_PORT", defaultDBPort)
	if port <= 0 || port > 65535 {
		return nil, errors.New("DB_PORT must be a valid TCP port")
	}

	return &Config{
		HTTPHost: getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		GRPCHost: getEnv("GRPC_HOST", "0.0.0.0"),
		GRPCPort: getEnv("GRPC_PORT", "9090"),
		Database: DatabaseConfig{
			Host:         normalizeHost(getEnv("DB_HOST", defaultDBHost)),
			Port:         port,
			User:         getEnv("DB_USER", "root"),
			Password:     os.Getenv("DB_PASSWORD"),
			Name:         getEnv("DB_NAME", "perpustakaan"),
			TLS:          strings.ToLower(getEnv("DB_TLS", "auto")),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 10),
			QueryTimeout: getSecondsEnv("DB_QUERY_TIMEOUT", 0),
		},
		Session: SessionConfig{
			Secret:    os.Getenv("SESSION_SECRET"),
			AdminRole: getEnv("ADMIN_ROLE", "admin"),
		},
		Reconcile: ReconcileConfig{
			CrossTableGuard:    getBoolEnv("RECONCILE_CROSS_TABLE_GUARD", false),
			IsolateRowFailures: getBoolEnv("RECONCILE_ISOLATE_ROW_FAILURES", true),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}, nil
}

// ValidateServe checks the settings only the long-running server needs.
func (c *Config) ValidateServe() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("SESSION_SECRET environment variable is required")
	}
	return nil
}

func (c *Config) DSN() string {
	m := mysql.NewConfig()
	m.User = c.Database.User
	m.Passwd = c.Database.Password
	m.Net = "tcp"
	m.Addr = net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
	m.DBName = c.Database.Name
	m.ParseTime = true
	// Report matched rather than changed rows so an UPDATE that rewrites the
	// same value is not mistaken for a missing row.
	m.ClientFoundRows = true
	m.TLSConfig = c.tlsMode()
	return m.FormatDSN()
}

func (c *Config) tlsMode() string {
	switch c.Database.TLS {
	case "", "auto":
		// Aiven-hosted MySQL only accepts TLS and serves self-signed certificates.
		if strings.Contains(c.Database.Host, "aiven") {
			return "skip-verify"
		}
		return ""
	case "false", "off":
		return ""
	default:
		return c.Database.TLS
	}
}

// normalizeHost forces IPv4 loopback for "localhost".
func normalizeHost(host string) string {
	if host == "localhost" {
		return defaultDBHost
	}
	return host
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
