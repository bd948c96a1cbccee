package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"okeears-server/internal/domain"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Preferences PreferencesConfig
	JWT         JWTConfig
	Graph       GraphConfig
	OneNote     OneNoteConfig
	Scopes      []domain.Scope
	WebSocket   WebSocketConfig
	CORS        CORSConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	URL string
}

// PreferencesConfig selects where the per-user scope preference lives.
type PreferencesConfig struct {
	Backend string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type GraphConfig struct {
	BaseURL  string
	Resource string
	Timeout  time.Duration
}

type OneNoteConfig struct {
	NotebookName  string
	PageTitle     string
	Layout        string
	ShareAlias    string
	ShareOnCreate bool
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxConnPerUser  int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level  string
	Format string
}

const (
	PreferencesCouchDB = "couchdb"
	PreferencesRedis   = "redis"

	LayoutList  = "list"
	LayoutTable = "table"
)

func Load() (*Config, error) {
	godotenv.Load()

	jwtExp, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "8h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION: %w", err)
	}

	graphTimeout, err := time.ParseDuration(getEnv("GRAPH_TIMEOUT", "20s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GRAPH_TIMEOUT: %w", err)
	}

	scopes, err := ParseScopes(getEnv("OKR_SCOPES", "FY2018:FY2018,Playground:Playground"))
	if err != nil {
		return nil, fmt.Errorf("invalid OKR_SCOPES: %w", err)
	}

	layout := strings.ToLower(getEnv("ONENOTE_LAYOUT", LayoutTable))
	if layout != LayoutList && layout != LayoutTable {
		return nil, fmt.Errorf("invalid ONENOTE_LAYOUT %q: expected %q or %q", layout, LayoutList, LayoutTable)
	}

	backend := strings.ToLower(getEnv("PREFERENCES_BACKEND", PreferencesCouchDB))
	if backend != PreferencesCouchDB && backend != PreferencesRedis {
		return nil, fmt.Errorf("invalid PREFERENCES_BACKEND %q", backend)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "okeears"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Preferences: PreferencesConfig{
			Backend: backend,
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "dev-secret-change-in-production"),
			Expiration: jwtExp,
		},
		Graph: GraphConfig{
			BaseURL:  strings.TrimRight(getEnv("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"), "/"),
			Resource: getEnv("GRAPH_RESOURCE", "https://graph.microsoft.com"),
			Timeout:  graphTimeout,
		},
		OneNote: OneNoteConfig{
			NotebookName:  getEnv("ONENOTE_NOTEBOOK_NAME", "Okeears"),
			PageTitle:     getEnv("ONENOTE_PAGE_TITLE", "Objectives"),
			Layout:        layout,
			ShareAlias:    getEnv("SHARE_RECIPIENT_ALIAS", "Everyone except external users"),
			ShareOnCreate: getEnvAsBool("SHARE_ON_CREATE", true),
		},
		Scopes: scopes,
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 4096),
			MaxMessageSize:  int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 65536)),
			WriteWait:       10 * time.Second,
			PongWait:        60 * time.Second,
			PingPeriod:      54 * time.Second,
			MaxConnPerUser:  getEnvAsInt("WS_MAX_CONN_PER_USER", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// ParseScopes reads "id:Display Name" pairs separated by commas. A bare entry
// uses the same value for id and display name. Order is kept; the first scope
// is the default.
func ParseScopes(raw string) ([]domain.Scope, error) {
	var scopes []domain.Scope
	seen := make(map[string]bool)

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, name, found := strings.Cut(entry, ":")
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if !found {
			name = id
		}
		if id == "" || name == "" {
			return nil, fmt.Errorf("malformed scope entry %q", entry)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate scope id %q", id)
		}
		seen[id] = true

		scopes = append(scopes, domain.Scope{ID: id, DisplayName: name})
	}

	if len(scopes) == 0 {
		return nil, fmt.Errorf("at least one scope is required")
	}

	return scopes, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
