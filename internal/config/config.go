package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Application ApplicationConfig `mapstructure:"application"`
	Google      GoogleConfig      `mapstructure:"google"`
	AI          AIConfig          `mapstructure:"ai"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Session     SessionConfig     `mapstructure:"session"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	I18n        I18nConfig        `mapstructure:"i18n"`
}

type ApplicationConfig struct {
	Name          string        `mapstructure:"name"`
	Version       string        `mapstructure:"version"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CacheSize     int           `mapstructure:"cache_size"`
	DefaultBudget int           `mapstructure:"default_budget"`
}

func (c *ApplicationConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServiceAccount mirrors the fields of a Google service-account key file.
type ServiceAccount struct {
	Type                    string `mapstructure:"type" json:"type"`
	ProjectID               string `mapstructure:"project_id" json:"project_id"`
	PrivateKeyID            string `mapstructure:"private_key_id" json:"private_key_id"`
	PrivateKey              string `mapstructure:"private_key" json:"private_key"`
	ClientEmail             string `mapstructure:"client_email" json:"client_email"`
	ClientID                string `mapstructure:"client_id" json:"client_id"`
	AuthURI                 string `mapstructure:"auth_uri" json:"auth_uri"`
	TokenURI                string `mapstructure:"token_uri" json:"token_uri"`
	AuthProviderX509CertURL string `mapstructure:"auth_provider_x509_cert_url" json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `mapstructure:"client_x509_cert_url" json:"client_x509_cert_url"`
	UniverseDomain          string `mapstructure:"universe_domain" json:"universe_domain"`
}

type GoogleConfig struct {
	ServiceAccount   ServiceAccount `mapstructure:"service_account"`
	TemplatesFolder  string         `mapstructure:"templates_folder"`
	OutputFolder     string         `mapstructure:"output_folder"`
	CleanupOnFailure bool           `mapstructure:"cleanup_on_failure"`
	ThumbnailWorkers int            `mapstructure:"thumbnail_workers"`
}

// Missing lists the environment variables whose service-account value is empty,
// in declaration order.
func (c *GoogleConfig) Missing() []string {
	sa := c.ServiceAccount
	fields := []struct {
		env, value string
	}{
		{"GOOGLE_SERVICE_ACCOUNT_TYPE", sa.Type},
		{"GOOGLE_SERVICE_ACCOUNT_PROJECT_ID", sa.ProjectID},
		{"GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY_ID", sa.PrivateKeyID},
		{"GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY", sa.PrivateKey},
		{"GOOGLE_SERVICE_ACCOUNT_CLIENT_EMAIL", sa.ClientEmail},
		{"GOOGLE_SERVICE_ACCOUNT_CLIENT_ID", sa.ClientID},
		{"GOOGLE_SERVICE_ACCOUNT_AUTH_URI", sa.AuthURI},
		{"GOOGLE_SERVICE_ACCOUNT_TOKEN_URI", sa.TokenURI},
		{"GOOGLE_SERVICE_ACCOUNT_AUTH_PROVIDER_X509_CERT_URL", sa.AuthProviderX509CertURL},
		{"GOOGLE_SERVICE_ACCOUNT_CLIENT_X509_CERT_URL", sa.ClientX509CertURL},
		{"GOOGLE_SERVICE_ACCOUNT_UNIVERSE_DOMAIN", sa.UniverseDomain},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.env)
		}
	}
	return missing
}

// Destination returns the folder generated decks are copied into.
func (c *GoogleConfig) Destination() string {
	if c.OutputFolder != "" {
		return c.OutputFolder
	}
	return c.TemplatesFolder
}

type AIConfig struct {
	ActiveProvider string                      `mapstructure:"active_provider"`
	Providers      map[string]ProviderSettings `mapstructure:"providers"`
}

// Active returns the settings of the selected provider, keyed by its name.
func (c *AIConfig) Active() (string, ProviderSettings) {
	return c.ActiveProvider, c.Providers[c.ActiveProvider]
}

type ProviderSettings struct {
	Driver      string  `mapstructure:"driver"` // gemini, genai, mock
	Key         string  `mapstructure:"key"`
	KeyEnv      string  `mapstructure:"key_env"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type DatabaseConfig struct {
	Driver    string `mapstructure:"driver"` // postgres, datastore, memory
	URL       string `mapstructure:"url"`
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	DBName    string `mapstructure:"dbname"`
	SSLMode   string `mapstructure:"sslmode"`
	Options   string `mapstructure:"options"`
	ProjectID string `mapstructure:"project_id"`
	Namespace string `mapstructure:"namespace"`
}

func (c *DatabaseConfig) GetConnectStr() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, sslmode)

	if c.Options != "" {
		// Basic URL encoding for the options value: space -> %20
		encodedOptions := strings.ReplaceAll(c.Options, " ", "%20")
		connStr += fmt.Sprintf("&options=%s", encodedOptions)
	}

	return connStr
}

type SessionConfig struct {
	Lifetime   time.Duration `mapstructure:"lifetime"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type I18nConfig struct {
	Dir         string `mapstructure:"dir"`
	DefaultLang string `mapstructure:"default_lang"`
	Watch       bool   `mapstructure:"watch"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not found, using system environment variables")
	}

	v := viper.New()
	v.SetConfigFile("config.yaml") // Support optional config.yaml
	v.AutomaticEnv()

	// Environment variable mappings
	mappings := []struct {
		key, env string
	}{
		{"application.host", "HOST"},
		{"application.port", "PORT"},
		{"application.cache_ttl", "CACHE_TTL"},
		{"application.cache_size", "CACHE_SIZE"},
		{"application.default_budget", "DEFAULT_PLACEHOLDER_BUDGET"},

		// Google service account
		{"google.service_account.type", "GOOGLE_SERVICE_ACCOUNT_TYPE"},
		{"google.service_account.project_id", "GOOGLE_SERVICE_ACCOUNT_PROJECT_ID"},
		{"google.service_account.private_key_id", "GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY_ID"},
		{"google.service_account.private_key", "GOOGLE_SERVICE_ACCOUNT_PRIVATE_KEY"},
		{"google.service_account.client_email", "GOOGLE_SERVICE_ACCOUNT_CLIENT_EMAIL"},
		{"google.service_account.client_id", "GOOGLE_SERVICE_ACCOUNT_CLIENT_ID"},
		{"google.service_account.auth_uri", "GOOGLE_SERVICE_ACCOUNT_AUTH_URI"},
		{"google.service_account.token_uri", "GOOGLE_SERVICE_ACCOUNT_TOKEN_URI"},
		{"google.service_account.auth_provider_x509_cert_url", "GOOGLE_SERVICE_ACCOUNT_AUTH_PROVIDER_X509_CERT_URL"},
		{"google.service_account.client_x509_cert_url", "GOOGLE_SERVICE_ACCOUNT_CLIENT_X509_CERT_URL"},
		{"google.service_account.universe_domain", "GOOGLE_SERVICE_ACCOUNT_UNIVERSE_DOMAIN"},
		{"google.templates_folder", "GOOGLE_DRIVE_FOLDER_ID"},
		{"google.output_folder", "GOOGLE_DRIVE_OUTPUT_FOLDER_ID"},
		{"google.cleanup_on_failure", "GOOGLE_CLEANUP_ON_FAILURE"},

		// AI Providers
		{"ai.active_provider", "AI_PROVIDER"},
		{"ai.providers.gemini.key", "GEMINI_KEY"},
		{"ai.providers.gemini.model", "GEMINI_MODEL"},
		{"ai.providers.genai.key", "GENAI_API_KEY"},
		{"ai.providers.genai.model", "GENAI_MODEL"},

		// Database
		{"database.driver", "DB_DRIVER"},
		{"database.url", "DB_URL"},
		{"database.host", "PG_HOST"},
		{"database.port", "PG_PORT"},
		{"database.user", "PG_USER"},
		{"database.password", "PG_PASSWORD"},
		{"database.dbname", "PG_DB"},
		{"database.sslmode", "PG_SSLMODE"},
		{"database.options", "PG_OPTIONS"},
		{"database.project_id", "DATASTORE_PROJECT_ID"},
		{"database.namespace", "DATASTORE_NAMESPACE"},

		{"session.lifetime", "SESSION_LIFETIME"},
		{"session.secure", "SESSION_SECURE"},
		{"logging.level", "LOG_LEVEL"},
		{"logging.development", "LOG_DEVELOPMENT"},
		{"i18n.dir", "I18N_DIR"},
		{"i18n.default_lang", "DEFAULT_LANG"},
		{"i18n.watch", "I18N_WATCH"},
	}

	for _, m := range mappings {
		v.BindEnv(m.key, m.env)
	}

	// Defaults
	v.SetDefault("application.name", "PromptDeck")
	v.SetDefault("application.host", "")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.cache_ttl", 300*time.Second)
	v.SetDefault("application.cache_size", 128)
	v.SetDefault("application.default_budget", 200)
	v.SetDefault("google.thumbnail_workers", 8)
	v.SetDefault("google.cleanup_on_failure", false)
	v.SetDefault("ai.active_provider", "gemini")
	v.SetDefault("ai.providers.gemini.driver", "gemini")
	v.SetDefault("ai.providers.gemini.key_env", "GEMINI_KEY")
	v.SetDefault("ai.providers.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.providers.gemini.temperature", 0.7)
	v.SetDefault("ai.providers.genai.driver", "genai")
	v.SetDefault("ai.providers.genai.key_env", "GENAI_API_KEY")
	v.SetDefault("ai.providers.genai.model", "gemini-2.5-flash")
	v.SetDefault("ai.providers.genai.temperature", 0.7)
	v.SetDefault("ai.providers.mock.driver", "mock")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.namespace", "")
	v.SetDefault("session.lifetime", 12*time.Hour)
	v.SetDefault("session.cookie_name", "promptdeck_session")
	v.SetDefault("logging.level", "info")
	v.SetDefault("i18n.default_lang", "pt")
	v.SetDefault("i18n.watch", false)

	if err := v.ReadInConfig(); err != nil {
		// Ignore if config.yaml is missing
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Keys pasted from JSON key files keep their escaped newlines.
	cfg.Google.ServiceAccount.PrivateKey = strings.ReplaceAll(cfg.Google.ServiceAccount.PrivateKey, `\n`, "\n")

	if cfg.AI.ActiveProvider == "" {
		cfg.AI.ActiveProvider = "gemini"
	}

	return &cfg, nil
}
