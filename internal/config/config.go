// Package config loads and validates application configuration from a YAML
// file and DEALDESK_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	CRM           CRMConfig           `yaml:"crm"`
	Objects       ObjectsConfig       `yaml:"objects"`
	Options       OptionsConfig       `yaml:"options"`
	Directory     DirectoryConfig     `yaml:"directory"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// CRMConfig describes the CRM backend connection.
type CRMConfig struct {
	BaseURL string `yaml:"base_url"`
	// TokenEnv names the environment variable holding the private-app
	// bearer token, so the token itself never lives in the config file.
	TokenEnv       string               `yaml:"token_env"`
	Timeout        time.Duration        `yaml:"timeout"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig describes circuit breaker settings for CRM calls.
type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// ObjectsConfig maps the fixed external object-type identifiers. The custom
// object types carry opaque installation-specific identifiers, so they are
// configuration rather than constants.
type ObjectsConfig struct {
	CampaignDeal        string `yaml:"campaign_deal"`
	CommercialAgreement string `yaml:"commercial_agreement"`
	Advertiser          string `yaml:"advertiser"`
	Company             string `yaml:"company"`
	Contact             string `yaml:"contact"`
	ProductCatalog      string `yaml:"product_catalog"`
}

// OptionsConfig carries the option lists injected at startup instead of
// being imported as module-level singletons.
type OptionsConfig struct {
	Countries      []string `yaml:"countries"`
	DefaultCountry string   `yaml:"default_country"`
	CampaignTypes  []string `yaml:"campaign_types"`
	LineItemTypes  []string `yaml:"line_item_types"`
}

// DirectoryConfig describes listing and search behavior for the directory
// object types.
type DirectoryConfig struct {
	// FetchCap bounds the bulk fetch that search and pagination filter
	// client-side.
	FetchCap        int           `yaml:"fetch_cap"`
	DefaultPageSize int           `yaml:"default_page_size"`
	DebounceDelay   time.Duration `yaml:"debounce_delay"`
}

// ObservabilityConfig describes logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-Id"},
				MaxAge:         86400,
			},
		},
		CRM: CRMConfig{
			TokenEnv: "DEALDESK_CRM_TOKEN",
			Timeout:  10 * time.Second,
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          30 * time.Second,
			},
		},
		Objects: ObjectsConfig{
			Company: "companies",
			Contact: "contacts",
		},
		Options: OptionsConfig{
			Countries:      []string{"MX", "AR", "CO"},
			DefaultCountry: "MX",
			CampaignTypes:  []string{"branding", "performance", "always_on"},
			LineItemTypes:  []string{"initial", "upweight", "rebooking"},
		},
		Directory: DirectoryConfig{
			FetchCap:        200,
			DefaultPageSize: 20,
			DebounceDelay:   300 * time.Millisecond,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.CRM.BaseURL == "" {
		errs = append(errs, "crm.base_url is required")
	}
	if c.Objects.CampaignDeal == "" {
		errs = append(errs, "objects.campaign_deal is required")
	}
	if c.Objects.CommercialAgreement == "" {
		errs = append(errs, "objects.commercial_agreement is required")
	}
	if c.Objects.Advertiser == "" {
		errs = append(errs, "objects.advertiser is required")
	}
	if c.Options.DefaultCountry != "" && !contains(c.Options.Countries, c.Options.DefaultCountry) {
		errs = append(errs, "options.default_country must be one of options.countries")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Token resolves the CRM bearer token from the configured environment
// variable. Empty when unset.
func (c *CRMConfig) Token() string {
	if c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

// applyEnvOverrides reads DEALDESK_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DEALDESK_SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DEALDESK_CRM_BASE_URL"); v != "" {
		cfg.CRM.BaseURL = v
	}
	if v := os.Getenv("DEALDESK_OBJECTS_CAMPAIGN_DEAL"); v != "" {
		cfg.Objects.CampaignDeal = v
	}
	if v := os.Getenv("DEALDESK_OBJECTS_COMMERCIAL_AGREEMENT"); v != "" {
		cfg.Objects.CommercialAgreement = v
	}
	if v := os.Getenv("DEALDESK_OBJECTS_ADVERTISER"); v != "" {
		cfg.Objects.Advertiser = v
	}
	if v := os.Getenv("DEALDESK_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
