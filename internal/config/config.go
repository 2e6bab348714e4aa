// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Site     SiteConfig     `mapstructure:"site"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Output   OutputConfig   `mapstructure:"output"`
	Storage  StorageConfig  `mapstructure:"storage"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metadata MetadataConfig `mapstructure:"metadata"`

	// DepartmentCodes maps lower-cased department name fragments to
	// short codes used as catalog keys.
	DepartmentCodes map[string]string `mapstructure:"department_codes"`
}

// SiteConfig identifies the site being scraped.
type SiteConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	FacultiesURL string `mapstructure:"faculties_url"`
	FacultyToken string `mapstructure:"faculty_token"`
}

// ScraperConfig governs the crawl pipeline.
type ScraperConfig struct {
	Workers      int `mapstructure:"workers"`
	DelaySeconds int `mapstructure:"delay_seconds"`
}

// HTTPConfig configures the fetch client and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
	UserAgent         string `mapstructure:"user_agent"`
}

// HeadlessConfig configures the headless rendering fallback.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
	MinHTMLBytes  int  `mapstructure:"min_html_bytes"`
}

// OutputConfig sets the local artifact locations.
type OutputConfig struct {
	Dir           string `mapstructure:"dir"`
	CatalogFile   string `mapstructure:"catalog_file"`
	ChangelogFile string `mapstructure:"changelog_file"`
}

// StorageConfig enables the optional GCS mirror.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig enables the optional Postgres run-history store.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	HistoryTable string `mapstructure:"history_table"`
	MaxConns     int    `mapstructure:"max_conns"`
}

// PubSubConfig enables the optional change notification.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the read-only API server.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetadataConfig is stamped into every catalog produced.
type MetadataConfig struct {
	Version      string `mapstructure:"version"`
	AcademicYear string `mapstructure:"academic_year"`
	ScraperName  string `mapstructure:"scraper_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MIVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://miva.edu.ng")
	v.SetDefault("site.faculties_url", "https://miva.edu.ng")
	v.SetDefault("site.faculty_token", "school")
	v.SetDefault("scraper.workers", 5)
	v.SetDefault("scraper.delay_seconds", 2)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.retry_delay_seconds", 2)
	v.SetDefault("http.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.min_html_bytes", 2048)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.catalog_file", "courses.json")
	v.SetDefault("output.changelog_file", "CHANGELOG.md")
	v.SetDefault("storage.prefix", "catalog")
	v.SetDefault("db.history_table", "scrape_runs")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
	v.SetDefault("metadata.version", "1.0.0")
	v.SetDefault("metadata.academic_year", "2024/2025")
	v.SetDefault("metadata.scraper_name", "MivaFocus Course Scraper")
	v.SetDefault("department_codes", defaultDepartmentCodes())
}

// defaultDepartmentCodes is the built-in department code table. Name
// fragments are matched case-insensitively against department names.
func defaultDepartmentCodes() map[string]string {
	return map[string]string{
		"computer science":                 "CSC",
		"cybersecurity":                    "CYB",
		"data science":                     "DTS",
		"information technology":           "IFT",
		"software engineering":             "SEN",
		"business management":              "BUA",
		"economics":                        "ECO",
		"accounting":                       "ACC",
		"public policy and administration": "PPA",
		"entrepreneurship":                 "ENT",
		"criminology and security studies": "CRS",
		"mass communication":               "MAC",
		"communication and media studies":  "MAC",
		"nursing science":                  "NUR",
		"public health":                    "PHH",
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must be set")
	}
	if c.Site.FacultiesURL == "" {
		return fmt.Errorf("site.faculties_url must be set")
	}
	if c.Scraper.Workers <= 0 {
		return fmt.Errorf("scraper.workers must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Output.CatalogFile == "" {
		return fmt.Errorf("output.catalog_file must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Timeout returns the HTTP timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between fetch retries.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.HTTP.RetryDelaySeconds) * time.Second
}

// RequestDelay returns the pause between serialized department fetches.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.Scraper.DelaySeconds) * time.Second
}
