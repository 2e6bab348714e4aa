package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://miva.edu.ng", cfg.Site.BaseURL)
	require.Equal(t, 5, cfg.Scraper.Workers)
	require.Equal(t, 15*time.Second, cfg.Timeout())
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.Equal(t, 2*time.Second, cfg.RetryDelay())
	require.Equal(t, 2*time.Second, cfg.RequestDelay())
	require.Equal(t, "courses.json", cfg.Output.CatalogFile)
	require.Equal(t, "CHANGELOG.md", cfg.Output.ChangelogFile)
	require.Equal(t, "1.0.0", cfg.Metadata.Version)
	require.Equal(t, "2024/2025", cfg.Metadata.AcademicYear)
	require.Equal(t, "CSC", cfg.DepartmentCodes["computer science"])
	require.Equal(t, "NUR", cfg.DepartmentCodes["nursing science"])
	require.False(t, cfg.Headless.Enabled)
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
site:
  base_url: https://example.edu
  faculties_url: https://example.edu/schools
scraper:
  workers: 2
  delay_seconds: 1
http:
  timeout_seconds: 30
  max_retries: 1
headless:
  enabled: true
  max_parallel: 2
output:
  dir: /tmp/catalog
  catalog_file: data.json
db:
  dsn: postgres://localhost/miva
pubsub:
  project_id: demo
  topic_name: catalog-changes
department_codes:
  robotics: ROB
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://example.edu", cfg.Site.BaseURL)
	require.Equal(t, 2, cfg.Scraper.Workers)
	require.Equal(t, 30*time.Second, cfg.Timeout())
	require.True(t, cfg.Headless.Enabled)
	require.Equal(t, "data.json", cfg.Output.CatalogFile)
	require.Equal(t, "postgres://localhost/miva", cfg.DB.DSN)
	require.Equal(t, "catalog-changes", cfg.PubSub.TopicName)
	require.Equal(t, "ROB", cfg.DepartmentCodes["robotics"])
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Site:    SiteConfig{BaseURL: "https://example.edu", FacultiesURL: "https://example.edu"},
		Scraper: ScraperConfig{Workers: 5},
		HTTP:    HTTPConfig{TimeoutSeconds: 15},
		Output:  OutputConfig{CatalogFile: "courses.json"},
		Server:  ServerConfig{Port: 8080},
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing base url",
			mutate: func(c *Config) { c.Site.BaseURL = "" },
			want:   "site.base_url",
		},
		{
			name:   "missing faculties url",
			mutate: func(c *Config) { c.Site.FacultiesURL = "" },
			want:   "site.faculties_url",
		},
		{
			name:   "invalid workers",
			mutate: func(c *Config) { c.Scraper.Workers = 0 },
			want:   "scraper.workers",
		},
		{
			name:   "invalid timeout",
			mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 0 },
			want:   "http.timeout_seconds",
		},
		{
			name:   "negative retries",
			mutate: func(c *Config) { c.HTTP.MaxRetries = -1 },
			want:   "http.max_retries",
		},
		{
			name: "headless missing max parallel",
			mutate: func(c *Config) {
				c.Headless.Enabled = true
				c.Headless.MaxParallel = 0
			},
			want: "headless.max_parallel",
		},
		{
			name:   "missing catalog file",
			mutate: func(c *Config) { c.Output.CatalogFile = "" },
			want:   "output.catalog_file",
		},
		{
			name:   "invalid port",
			mutate: func(c *Config) { c.Server.Port = 0 },
			want:   "server.port",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
