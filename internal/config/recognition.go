package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvRecognitionProjectID = "VERISTAMP_RECOGNITION_PROJECT_ID"
	EnvRecognitionRegion    = "VERISTAMP_RECOGNITION_REGION"
	EnvRecognitionModel     = "VERISTAMP_RECOGNITION_MODEL"
	EnvRecognitionTimeout   = "VERISTAMP_RECOGNITION_TIMEOUT"
	EnvRecognitionMode      = "VERISTAMP_RECOGNITION_MODE"
	EnvRecognitionWorkers   = "VERISTAMP_RECOGNITION_WORKERS"
)

// RecognitionConfig holds settings for the vision-model recognition service.
// Mode controls reconciliation of model output against the template schema:
// "permissive" fills missing keys with empty values, "strict" fails the image.
type RecognitionConfig struct {
	ProjectID string `toml:"project_id"`
	Region    string `toml:"region"`
	Model     string `toml:"model"`
	Timeout   string `toml:"timeout"`
	Mode      string `toml:"mode"`
	Workers   int    `toml:"workers"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *RecognitionConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Strict reports whether strict reconciliation is enabled.
func (c *RecognitionConfig) Strict() bool {
	return c.Mode == "strict"
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RecognitionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RecognitionConfig) Merge(overlay *RecognitionConfig) {
	if overlay.ProjectID != "" {
		c.ProjectID = overlay.ProjectID
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
}

func (c *RecognitionConfig) loadDefaults() {
	if c.Region == "" {
		c.Region = "us-central1"
	}
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.Mode == "" {
		c.Mode = "permissive"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

func (c *RecognitionConfig) loadEnv() {
	if v := os.Getenv(EnvRecognitionProjectID); v != "" {
		c.ProjectID = v
	}
	if v := os.Getenv(EnvRecognitionRegion); v != "" {
		c.Region = v
	}
	if v := os.Getenv(EnvRecognitionModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvRecognitionTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvRecognitionMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvRecognitionWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
}

func (c *RecognitionConfig) validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("project_id required")
	}
	if c.Mode != "permissive" && c.Mode != "strict" {
		return fmt.Errorf("mode must be permissive or strict: %q", c.Mode)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}
