// Package config provides the server configuration
package config

import (
	"crypto/tls"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
)

// Environment variables used when the configuration does not specify the value
const (
	EnvMoodleURL = "MOODLE_URL"
	EnvLogLevel  = "MOODLE_MCP_LOG_LEVEL"
)

// Defaults
const (
	DefaultServerName     = "moodle-mcp"
	DefaultRequestTimeout = 60 * time.Second
	DefaultForumPageSize  = 5
	DefaultLogLevel       = "INFO"
	DefaultHTTPAddr       = "127.0.0.1:8080"
	DefaultHTTPEndpoint   = "/mcp"
)

// Config of the server
type Config struct {
	// ServerName is reported to MCP clients on initialize
	ServerName string `json:"server_name,omitempty" yaml:"server_name,omitempty"`
	// MoodleURL is the site URL, it may include the REST path
	MoodleURL string `json:"moodle_url,omitempty" yaml:"moodle_url,omitempty"`
	// RequestTimeout is the timeout of upstream HTTP requests, e.g. 30s
	RequestTimeout string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	// InsecureSkipVerify disables TLS verification of the Moodle site,
	// use only with development sites.
	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	// ForumPageSize is the number of latest discussions listed for a forum
	ForumPageSize int `json:"forum_page_size,omitempty" yaml:"forum_page_size,omitempty"`
	// LogLevel is one of TRACE|DEBUG|INFO|NOTICE|WARNING|ERROR|CRITICAL
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	HTTP HTTPConfig `json:"http" yaml:"http"`
}

// HTTPConfig specifies the HTTP transport
type HTTPConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Load returns the configuration from file with defaults applied.
// Empty file name returns the configuration from the environment.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file != "" {
		err := configloader.UnmarshalAndExpand(file, cfg)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to load config %q", file)
		}
	}

	cfg.ServerName = values.StringsCoalesce(cfg.ServerName, DefaultServerName)
	cfg.MoodleURL = strings.TrimSpace(values.StringsCoalesce(cfg.MoodleURL, os.Getenv(EnvMoodleURL)))
	cfg.LogLevel = strings.ToUpper(values.StringsCoalesce(cfg.LogLevel, os.Getenv(EnvLogLevel), DefaultLogLevel))
	cfg.HTTP.Addr = values.StringsCoalesce(cfg.HTTP.Addr, DefaultHTTPAddr)
	cfg.HTTP.Endpoint = values.StringsCoalesce(cfg.HTTP.Endpoint, DefaultHTTPEndpoint)
	if cfg.ForumPageSize <= 0 {
		cfg.ForumPageSize = DefaultForumPageSize
	}
	return cfg, nil
}

// Validate returns error if the configuration can not be used
func (c *Config) Validate() error {
	if c.MoodleURL == "" {
		return errors.Errorf("moodle_url is required, or set %s environment variable", EnvMoodleURL)
	}
	if !strings.HasPrefix(c.MoodleURL, "http://") && !strings.HasPrefix(c.MoodleURL, "https://") {
		return errors.Errorf("invalid moodle_url: %q", c.MoodleURL)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if !strings.HasPrefix(c.HTTP.Endpoint, "/") {
		return errors.Errorf("invalid http.endpoint: %q", c.HTTP.Endpoint)
	}
	return nil
}

// Timeout returns the upstream request timeout
func (c *Config) Timeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return DefaultRequestTimeout, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 0, errors.Errorf("invalid request_timeout: %q", c.RequestTimeout)
	}
	return d, nil
}

// HTTPClient returns the client for upstream requests
func (c *Config) HTTPClient() (*http.Client, error) {
	timeout, err := c.Timeout()
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: timeout}
	if c.InsecureSkipVerify {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		client.Transport = tr
	}
	return client, nil
}
