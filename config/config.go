// Package config implements the runtime configuration layer that sits
// underneath the DSL's own config{} block (spec.md §3 ConfigBlock):
// process-level knobs the DSL source never speaks to, decoded with
// mapstructure the way the teacher's Air struct is populated, from a JSON
// overlay file (environment variables are not read) rather than the teacher's
// TOML/ini/YAML paths, which this module deliberately does not carry
// forward (see DESIGN.md, "Dropped teacher modules").
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
)

// RuntimeConfig holds the ambient server knobs the DSL's own config{}
// block doesn't express: timeouts, header limits, graceful-shutdown grace
// period, and the listener's PROXY-protocol behavior. It is decoded
// independently of the DSL parse; DSL-level host/port values, when
// present, override Address at startup (the DSL tls{} block is handed to
// the server separately)
// (SPEC_FULL.md §4.10).
type RuntimeConfig struct {
	AppName string `mapstructure:"app_name"`

	Address string `mapstructure:"address"`

	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	ACMEEnabled      bool   `mapstructure:"acme_enabled"`
	ACMEDirectoryURL string `mapstructure:"acme_directory_url"`
	ACMECertRoot     string `mapstructure:"acme_cert_root"`

	HTTP2Enabled bool `mapstructure:"http2_enabled"`

	PROXYEnabled            bool          `mapstructure:"proxy_enabled"`
	PROXYReadHeaderTimeout  time.Duration `mapstructure:"proxy_read_header_timeout"`
	PROXYRelayerIPWhitelist []string      `mapstructure:"proxy_relayer_ip_whitelist"`

	LoggerMinLevel string `mapstructure:"logger_min_level"`
}

// Default returns the RuntimeConfig's zero-overlay defaults, mirroring the
// teacher's `Default` Air instance (the values New() starts every server
// from before any config file or DSL override is applied).
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		AppName:             "netterd",
		Address:             "localhost:8080",
		ReadTimeout:         0,
		ReadHeaderTimeout:   0,
		WriteTimeout:        0,
		IdleTimeout:         0,
		MaxHeaderBytes:      1 << 20,
		ShutdownGracePeriod: 10 * time.Second,
		HTTP2Enabled:        true,
		LoggerMinLevel:      "info",
	}
}

// LoadOverlay decodes a JSON overlay file into a copy of base, using
// mapstructure the way the teacher decodes its config sources, and returns
// the merged result. A non-existent path is not an error: it simply means
// no overlay was supplied.
func LoadOverlay(base *RuntimeConfig, path string) (*RuntimeConfig, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: failed to read overlay %q: %w", path, err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("config: overlay %q is not valid JSON: %w", path, err)
	}

	merged := *base
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &merged,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("config: failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("config: failed to decode overlay %q: %w", path, err)
	}
	return &merged, nil
}

// ApplyDSLConfig layers the DSL's own config{host,port,type} block on top
// of the RuntimeConfig's Address, when the DSL source supplied one and the
// caller didn't already pin an explicit -addr flag (cmd/netterd).
func (c *RuntimeConfig) ApplyDSLConfig(host, port string) {
	if host == "" || port == "" {
		return
	}
	c.Address = host + ":" + port
}
