// Package config loads client settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/transport"
)

// DefaultTimeout applies when the file does not set a timeout.
const DefaultTimeout = transport.DefaultTimeout

// Config is the contents of a config file.
type Config struct {
	// ServiceURL is the service root, e.g. https://host/odata.
	ServiceURL string `yaml:"service_url" validate:"omitempty,url"`

	// Protocol is the protocol version used for literals and headers.
	Protocol string `yaml:"protocol" validate:"omitempty,oneof=3 3.0 4 4.0 v3 v4 V3 V4"`

	// SchemaDir holds CUE schema files used instead of $metadata.
	SchemaDir string `yaml:"schema_dir"`

	// RecordingDB is the SQLite database exchanges are recorded to.
	RecordingDB string `yaml:"recording_db"`

	Timeout time.Duration     `yaml:"timeout" validate:"gte=0"`
	Headers map[string]string `yaml:"headers" validate:"dive,keys,required,excludes=:,endkeys"`
}

var validate = validator.New()

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Protocol: "4.0",
		Timeout:  DefaultTimeout,
	}
}

// Load reads and validates a config file. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ProtocolVersion parses Protocol.
func (c *Config) ProtocolVersion() (ir.Protocol, error) {
	return ir.ParseProtocol(c.Protocol)
}

// TransportOptions returns the client options the settings describe.
func (c *Config) TransportOptions() ([]transport.Option, error) {
	proto, err := c.ProtocolVersion()
	if err != nil {
		return nil, err
	}
	opts := []transport.Option{transport.WithProtocol(proto)}
	if c.Timeout > 0 {
		opts = append(opts, transport.WithTimeout(c.Timeout))
	}
	for _, name := range ir.SortedKeys(c.Headers) {
		opts = append(opts, transport.WithHeader(name, c.Headers[name]))
	}
	return opts, nil
}
