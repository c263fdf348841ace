package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
service_url: https://services.example.org/V4/Northwind
protocol: "3.0"
schema_dir: ./schema
recording_db: ./exchanges.db
timeout: 5s
headers:
  Authorization: Bearer token
  X-Tenant: north
`))
	require.NoError(t, err)

	assert.Equal(t, "https://services.example.org/V4/Northwind", cfg.ServiceURL)
	assert.Equal(t, "./schema", cfg.SchemaDir)
	assert.Equal(t, "./exchanges.db", cfg.RecordingDB)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, map[string]string{"Authorization": "Bearer token", "X-Tenant": "north"}, cfg.Headers)

	proto, err := cfg.ProtocolVersion()
	require.NoError(t, err)
	assert.Equal(t, ir.V3, proto)

	opts, err := cfg.TransportOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 4)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	proto, err := cfg.ProtocolVersion()
	require.NoError(t, err)
	assert.Equal(t, ir.V4, proto)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"unknown field", "service_uri: http://x\n", "field service_uri not found"},
		{"bad url", "service_url: not a url\n", `Config.ServiceURL: failed "url"`},
		{"bad protocol", "protocol: \"2.0\"\n", `Config.Protocol: failed "oneof"`},
		{"negative timeout", "timeout: -1s\n", `Config.Timeout: failed "gte"`},
		{"bad header name", "headers:\n  \"X:Y\": v\n", `failed "excludes"`},
		{"malformed", "service_url: [\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "odata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service_url: http://localhost:8080/odata\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/odata", cfg.ServiceURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("protocol: \"9\"\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, bad)
}
