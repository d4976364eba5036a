package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int           `env:"TEST_CFG_PORT" envDefault:"5001"`
	Expiry  time.Duration `env:"TEST_CFG_EXPIRY" envDefault:"168h"`
	Brokers []string      `env:"TEST_CFG_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Debug   bool          `env:"TEST_CFG_DEBUG" envDefault:"false"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 5001, cfg.Port)
	assert.Equal(t, 168*time.Hour, cfg.Expiry)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.False(t, cfg.Debug)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_EXPIRY", "15m")
	t.Setenv("TEST_CFG_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TEST_CFG_DEBUG", "true")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.Expiry)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
	assert.True(t, cfg.Debug)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("TEST_CFG_EXPIRY", "forever")

	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_SECRET,required"`
}

func TestLoad_RequiredField(t *testing.T) {
	var missing requiredConfig
	assert.Error(t, Load(&missing))

	t.Setenv("TEST_CFG_SECRET", "s3cr3t")
	var present requiredConfig
	require.NoError(t, Load(&present))
	assert.Equal(t, "s3cr3t", present.Secret)
}

type validatedConfig struct {
	Policy string `env:"TEST_CFG_POLICY" envDefault:"warn"`
}

func (c *validatedConfig) Validate() error {
	if c.Policy != "warn" && c.Policy != "reject" {
		return errors.New("unknown policy")
	}
	return nil
}

func TestLoad_RunsValidate(t *testing.T) {
	var ok validatedConfig
	require.NoError(t, Load(&ok))

	t.Setenv("TEST_CFG_POLICY", "shrug")
	var bad validatedConfig
	err := Load(&bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config: unknown policy")
}
