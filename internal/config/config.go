// Package config layers defaults, a config file, GRAPHMOCK_* environment
// variables and command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "GRAPHMOCK"

// Keys, in config file notation.
const (
	KeySchema         = "schema"
	KeyFixtures       = "fixtures"
	KeyMapper         = "mapper"
	KeyAddr           = "server.addr"
	KeyTimeout        = "server.timeout"
	KeyPretty         = "server.pretty"
	KeyCORS           = "server.cors"
	KeyContextHeaders = "server.context-headers"
	KeyMaxBodyBytes   = "server.max-body-bytes"
	KeyIntrospection  = "graphql.introspection"
	KeyConcurrency    = "graphql.concurrency"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyOTelEndpoint   = "otel.endpoint"
	KeyOTelService    = "otel.service"
	KeyCacheSize      = "cache.size"
)

// Config reads settings from a viper instance. Flags beat the environment,
// which beats the file, which beats the defaults.
type Config struct {
	viper *viper.Viper
}

// New returns a Config with defaults and environment lookup in place.
func New() *Config {
	c := &Config{viper: viper.New()}
	c.viper.SetEnvPrefix(envPrefix)
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.viper.AutomaticEnv()
	c.loadDefaults()
	return c
}

func (c *Config) loadDefaults() {
	c.viper.SetDefault(KeySchema, []string{"schema.graphql"})
	c.viper.SetDefault(KeyFixtures, "")
	c.viper.SetDefault(KeyMapper, "")
	c.viper.SetDefault(KeyAddr, ":4000")
	c.viper.SetDefault(KeyTimeout, 10*time.Second)
	c.viper.SetDefault(KeyPretty, false)
	c.viper.SetDefault(KeyCORS, []string{})
	c.viper.SetDefault(KeyContextHeaders, []string{})
	c.viper.SetDefault(KeyMaxBodyBytes, 1<<20)
	c.viper.SetDefault(KeyIntrospection, true)
	c.viper.SetDefault(KeyConcurrency, 16)
	c.viper.SetDefault(KeyLogLevel, "info")
	c.viper.SetDefault(KeyLogFormat, "console")
	c.viper.SetDefault(KeyOTelEndpoint, "")
	c.viper.SetDefault(KeyOTelService, "graphmock")
	c.viper.SetDefault(KeyCacheSize, 0)
}

// ReadFile merges a config file. The format follows the extension.
func (c *Config) ReadFile(path string) error {
	c.viper.SetConfigFile(path)
	if err := c.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// BindFlag lets flag override key once it has been set on the command line.
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for config key %q", key)
	}
	return c.viper.BindPFlag(key, flag)
}

// Set overrides key for the lifetime of c.
func (c *Config) Set(key string, v any) { c.viper.Set(key, v) }

func (c *Config) SchemaGlobs() []string    { return c.list(KeySchema) }
func (c *Config) Fixtures() string         { return c.viper.GetString(KeyFixtures) }
func (c *Config) Mapper() string           { return c.viper.GetString(KeyMapper) }
func (c *Config) Addr() string             { return c.viper.GetString(KeyAddr) }
func (c *Config) Timeout() time.Duration   { return c.viper.GetDuration(KeyTimeout) }
func (c *Config) Pretty() bool             { return c.viper.GetBool(KeyPretty) }
func (c *Config) CORS() []string           { return c.list(KeyCORS) }
func (c *Config) ContextHeaders() []string { return c.list(KeyContextHeaders) }
func (c *Config) MaxBodyBytes() int64      { return c.viper.GetInt64(KeyMaxBodyBytes) }
func (c *Config) Introspection() bool      { return c.viper.GetBool(KeyIntrospection) }
func (c *Config) Concurrency() int         { return c.viper.GetInt(KeyConcurrency) }
func (c *Config) LogLevel() string         { return c.viper.GetString(KeyLogLevel) }
func (c *Config) LogFormat() string        { return c.viper.GetString(KeyLogFormat) }
func (c *Config) OTelEndpoint() string     { return c.viper.GetString(KeyOTelEndpoint) }
func (c *Config) OTelService() string      { return c.viper.GetString(KeyOTelService) }
func (c *Config) CacheSize() int           { return c.viper.GetInt(KeyCacheSize) }

// list reads a string list. Environment values are comma separated.
func (c *Config) list(key string) []string {
	out := []string{}
	for _, item := range c.viper.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
