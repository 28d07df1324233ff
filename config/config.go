// Package config loads per-service configuration from a config.yml plus an
// optional .env file, with environment variables taking precedence. Each
// binary composes its own config struct from package-level Config types that
// expose ApplyDefaults and Validate.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderOption customizes a Load call.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	configFile string
	envFile    string
	envPrefix  string
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// WithEnvPrefix sets the environment variable prefix (default: REGISTRY).
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *loaderConfig) { lc.envPrefix = prefix }
}

// Load reads configuration for a service into cfg. Lookup order: config.yml
// (searched near cmd/<service>/), then .env, then environment variables, the
// later sources overriding the earlier ones.
func Load(serviceName string, cfg interface{}, opts ...LoaderOption) error {
	lc := loaderConfig{envPrefix: "REGISTRY"}
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.envFile == "" {
		lc.envFile = findFirst(envSearchPaths(serviceName))
	}
	if lc.envFile != "" {
		if err := godotenv.Load(lc.envFile); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: failed to load %s: %v\n", lc.envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if lc.configFile == "" {
		lc.configFile = findFirst(configSearchPaths(serviceName))
	}
	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", lc.configFile, err)
		}
	}

	v.SetEnvPrefix(lc.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvironment(v, lc.envPrefix)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for service %s: %w", serviceName, err)
	}
	return nil
}

// configSearchPaths lists the locations probed for config.yml, closest first.
func configSearchPaths(serviceName string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../../cmd/%s/config.yml", serviceName),
		"./config.yml",
	}
}

func envSearchPaths(serviceName string) []string {
	return []string{
		fmt.Sprintf(".env.%s", serviceName),
		fmt.Sprintf("./cmd/%s/.env", serviceName),
		".env",
	}
}

func findFirst(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// bindEnvironment pushes every prefixed environment variable into viper as a
// nested key. Viper's AutomaticEnv only consults the environment for keys it
// already knows about, so REGISTRY_AUTH_TOKEN_TTL would otherwise never reach
// auth.token_ttl on a struct-only config.
func bindEnvironment(v *viper.Viper, prefix string) {
	p := prefix + "_"
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], p) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], p))
		for _, variant := range keyVariants(key) {
			v.Set(variant, pair[1])
		}
	}
}

// keyVariants expands AUTH_TOKEN_TTL-style names into the nested key shapes a
// config struct may use: auth.token.ttl, auth.token_ttl, auth_token.ttl, ...
func keyVariants(lowerKey string) []string {
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}
	variants := []string{strings.ReplaceAll(lowerKey, "_", ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return variants
}
