// Package config reads the updater settings from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/giantswarm/microerror"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/policy"
)

type Config struct {
	AWS     AWSConfig
	Ranges  RangesConfig
	Policy  PolicyConfig
	Run     RunConfig
	Metrics MetricsConfig
}

// AWSConfig holds where and as whom resources are managed.
type AWSConfig struct {
	Region  string `env:"AWS_REGION"`
	RoleARN string `env:"ROLE_ARN"`
	// OrgARN is the organization new prefix lists are shared with.
	OrgARN string `env:"AWS_ORG_ARN"`
}

// RangesConfig holds where the IP ranges document is downloaded from.
type RangesConfig struct {
	URL         string        `env:"RANGES_URL"`
	ExpectedMD5 string        `env:"RANGES_EXPECTED_MD5"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
}

// PolicyConfig holds where the service policy is read from, either a file
// or an AppConfig configuration profile.
type PolicyConfig struct {
	File          string `env:"POLICY_FILE"`
	AppName       string `env:"APP_CONFIG_APP_NAME"`
	AppEnvName    string `env:"APP_CONFIG_APP_ENV_NAME"`
	AppConfigName string `env:"APP_CONFIG_NAME"`
}

type RunConfig struct {
	Concurrency         int    `env:"CONCURRENCY" envDefault:"4"`
	RequireAllSucceeded bool   `env:"REQUIRE_ALL_SUCCEEDED" envDefault:"false"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
}

type MetricsConfig struct {
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(environment map[string]string) (Config, error) {
	return load(env.Options{Environment: environment})
}

func load(opts env.Options) (Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg.AWS, opts); err != nil {
		return Config{}, microerror.Maskf(errors.InvalidConfigError, "parsing AWS config: %s", err)
	}
	if err := env.ParseWithOptions(&cfg.Ranges, opts); err != nil {
		return Config{}, microerror.Maskf(errors.InvalidConfigError, "parsing ranges config: %s", err)
	}
	if err := env.ParseWithOptions(&cfg.Policy, opts); err != nil {
		return Config{}, microerror.Maskf(errors.InvalidConfigError, "parsing policy config: %s", err)
	}
	if err := env.ParseWithOptions(&cfg.Run, opts); err != nil {
		return Config{}, microerror.Maskf(errors.InvalidConfigError, "parsing run config: %s", err)
	}
	if err := env.ParseWithOptions(&cfg.Metrics, opts); err != nil {
		return Config{}, microerror.Maskf(errors.InvalidConfigError, "parsing metrics config: %s", err)
	}

	if cfg.Ranges.URL == "" {
		cfg.Ranges.URL = ipranges.DefaultURL
	}

	return cfg, nil
}

// UsesAppConfig tells whether the policy is read from AppConfig.
func (c PolicyConfig) UsesAppConfig() bool {
	return c.AppName != "" || c.AppEnvName != "" || c.AppConfigName != ""
}

// Source returns the policy source the configuration points at. The
// AppConfig API is only used for AppConfig sources.
func (c PolicyConfig) Source(api policy.AppConfigAPI) policy.Source {
	if c.File != "" {
		return policy.FileSource{Path: c.File}
	}

	return policy.AppConfigSource{
		API:           api,
		Application:   c.AppName,
		Environment:   c.AppEnvName,
		Configuration: c.AppConfigName,
	}
}

// Validate checks the configuration is complete.
func (c Config) Validate() error {
	if c.AWS.Region == "" {
		return microerror.Maskf(errors.InvalidConfigError, "AWS_REGION is required")
	}
	if c.Run.Concurrency < 1 {
		return microerror.Maskf(errors.InvalidConfigError, "CONCURRENCY must be at least 1, got %d", c.Run.Concurrency)
	}
	if c.Ranges.HTTPTimeout <= 0 {
		return microerror.Maskf(errors.InvalidConfigError, "HTTP_TIMEOUT must be positive, got %s", c.Ranges.HTTPTimeout)
	}

	if c.Policy.File != "" && c.Policy.UsesAppConfig() {
		return microerror.Maskf(errors.InvalidConfigError, "POLICY_FILE and APP_CONFIG_* are mutually exclusive")
	}
	if c.Policy.File == "" {
		if c.Policy.AppName == "" || c.Policy.AppEnvName == "" || c.Policy.AppConfigName == "" {
			return microerror.Maskf(errors.InvalidConfigError, "either POLICY_FILE or all of APP_CONFIG_APP_NAME, APP_CONFIG_APP_ENV_NAME and APP_CONFIG_NAME are required")
		}
	}

	return nil
}
