// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC so inspection dates and seasons never drift.
//  2. Load .env file via godotenv (non-fatal if absent).
//  3. Scan the environment for _SECRET_REF suffix variables.
//  4. If APP_ENV != "local", resolve the references via the SecretProvider
//     and inject the resolved values back into the environment.
//  5. Use envconfig to process struct tags and populate the Config struct.
//  6. Populate BuildInfo from linker-injected variables.
//  7. Validate the struct and the sweep schedule.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// ConfigError is the diagnostic error returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// secretRefSuffix marks pointer variables. DATABASE_URL_SECRET_REF holds the
// reference the provider resolves into DATABASE_URL.
const secretRefSuffix = "_SECRET_REF"

// localEnv is the APP_ENV value that bypasses secret resolution.
const localEnv = "local"

// secretResolveTimeout bounds the provider call during startup.
const secretResolveTimeout = 30 * time.Second

type (
	envLookup func(key string) (string, bool)
	envSet    func(key, value string) error
	environ   func() []string
)

// loaderDeps holds the injectable dependencies for the loader so tests do
// not mutate the process environment.
type loaderDeps struct {
	lookupEnv envLookup
	setEnv    envSet
	environ   environ
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
	}
}

// LoadConfig loads and validates the configuration. provider may be nil in
// local mode; elsewhere it is required whenever a _SECRET_REF is present.
func LoadConfig(provider SecretProvider) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps())
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	// Does not override variables that are already set.
	_ = godotenv.Load()

	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv != localEnv {
		if err := resolveSecretRefs(provider, deps); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	if _, err := cron.ParseStandard(cfg.Sweeper.Schedule); err != nil {
		return nil, &ConfigError{
			Type:    ErrSchedule,
			Message: fmt.Sprintf("invalid SWEEP_SCHEDULE %q", cfg.Sweeper.Schedule),
			Err:     err,
		}
	}

	return &cfg, nil
}

// resolveSecretRefs injects the value behind every NAME_SECRET_REF into NAME.
// A NAME that is already set wins over its reference.
func resolveSecretRefs(provider SecretProvider, deps loaderDeps) error {
	refTargets := make(map[string][]string)
	var refs, targets []string

	for _, entry := range deps.environ() {
		key, ref, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasSuffix(key, secretRefSuffix) || ref == "" {
			continue
		}
		target := strings.TrimSuffix(key, secretRefSuffix)
		if _, exists := deps.lookupEnv(target); exists {
			continue
		}
		if _, dup := refTargets[ref]; !dup {
			refs = append(refs, ref)
		}
		refTargets[ref] = append(refTargets[ref], target)
		targets = append(targets, target)
	}

	if len(refs) == 0 {
		return nil
	}

	if provider == nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("SecretProvider is required for non-local environments (need to resolve: %s)", strings.Join(targets, ", ")),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), secretResolveTimeout)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, refs)
	if err != nil {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("failed to resolve %d secret references", len(refs)),
			Err:     err,
		}
	}

	var missing []string
	for _, ref := range refs {
		value, ok := resolved[ref]
		if !ok {
			missing = append(missing, refTargets[ref]...)
			continue
		}
		for _, target := range refTargets[ref] {
			if err := deps.setEnv(target, value); err != nil {
				return &ConfigError{
					Type:    ErrSecretResolution,
					Message: fmt.Sprintf("failed to set resolved value for %s", target),
					Err:     err,
				}
			}
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSecretResolution,
			Message: fmt.Sprintf("secret references not found for: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}
