package config

import (
	"context"
	"os"
)

// SecretProvider resolves secret references into plaintext values.
type SecretProvider interface {
	// GetParametersBatch resolves every key it can. Keys it cannot find are
	// omitted from the result rather than reported as an error.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}

// secretsDirEnv names the directory FileProvider reads from when set.
const secretsDirEnv = "SECRETS_DIR"

// ProviderFromEnv picks the SecretProvider for this process: files under
// SECRETS_DIR when that is set, otherwise other environment variables.
func ProviderFromEnv() SecretProvider {
	if dir, ok := os.LookupEnv(secretsDirEnv); ok && dir != "" {
		return NewFileProvider(dir)
	}
	return NewEnvVarProvider()
}
