package envvar

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/David-Orizu31/todolist/internal"
)

//go:generate counterfeiter -o envvartesting/provider.gen.go . Provider

// Provider represents the service used for retrieving secret values.
type Provider interface {
	Get(key string) (string, error)
}

// Configuration represents the settings required by this application,
// supporting plain environment variables as well as secret values resolved
// through the Provider.
type Configuration struct {
	provider Provider
}

// Load reads the env filename and loads it into ENV for the current process.
func Load(filename string) error {
	if filename == "" {
		return nil
	}

	if err := godotenv.Load(filename); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "godotenv.Load")
	}

	return nil
}

// New instantiates a Configuration using the received provider.
func New(provider Provider) *Configuration {
	return &Configuration{provider: provider}
}

// Get returns the value for the key, a "<key>_SECURE" variable indicates the
// actual value lives in the secrets provider and its contents are the lookup
// path to use.
func (c *Configuration) Get(key string) (string, error) {
	res := os.Getenv(key)

	valSecret := os.Getenv(key + "_SECURE")
	if valSecret == "" {
		return res, nil
	}

	res, err := c.provider.Get(valSecret)
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "provider.Get")
	}

	return res, nil
}
