package envvar_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/David-Orizu31/todolist/internal/envvar"
)

type providerStub struct {
	values map[string]string
	err    error
}

func (p providerStub) Get(key string) (string, error) {
	if p.err != nil {
		return "", p.err
	}

	return p.values[key], nil
}

func TestConfigurationGet(t *testing.T) {
	t.Run("plain environment variable", func(t *testing.T) {
		t.Setenv("DATABASE_HOST", "localhost")

		conf := envvar.New(providerStub{})

		got, err := conf.Get("DATABASE_HOST")
		require.NoError(t, err)
		require.Equal(t, "localhost", got)
	})

	t.Run("secure variable resolves through provider", func(t *testing.T) {
		t.Setenv("DATABASE_PASSWORD_SECURE", "database:password")

		conf := envvar.New(providerStub{values: map[string]string{"database:password": "s3cret"}})

		got, err := conf.Get("DATABASE_PASSWORD")
		require.NoError(t, err)
		require.Equal(t, "s3cret", got)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Setenv("DATABASE_PASSWORD_SECURE", "database:password")

		conf := envvar.New(providerStub{err: errors.New("sealed")})

		_, err := conf.Get("DATABASE_PASSWORD")
		require.Error(t, err)
	})
}
