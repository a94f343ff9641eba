package internal

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/David-Orizu31/todolist/internal/envvar"
)

// NewPostgreSQL instantiates the PostgreSQL connection pool using
// configuration defined in environment variables.
func NewPostgreSQL(conf *envvar.Configuration) (*pgxpool.Pool, error) {
	get := func(v string) (string, error) {
		res, err := conf.Get(v)
		if err != nil {
			return "", fmt.Errorf("conf.Get %s: %w", v, err)
		}

		return res, nil
	}

	databaseHost, err := get("DATABASE_HOST")
	if err != nil {
		return nil, err
	}

	databasePort, err := get("DATABASE_PORT")
	if err != nil {
		return nil, err
	}

	databaseUsername, err := get("DATABASE_USERNAME")
	if err != nil {
		return nil, err
	}

	databasePassword, err := get("DATABASE_PASSWORD")
	if err != nil {
		return nil, err
	}

	databaseName, err := get("DATABASE_NAME")
	if err != nil {
		return nil, err
	}

	databaseSSLMode, err := get("DATABASE_SSLMODE")
	if err != nil {
		return nil, err
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(databaseUsername, databasePassword),
		Host:   fmt.Sprintf("%s:%s", databaseHost, databasePort),
		Path:   databaseName,
	}

	q := dsn.Query()
	q.Add("sslmode", databaseSSLMode)

	dsn.RawQuery = q.Encode()

	pool, err := pgxpool.New(context.Background(), dsn.String())
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pool.Ping %w", err)
	}

	return pool, nil
}
