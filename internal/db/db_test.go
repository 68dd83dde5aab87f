package db

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wicart/storefront/config"
)

func TestPostgresURL(t *testing.T) {
	raw := PostgresURL(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     6543,
		User:     "shop",
		Password: "p@ss word",
		DBName:   "storefront",
		UseSSL:   true,
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:6543", u.Host)
	assert.Equal(t, "shop", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pw)
	assert.Equal(t, "/storefront", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestPostgresURLDisablesSSLByDefault(t *testing.T) {
	u, err := url.Parse(PostgresURL(config.DatabaseConfig{Host: "localhost", Port: 5432}))
	require.NoError(t, err)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}
