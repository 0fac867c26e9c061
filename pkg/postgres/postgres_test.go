package postgres

import (
	"testing"

	"leilao-insights/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db",
		Port:     "5433",
		User:     "leilao",
		Password: "pw",
		DBName:   "leilao_insights",
		SSLMode:  "disable",
	}

	dsn := DSN(cfg)
	assert.Equal(t, "host=db port=5433 user=leilao password=pw dbname=leilao_insights sslmode=disable", dsn)

	parsed, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db", parsed.ConnConfig.Host)
	assert.Equal(t, uint16(5433), parsed.ConnConfig.Port)
	assert.Equal(t, "leilao_insights", parsed.ConnConfig.Database)
}
