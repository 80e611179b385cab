package database

import (
	"io/fs"
	"strings"
	"testing"

	"robohub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		content, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+file.Name())
		require.NoError(t, err)

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			assert.Contains(t, string(content), directive, file.Name())
		}
	}
}

func TestSessionTokensTableIsCreated(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, migrationsDir+"/00001_create_session_tokens_table.sql")
	require.NoError(t, err)

	sql := strings.ToLower(string(content))
	assert.Contains(t, sql, "create table if not exists session_tokens")
	assert.Contains(t, sql, "session_key varchar(255) primary key")
	assert.Contains(t, sql, "drop table if exists session_tokens")
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host: "db", Port: "5433", User: "robo", Password: "p@ss", Database: "hub", Schema: "public",
	})

	assert.True(t, strings.HasPrefix(dsn, "postgres://robo:p%40ss@db:5433/hub?"))
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "search_path=public")
}
