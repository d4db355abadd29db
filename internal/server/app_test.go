package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/moodjournal/internal/dbx"
	"github.com/dmitrijs2005/moodjournal/internal/server/config"
	"github.com/dmitrijs2005/moodjournal/internal/server/repositories/entries"
	"github.com/dmitrijs2005/moodjournal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodjournal/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepoManager struct{ migrateErr error }

func (s *stubRepoManager) RunMigrations(context.Context, *sql.DB) error { return s.migrateErr }
func (s *stubRepoManager) Users(db dbx.DBTX) users.Repository          { return users.NewPostgresRepository(db) }
func (s *stubRepoManager) Entries(db dbx.DBTX) entries.Repository {
	return entries.NewPostgresRepository(db)
}

func stubDeps(t *testing.T, rm repomanager.RepositoryManager) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	origOpen, origRM := openDB, newRepoManager
	t.Cleanup(func() { openDB, newRepoManager = origOpen, origRM })
	openDB = func(string) (*sql.DB, error) { return db, nil }
	newRepoManager = func() repomanager.RepositoryManager { return rm }
	return mock
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.BcryptCost = 4
	return c
}

func TestNewApp_Wires(t *testing.T) {
	mock := stubDeps(t, &stubRepoManager{})
	mock.ExpectPing()
	mock.ExpectClose()

	c := testConfig()
	c.S3Bucket = "archives"
	c.RedisAddr = "127.0.0.1:6379"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.NotNil(t, app.server)
	assert.NotNil(t, app.redis)

	require.NoError(t, app.close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_Failures(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		c := testConfig()
		c.SecretKey = ""
		_, err := NewApp(context.Background(), c)
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("open", func(t *testing.T) {
		orig := openDB
		t.Cleanup(func() { openDB = orig })
		openDB = func(string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

		_, err := NewApp(context.Background(), testConfig())
		assert.ErrorContains(t, err, "db init error: bad dsn")
	})

	t.Run("ping", func(t *testing.T) {
		mock := stubDeps(t, &stubRepoManager{})
		mock.ExpectPing().WillReturnError(errors.New("refused"))
		mock.ExpectClose()

		_, err := NewApp(context.Background(), testConfig())
		assert.ErrorContains(t, err, "db ping error: refused")
	})

	t.Run("migrations", func(t *testing.T) {
		mock := stubDeps(t, &stubRepoManager{migrateErr: errors.New("dirty")})
		mock.ExpectPing()
		mock.ExpectClose()

		_, err := NewApp(context.Background(), testConfig())
		assert.ErrorContains(t, err, "migrations error: dirty")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
