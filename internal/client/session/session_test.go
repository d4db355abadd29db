package session

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/moodjournal/internal/client/localdb"
	"github.com/dmitrijs2005/moodjournal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/dmitrijs2005/moodjournal/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), db
}

func testKey() []byte { return bytes.Repeat([]byte{0x42}, common.SymmetricKeySize) }

func TestSaveLoadClear(t *testing.T) {
	st, _ := openStore(t)
	ctx := context.Background()

	_, err := st.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, st.Save(ctx, &Session{Token: "tok", Username: "alice", Key: testKey()}))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, testKey(), got.Key)

	require.NoError(t, st.Clear(ctx))
	_, err = st.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSave_RejectsIncompleteSession(t *testing.T) {
	st, _ := openStore(t)
	ctx := context.Background()

	require.ErrorIs(t, st.Save(ctx, nil), common.ErrorValidation)
	require.ErrorIs(t, st.Save(ctx, &Session{Key: testKey()}), common.ErrorValidation)
	require.ErrorIs(t, st.Save(ctx, &Session{Token: "t", Key: []byte{1, 2}}), common.ErrorValidation)
}

func TestLoad_TokenWithoutKeyIsCleared(t *testing.T) {
	st, db := openStore(t)
	ctx := context.Background()

	repo := metadata.NewSQLiteRepository(db)
	require.NoError(t, repo.Set(ctx, keyToken, []byte("orphan")))

	_, err := st.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	v, err := repo.Get(ctx, keyToken)
	require.NoError(t, err)
	assert.Nil(t, v)
}

type failingRepo struct {
	metadata.Repository
	failOn string
}

func (f failingRepo) Set(ctx context.Context, key string, value []byte) error {
	if key == f.failOn {
		return errors.New("disk full")
	}
	return f.Repository.Set(ctx, key, value)
}

func TestSave_IsAtomic(t *testing.T) {
	st, db := openStore(t)
	ctx := context.Background()

	st.newRepo = func(tx dbx.DBTX) metadata.Repository {
		return failingRepo{Repository: metadata.NewSQLiteRepository(tx), failOn: keyAESKey}
	}

	err := st.Save(ctx, &Session{Token: "tok", Username: "bob", Key: testKey()})
	require.ErrorContains(t, err, "disk full")

	v, err := metadata.NewSQLiteRepository(db).Get(ctx, keyToken)
	require.NoError(t, err)
	assert.Nil(t, v, "token must not survive a failed save")
}

func TestWipe(t *testing.T) {
	key := testKey()
	s := &Session{Token: "t", Username: "u", Key: key}
	s.Wipe()

	assert.Empty(t, s.Token)
	assert.Nil(t, s.Key)
	assert.Equal(t, make([]byte, common.SymmetricKeySize), key)

	var nilSess *Session
	assert.NotPanics(t, nilSess.Wipe)
}
