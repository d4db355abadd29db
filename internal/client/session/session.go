// Package session holds the logged-in client state: bearer token, username
// and the unwrapped journal key. The three travel together; a Session is
// passed explicitly to every API and journal call.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moodjournal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/dmitrijs2005/moodjournal/internal/dbx"
)

// ErrNoSession is returned by Load when nothing is persisted.
var ErrNoSession = errors.New("not logged in")

const (
	keyToken    = "session_token"
	keyUsername = "session_username"
	keyAESKey   = "session_aes_key"
)

type Session struct {
	Token    string
	Username string
	Key      []byte
}

// Wipe zeroes the key in place and drops the token.
func (s *Session) Wipe() {
	if s == nil {
		return
	}
	common.WipeByteArray(s.Key)
	s.Key = nil
	s.Token = ""
}

// Store persists a session in the client's metadata table.
type Store struct {
	db      *sql.DB
	newRepo func(dbx.DBTX) metadata.Repository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		newRepo: func(tx dbx.DBTX) metadata.Repository { return metadata.NewSQLiteRepository(tx) },
	}
}

// Save writes token, username and key in one transaction.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" || len(sess.Key) != common.SymmetricKeySize {
		return fmt.Errorf("save session: %w", common.ErrorValidation)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.newRepo(tx)
		if err := repo.Set(ctx, keyToken, []byte(sess.Token)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyUsername, []byte(sess.Username)); err != nil {
			return err
		}
		return repo.Set(ctx, keyAESKey, sess.Key)
	})
}

// Load restores the persisted session. A half-written session (token without
// key or the reverse) is treated as absent and cleared.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	repo := s.newRepo(s.db)

	token, err := repo.Get(ctx, keyToken)
	if err != nil {
		return nil, err
	}
	key, err := repo.Get(ctx, keyAESKey)
	if err != nil {
		return nil, err
	}
	username, err := repo.Get(ctx, keyUsername)
	if err != nil {
		return nil, err
	}

	if len(token) == 0 || len(key) != common.SymmetricKeySize {
		common.WipeByteArray(key)
		if len(token) > 0 || len(key) > 0 {
			if err := s.Clear(ctx); err != nil {
				return nil, err
			}
		}
		return nil, ErrNoSession
	}

	return &Session{Token: string(token), Username: string(username), Key: key}, nil
}

// Clear removes all session values together.
func (s *Store) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.newRepo(tx)
		for _, k := range []string{keyToken, keyUsername, keyAESKey} {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}
