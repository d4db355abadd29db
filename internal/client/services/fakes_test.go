package services

import (
	"bytes"
	"context"
	"sync"

	"github.com/dmitrijs2005/moodjournal/internal/client/api"
	"github.com/dmitrijs2005/moodjournal/internal/client/session"
	"github.com/dmitrijs2005/moodjournal/internal/common"
)

func testKey(b byte) []byte { return bytes.Repeat([]byte{b}, common.SymmetricKeySize) }

// fakeAPI is an in-memory server keyed by token.
type fakeAPI struct {
	mu sync.Mutex

	signupErr  error
	loginErr   error
	profileErr error
	historyErr error
	exportErr  error

	loginKey []byte
	username string
	posted   []api.Entry
	archive  *api.Archive
}

func (f *fakeAPI) Signup(ctx context.Context, username, password string) error { return f.signupErr }

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*api.Login, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &api.Login{Token: "tok-" + username, Key: append([]byte(nil), f.loginKey...)}, nil
}

func (f *fakeAPI) Profile(ctx context.Context, token string) (string, error) {
	if f.profileErr != nil {
		return "", f.profileErr
	}
	return f.username, nil
}

func (f *fakeAPI) Ping(ctx context.Context) error { return nil }

func (f *fakeAPI) PostEntry(ctx context.Context, token, encryptedText, encryptedVector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// newest first, like the server
	f.posted = append([]api.Entry{{ID: token, EncryptedText: encryptedText, EncryptedVector: encryptedVector}}, f.posted...)
	return nil
}

func (f *fakeAPI) History(ctx context.Context, token string) ([]api.Entry, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Entry(nil), f.posted...), nil
}

func (f *fakeAPI) Export(ctx context.Context, token string) (*api.Archive, error) {
	return f.archive, f.exportErr
}

type memStore struct {
	sess    *session.Session
	saveErr error
	cleared int
}

func (m *memStore) Save(ctx context.Context, s *session.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *s
	cp.Key = append([]byte(nil), s.Key...)
	m.sess = &cp
	return nil
}

func (m *memStore) Load(ctx context.Context) (*session.Session, error) {
	if m.sess == nil {
		return nil, session.ErrNoSession
	}
	cp := *m.sess
	cp.Key = append([]byte(nil), m.sess.Key...)
	return &cp, nil
}

func (m *memStore) Clear(ctx context.Context) error {
	m.cleared++
	m.sess = nil
	return nil
}

func rejected(status int) error { return &api.APIError{Status: status} }

