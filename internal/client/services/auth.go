package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/moodjournal/internal/client/api"
	"github.com/dmitrijs2005/moodjournal/internal/client/session"
	"github.com/dmitrijs2005/moodjournal/internal/common"
)

// AccountAPI is the part of the REST client AuthService needs.
type AccountAPI interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*api.Login, error)
	Profile(ctx context.Context, token string) (string, error)
	Ping(ctx context.Context) error
}

// SessionStore persists the session between runs.
type SessionStore interface {
	Save(ctx context.Context, sess *session.Session) error
	Load(ctx context.Context) (*session.Session, error)
	Clear(ctx context.Context) error
}

type AuthService struct {
	api   AccountAPI
	store SessionStore
}

func NewAuthService(a AccountAPI, store SessionStore) *AuthService {
	return &AuthService{api: a, store: store}
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("username and password are required: %w", common.ErrorValidation)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	return s.api.Signup(ctx, username, password)
}

// Login authenticates and persists the resulting session. The returned
// session owns the key; call Wipe when done with it.
func (s *AuthService) Login(ctx context.Context, username, password string) (*session.Session, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess := &session.Session{Token: res.Token, Username: username, Key: res.Key}
	if err := s.store.Save(ctx, sess); err != nil {
		sess.Wipe()
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Logout discards the persisted session and wipes sess. There is no server
// call; the token simply stops being used.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	sess.Wipe()
	return s.store.Clear(ctx)
}

// Current loads the persisted session without contacting the server.
func (s *AuthService) Current(ctx context.Context) (*session.Session, error) {
	return s.store.Load(ctx)
}

// Restore loads the persisted session and checks it against /api/profile.
// A session the server rejects is cleared and reported as
// session.ErrNoSession. Other errors leave it in place.
func (s *AuthService) Restore(ctx context.Context) (*session.Session, error) {
	sess, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	name, err := s.api.Profile(ctx, sess.Token)
	if err != nil {
		if api.IsSessionRejected(err) {
			sess.Wipe()
			if cerr := s.store.Clear(ctx); cerr != nil {
				return nil, cerr
			}
			return nil, session.ErrNoSession
		}
		sess.Wipe()
		return nil, err
	}
	if name != "" {
		sess.Username = name
	}
	return sess, nil
}

func (s *AuthService) Profile(ctx context.Context, sess *session.Session) (string, error) {
	if sess == nil {
		return "", session.ErrNoSession
	}
	return s.api.Profile(ctx, sess.Token)
}

func (s *AuthService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx)
}

// IsLoggedOut reports whether err means the user has to log in again.
func IsLoggedOut(err error) bool {
	return errors.Is(err, session.ErrNoSession) || api.IsSessionRejected(err)
}
