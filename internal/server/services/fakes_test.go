package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/dmitrijs2005/moodjournal/internal/dbx"
	"github.com/dmitrijs2005/moodjournal/internal/server/models"
	"github.com/dmitrijs2005/moodjournal/internal/server/repositories/entries"
	"github.com/dmitrijs2005/moodjournal/internal/server/repositories/users"
)

// memStore backs fake repositories with maps, enforcing the same unique and
// ordering rules as the PostgreSQL schema.
type memStore struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*models.User
	entries []*models.Entry
	now     time.Time

	usersErr   error
	entriesErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}, now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

type fakeRepoManager struct{ s *memStore }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository          { return (*fakeUsersRepo)(f.s) }
func (f *fakeRepoManager) Entries(dbx.DBTX) entries.Repository      { return (*fakeEntriesRepo)(f.s) }

type fakeUsersRepo memStore

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usersErr != nil {
		return nil, m.usersErr
	}
	for _, existing := range m.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = m.nextID("u")
	u.CreatedAt = m.now
	cp := *u
	m.users[u.ID] = &cp
	return u, nil
}

func (r *fakeUsersRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usersErr != nil {
		return nil, m.usersErr
	}
	for _, u := range m.users {
		if u.UserName == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usersErr != nil {
		return nil, m.usersErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeEntriesRepo memStore

func (r *fakeEntriesRepo) Create(_ context.Context, e *models.Entry) (*models.Entry, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entriesErr != nil {
		return nil, m.entriesErr
	}
	m.now = m.now.Add(time.Minute)
	e.ID = m.nextID("e")
	e.CreatedAt = m.now
	cp := *e
	m.entries = append(m.entries, &cp)
	return e, nil
}

func (r *fakeEntriesRepo) ListByUser(_ context.Context, userID string) ([]*models.Entry, error) {
	m := (*memStore)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entriesErr != nil {
		return nil, m.entriesErr
	}
	out := make([]*models.Entry, 0)
	for _, e := range m.entries {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var errBoom = errors.New("boom")
