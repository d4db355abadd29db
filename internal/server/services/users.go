package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/dmitrijs2005/moodjournal/internal/logging"
	"github.com/dmitrijs2005/moodjournal/internal/server/models"
	"github.com/dmitrijs2005/moodjournal/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// KeyCustodian provisions wrapped keys at signup and releases them at login.
type KeyCustodian interface {
	Provision(ctx context.Context) ([]byte, error)
	Release(ctx context.Context, user *models.User) ([]byte, error)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(userID, userName string) (string, time.Time, error)
}

// Session is the result of a successful login. Key is the unwrapped journal
// key and must only travel in the login response.
type Session struct {
	UserID    string
	UserName  string
	Token     string
	ExpiresAt time.Time
	Key       []byte
}

// UserService provides account operations:
//   - Register: create a user with a fresh wrapped key
//   - Authenticate: verify a password, issue a token and release the key
//   - Profile: look up the caller
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	custodian   KeyCustodian
	issuer      TokenIssuer
	bcryptCost  int
	dummyHash   []byte
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, custodian KeyCustodian, issuer TokenIssuer,
	bcryptCost int, log logging.Logger) (*UserService, error) {

	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	// Compared against when the username is unknown, so that path costs the
	// same as a wrong password.
	dummy, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &UserService{
		db:          db,
		repomanager: m,
		custodian:   custodian,
		issuer:      issuer,
		bcryptCost:  bcryptCost,
		dummyHash:   dummy,
		log:         log,
	}, nil
}

// Register creates a user. Username and password must be non-empty; a taken
// username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	wrapped, err := s.custodian.Provision(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: provision key: %v", common.ErrorInternal, err)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash, WrappedKey: wrapped})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate checks credentials and, on success, returns a Session with a
// fresh token and the released key. Unknown user and wrong password both
// return common.ErrorUnauthorized after the same bcrypt work. A key that
// cannot be unwrapped fails the login with an error matching
// common.ErrKeyUnwrap.
func (s *UserService) Authenticate(ctx context.Context, userName, password string) (*Session, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	token, exp, err := s.issuer.Issue(user.ID, user.UserName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	key, err := s.custodian.Release(ctx, user)
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:    user.ID,
		UserName:  user.UserName,
		Token:     token,
		ExpiresAt: exp,
		Key:       key,
	}, nil
}

// Profile returns the account behind a verified token.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return user, nil
}
