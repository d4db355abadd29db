// Package keys owns per-user journal keys on the server: it creates and
// wraps them at signup and releases them to the client after a successful
// login. Key transport is logged as its own audited operation.
package keys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/dmitrijs2005/moodjournal/internal/cryptox"
	"github.com/dmitrijs2005/moodjournal/internal/logging"
	"github.com/dmitrijs2005/moodjournal/internal/server/models"
)

type Custodian struct {
	secret []byte
	log    logging.Logger
}

func NewCustodian(secret string, log logging.Logger) *Custodian {
	return &Custodian{secret: []byte(secret), log: log.With("component", "key_custodian")}
}

// Provision creates a fresh key for a new account and returns it wrapped.
// The plaintext key is wiped before returning.
func (c *Custodian) Provision(ctx context.Context) ([]byte, error) {
	key, err := cryptox.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	defer common.WipeByteArray(key)

	wrapped, err := cryptox.WrapKey(key, c.secret)
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}
	return wrapped, nil
}

// Release unwraps the user's key for delivery in a login response. Every
// call leaves an audit record; failures carry common.ErrKeyUnwrap.
func (c *Custodian) Release(ctx context.Context, user *models.User) ([]byte, error) {
	key, err := cryptox.UnwrapKey(user.WrappedKey, c.secret)
	if err != nil {
		c.log.Error(ctx, "key release failed", "user_id", user.ID, "error", err)
		return nil, err
	}
	c.log.Info(ctx, "key released", "user_id", user.ID)
	return key, nil
}
