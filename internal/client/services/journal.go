package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/client/api"
	"github.com/dmitrijs2005/moodjournal/internal/client/risk"
	"github.com/dmitrijs2005/moodjournal/internal/client/session"
	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/dmitrijs2005/moodjournal/internal/cryptox"
)

// DecryptFailedText stands in for an entry whose text could not be decrypted.
const DecryptFailedText = "[Error decrypting]"

// JournalAPI is the part of the REST client JournalService needs.
type JournalAPI interface {
	PostEntry(ctx context.Context, token, encryptedText, encryptedVector string) error
	History(ctx context.Context, token string) ([]api.Entry, error)
	Export(ctx context.Context, token string) (*api.Archive, error)
}

// HistoryItem is one decrypted entry. Vector is nil and Err set when the
// entry could not be decrypted or parsed.
type HistoryItem struct {
	ID        string
	CreatedAt time.Time
	Text      string
	Vector    *risk.Vector
	Err       error
}

type JournalService struct {
	api    JournalAPI
	cipher *cryptox.EntryCipher
}

func NewJournalService(a JournalAPI, cipher *cryptox.EntryCipher) *JournalService {
	return &JournalService{api: a, cipher: cipher}
}

func requireSession(sess *session.Session) error {
	if sess == nil || sess.Token == "" || len(sess.Key) == 0 {
		return session.ErrNoSession
	}
	return nil
}

// Write encrypts text and its tag vector under the session key and posts them.
func (s *JournalService) Write(ctx context.Context, sess *session.Session, text string, tags []string) error {
	if err := requireSession(sess); err != nil {
		return err
	}

	vec, err := risk.ParseTags(tags)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	if strings.TrimSpace(text) == "" && len(vec.Tags()) == 0 {
		return fmt.Errorf("entry has neither text nor tags: %w", common.ErrorValidation)
	}

	encText, err := s.cipher.EncryptString(text, sess.Key)
	if err != nil {
		return fmt.Errorf("encrypt text: %w", err)
	}
	encVec, err := s.cipher.EncryptJSON(vec, sess.Key)
	if err != nil {
		return fmt.Errorf("encrypt vector: %w", err)
	}

	return s.api.PostEntry(ctx, sess.Token, encText, encVec)
}

// History fetches and decrypts the caller's entries, newest first. A failure
// on one entry marks that item and does not abort the rest.
func (s *JournalService) History(ctx context.Context, sess *session.Session) ([]HistoryItem, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	list, err := s.api.History(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(list))
	for _, e := range list {
		items = append(items, s.decryptEntry(e, sess.Key))
	}
	return items, nil
}

func (s *JournalService) decryptEntry(e api.Entry, key []byte) HistoryItem {
	item := HistoryItem{ID: e.ID, CreatedAt: e.CreatedAt}

	// Text and vector are decrypted independently; the score only needs the vector.
	text, textErr := s.cipher.DecryptString(e.EncryptedText, key)
	if textErr != nil {
		item.Text = DecryptFailedText
		textErr = fmt.Errorf("decrypt text: %w", textErr)
	} else {
		item.Text = text
	}

	var v risk.Vector
	vecErr := s.cipher.DecryptJSON(e.EncryptedVector, key, &v)
	if vecErr != nil {
		vecErr = fmt.Errorf("decrypt vector: %w", vecErr)
	} else {
		item.Vector = &v
	}

	item.Err = errors.Join(textErr, vecErr)
	return item
}

// Analyze scores the decrypted history.
func (s *JournalService) Analyze(ctx context.Context, sess *session.Session) (risk.Report, error) {
	items, err := s.History(ctx, sess)
	if err != nil {
		return risk.Report{}, err
	}

	results := make([]risk.Result, len(items))
	for i, it := range items {
		results[i] = risk.Result{Vector: it.Vector}
	}
	return risk.Analyze(results), nil
}

// Export asks the server for a presigned link to a ciphertext archive.
func (s *JournalService) Export(ctx context.Context, sess *session.Session) (*api.Archive, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	return s.api.Export(ctx, sess.Token)
}
