package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/moodjournal/internal/common"
	sc "github.com/dmitrijs2005/moodjournal/internal/server/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s3.NewPresignClient(c).PresignGetObject(ctx, in, optFns...)
	}
)

// Archive points at an uploaded export.
type Archive struct {
	URL       string
	ExpiresAt time.Time
}

type archiveEntry struct {
	ID              string    `json:"id"`
	EncryptedText   string    `json:"encryptedText"`
	EncryptedVector string    `json:"encryptedVector"`
	CreatedAt       time.Time `json:"createdAt"`
}

type archiveDocument struct {
	UserID     string         `json:"userId"`
	ExportedAt time.Time      `json:"exportedAt"`
	Entries    []archiveEntry `json:"entries"`
}

// ArchiveService uploads a user's ciphertext history to S3-compatible
// storage and hands back a short-lived download link.
type ArchiveService struct {
	entries *EntryService
	config  *sc.Config
	now     func() time.Time
}

func NewArchiveService(entries *EntryService, config *sc.Config) *ArchiveService {
	return &ArchiveService{entries: entries, config: config, now: time.Now}
}

// Enabled reports whether a bucket is configured.
func (s *ArchiveService) Enabled() bool {
	return s.config.S3Bucket != ""
}

func archiveKey(userID string, d time.Time) string {
	return fmt.Sprintf("archives/%s/%d/%02d/%02d/%v.json", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ArchiveService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Export writes the caller's entries (ciphertext only) as one JSON object
// and returns a presigned GET URL valid for ArchiveURLValidity. It returns
// common.ErrorNotConfigured when no bucket is set.
func (s *ArchiveService) Export(ctx context.Context, userID string) (*Archive, error) {
	if !s.Enabled() {
		return nil, common.ErrorNotConfigured
	}

	list, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := archiveDocument{UserID: userID, ExportedAt: now, Entries: make([]archiveEntry, 0, len(list))}
	for _, e := range list {
		doc.Entries = append(doc.Entries, archiveEntry{
			ID:              e.ID,
			EncryptedText:   e.EncryptedText,
			EncryptedVector: e.EncryptedVector,
			CreatedAt:       e.CreatedAt,
		})
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := archiveKey(userID, now)

	if err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("upload archive: %w", err)
	}

	validity := s.config.ArchiveURLValidity
	if validity <= 0 {
		validity = 15 * time.Minute
	}
	req, err := presignGetObject(client, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(validity))
	if err != nil {
		return nil, fmt.Errorf("presign archive: %w", err)
	}

	return &Archive{URL: req.URL, ExpiresAt: now.Add(validity)}, nil
}
