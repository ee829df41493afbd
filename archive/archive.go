// Package archive uploads final match summaries to S3-compatible storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/lguibr/pongarena/utils"
)

// MatchSummary is the document written for every finished match.
type MatchSummary struct {
	MatchID      string    `json:"matchId"`
	TournamentID string    `json:"tournamentId,omitempty"`
	Status       string    `json:"status"`
	Player1ID    string    `json:"player1Id"`
	Player2ID    string    `json:"player2Id"`
	Player1Score int       `json:"player1Score"`
	Player2Score int       `json:"player2Score"`
	WinnerID     string    `json:"winnerId,omitempty"`
	Disconnected bool      `json:"disconnected"`
	EndedAt      time.Time `json:"endedAt"`
}

// Key is the object key of the summary.
func (m MatchSummary) Key() string {
	prefix := "matches"
	if m.TournamentID != "" {
		prefix = "tournaments/" + m.TournamentID
	}
	return fmt.Sprintf("%s/%s.json", prefix, m.MatchID)
}

type Archiver interface {
	Archive(ctx context.Context, summary MatchSummary) error
}

// Nop discards summaries. It is used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, MatchSummary) error { return nil }

// putObjectAPI is the slice of the S3 client the archiver needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes summaries as JSON objects into one bucket.
type S3Archiver struct {
	client putObjectAPI
	bucket string
	log    zerolog.Logger
}

// NewS3Archiver builds an S3 client from settings. A custom endpoint
// (R2, MinIO) switches to path-style addressing.
func NewS3Archiver(ctx context.Context, s utils.Settings, logger zerolog.Logger) (*S3Archiver, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.ArchiveRegion)}
	if s.ArchiveKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.ArchiveKey, s.ArchiveSecret, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.ArchiveEndpoint != "" {
			o.BaseEndpoint = aws.String(s.ArchiveEndpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Archiver(client, s.ArchiveBucket, logger), nil
}

func newS3Archiver(client putObjectAPI, bucket string, logger zerolog.Logger) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: bucket,
		log:    logger.With().Str("component", "archive").Str("bucket", bucket).Logger(),
	}
}

func (a *S3Archiver) Archive(ctx context.Context, summary MatchSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("archive: encode %s: %w", summary.MatchID, err)
	}
	key := summary.Key()
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: upload %s: %w", key, err)
	}
	a.log.Debug().Str("key", key).Msg("match archived")
	return nil
}

// New returns an S3Archiver when a bucket is configured and Nop otherwise.
func New(ctx context.Context, s utils.Settings, logger zerolog.Logger) (Archiver, error) {
	if s.ArchiveBucket == "" {
		return Nop{}, nil
	}
	return NewS3Archiver(ctx, s, logger)
}
