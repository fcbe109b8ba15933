package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"profchat/profchat/config"
	"profchat/profchat/utils/logging"
	"profchat/profchat/utils/types"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// objectStore is the slice of *minio.Client the archive uses.
type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// TranscriptArchive keeps one JSON object per answered question.
type TranscriptArchive struct {
	client objectStore
	bucket string
	now    func() time.Time
}

type Transcript struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Question  string        `json:"question"`
	Matches   []types.Match `json:"matches"`
	Answer    string        `json:"answer"`
}

func NewTranscriptArchive(ctx context.Context, cfg config.Config) (*TranscriptArchive, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		},
	)
	if err != nil {
		return nil, err
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
		logging.AppLogger.Info("created transcript bucket", zap.String("bucket", bucket))
	}
	return &TranscriptArchive{client: client, bucket: bucket, now: time.Now}, nil
}

// TranscriptKey lays transcripts out by UTC day: transcripts/2024-05-01/<id>.json.
func TranscriptKey(id string, at time.Time) string {
	return path.Join("transcripts", at.UTC().Format("2006-01-02"), id+".json")
}

// Save uploads a transcript and returns its object key.
func (a *TranscriptArchive) Save(ctx context.Context, question string, matches []types.Match, answer string) (string, error) {
	defer logging.LogDuration(ctx, "archive_save")()

	t := Transcript{
		ID:        uuid.NewString(),
		CreatedAt: a.now().UTC(),
		Question:  question,
		Matches:   matches,
		Answer:    answer,
	}
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	key := TranscriptKey(t.ID, t.CreatedAt)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("archive put %s: %w", key, err)
	}
	return key, nil
}

func (a *TranscriptArchive) Get(ctx context.Context, key string) (*Transcript, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	var t Transcript
	if err := json.NewDecoder(obj).Decode(&t); err != nil {
		return nil, fmt.Errorf("archive get %s: %w", key, err)
	}
	return &t, nil
}
