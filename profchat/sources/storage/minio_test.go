package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"profchat/profchat/utils/types"

	"github.com/minio/minio-go/v7"
)

type fakeStore struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakeStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	f.bucket, f.key, f.contentType = bucketName, objectName, opts.ContentType
	b, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if int64(len(b)) != objectSize {
		return minio.UploadInfo{}, errors.New("size mismatch")
	}
	f.body = b
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, nil
}

func (f *fakeStore) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	return nil, errors.New("not implemented")
}

func TestTranscriptKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	if got := TranscriptKey("abc", at); got != "transcripts/2024-05-02/abc.json" {
		t.Errorf("TranscriptKey = %q", got)
	}
}

func TestSaveUploadsTranscript(t *testing.T) {
	store := &fakeStore{}
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := &TranscriptArchive{client: store, bucket: "b", now: func() time.Time { return fixed }}

	matches := []types.Match{{ID: "Dr. A", Subject: "CS211", Stars: "5"}}
	key, err := a.Save(context.Background(), "Who teaches CS211?", matches, "Dr. A.")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if store.bucket != "b" || store.key != key || store.contentType != "application/json" {
		t.Errorf("upload = %+v", store)
	}
	if !strings.HasPrefix(key, "transcripts/2024-05-01/") || !strings.HasSuffix(key, ".json") {
		t.Errorf("key = %q", key)
	}

	var got Transcript
	if err := json.Unmarshal(store.body, &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if got.Question != "Who teaches CS211?" || got.Answer != "Dr. A." || len(got.Matches) != 1 || !got.CreatedAt.Equal(fixed) {
		t.Errorf("transcript = %+v", got)
	}
	if key != TranscriptKey(got.ID, fixed) {
		t.Errorf("key %q does not match id %q", key, got.ID)
	}
}

func TestSaveReportsUploadError(t *testing.T) {
	a := &TranscriptArchive{client: &fakeStore{err: errors.New("down")}, bucket: "b", now: time.Now}
	if _, err := a.Save(context.Background(), "q", nil, "a"); err == nil {
		t.Fatal("expected error")
	}
}
