package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore writes uploads to a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
	namer  Namer
}

type GCSConfig struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
	// Endpoint replaces the public JSON API, e.g. http://localhost:4443/storage/v1/.
	// Requests to it are sent without credentials.
	Endpoint string
}

// NewGCSStore dials Cloud Storage. Without a credentials file the client falls back to
// application default credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w: gcs bucket is required", ErrStorage)
	}
	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, storageError("create gcs client", err)
	}
	return &GCSStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		namer:  DefaultNamer,
	}, nil
}

// Store uploads payload and returns its gs:// URL. DoesNotExist preconditions keep a
// key collision from overwriting an earlier upload.
func (s *GCSStore) Store(ctx context.Context, fileName string, payload []byte) (string, error) {
	key := s.namer(fileName)
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	obj := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true})
	writer := obj.NewWriter(ctx)
	// uploads are small enough for one multipart request
	writer.ChunkSize = 0
	writer.ContentType = contentType(key)
	writer.Metadata = map[string]string{"original_name": fileName}

	if _, err := io.Copy(writer, bytes.NewReader(payload)); err != nil {
		_ = writer.Close()
		return "", storageError("upload to gcs", err)
	}
	if err := writer.Close(); err != nil {
		return "", storageError("finalize gcs upload", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
