package storage

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket is a minimal JSON API upload endpoint that honours ifGenerationMatch=0.
type fakeBucket struct {
	bucket string

	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	contentType string
	metadata    map[string]string
	data        []byte
}

func newFakeBucket(t *testing.T, bucket string) (*fakeBucket, *httptest.Server) {
	fb := &fakeBucket{bucket: bucket, objects: map[string]fakeObject{}}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/upload/storage/v1/b/"+fb.bucket+"/o" {
		http.NotFound(w, r)
		return
	}
	if r.URL.Query().Get("uploadType") != "multipart" {
		http.Error(w, "expected a multipart upload", http.StatusBadRequest)
		return
	}

	attrs, obj, err := readMultipartUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, exists := fb.objects[attrs.Name]; exists && r.URL.Query().Get("ifGenerationMatch") == "0" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPreconditionFailed)
		_, _ = io.WriteString(w, `{"error":{"code":412,"message":"conditionNotMet"}}`)
		return
	}
	fb.objects[attrs.Name] = obj

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"bucket":      fb.bucket,
		"name":        attrs.Name,
		"generation":  "1",
		"contentType": obj.contentType,
		"metadata":    obj.metadata,
		"size":        strconv.Itoa(len(obj.data)),
	})
}

func (fb *fakeBucket) object(name string) (fakeObject, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	obj, ok := fb.objects[name]
	return obj, ok
}

type uploadAttrs struct {
	Name        string            `json:"name"`
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata"`
}

// readMultipartUpload splits a multipart/related upload into its JSON metadata part
// and its media part.
func readMultipartUpload(r *http.Request) (uploadAttrs, fakeObject, error) {
	var attrs uploadAttrs
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return attrs, fakeObject{}, err
	}
	parts := multipart.NewReader(r.Body, params["boundary"])

	meta, err := parts.NextPart()
	if err != nil {
		return attrs, fakeObject{}, err
	}
	if err := json.NewDecoder(meta).Decode(&attrs); err != nil {
		return attrs, fakeObject{}, err
	}

	media, err := parts.NextPart()
	if err != nil {
		return attrs, fakeObject{}, err
	}
	data, err := io.ReadAll(media)
	if err != nil {
		return attrs, fakeObject{}, err
	}
	return attrs, fakeObject{contentType: attrs.ContentType, metadata: attrs.Metadata, data: data}, nil
}

func newTestGCSStore(t *testing.T, srv *httptest.Server, bucket, prefix string) *GCSStore {
	t.Helper()
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	store, err := NewGCSStore(context.Background(), GCSConfig{
		Bucket:   bucket,
		Prefix:   prefix,
		Endpoint: srv.URL + "/storage/v1/",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGCSStoreUploadsUnderPrefix(t *testing.T) {
	fb, srv := newFakeBucket(t, "uploads")
	store := newTestGCSStore(t, srv, "uploads", "/municipal/")
	store.namer = func(string) string { return "2024/05/07/fixed-budget.xlsx" }

	url, err := store.Store(context.Background(), `תקציב.xlsx`, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "gs://uploads/municipal/2024/05/07/fixed-budget.xlsx", url)

	obj, ok := fb.object("municipal/2024/05/07/fixed-budget.xlsx")
	require.True(t, ok, "object was not written")
	assert.Equal(t, "payload", string(obj.data))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", obj.contentType)
	assert.Equal(t, `תקציב.xlsx`, obj.metadata["original_name"])
}

func TestGCSStoreNeverOverwrites(t *testing.T) {
	_, srv := newFakeBucket(t, "uploads")
	store := newTestGCSStore(t, srv, "uploads", "")
	store.namer = func(string) string { return "same-key.csv" }

	_, err := store.Store(context.Background(), "a.csv", []byte("first"))
	require.NoError(t, err)

	_, err = store.Store(context.Background(), "a.csv", []byte("second"))
	require.Error(t, err, "a key collision must not replace the first upload")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestNewGCSStoreRequiresBucket(t *testing.T) {
	_, err := NewGCSStore(context.Background(), GCSConfig{Bucket: "  "})
	assert.ErrorIs(t, err, ErrStorage)
}
