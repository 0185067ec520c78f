package artifact

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Nevi32/wofuo1/internal/pkg/config"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const testBucketName = "test-bucket"

func newFakeGCS(t *testing.T, handler http.Handler) (*storage.Client, func()) {
	server := httptest.NewServer(handler)

	client, err := storage.NewClient(
		context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(server.URL),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("Failed to create fake GCS client: %v", err)
	}

	return client, server.Close
}

func TestNewGCSArtifactStoreBucketName(t *testing.T) {
	store, err := NewGCSArtifactStore(context.Background(),
		config.GCSConfig{BucketName: testBucketName, Endpoint: "http://localhost:4443"},
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	assert.Equal(t, testBucketName, store.BucketName)
	store.Close(context.Background())
}

func TestGCSArtifactStoreCloseNilSafe(t *testing.T) {
	store := &GCSArtifactStore{Client: nil, BucketName: testBucketName}

	assert.NotPanics(t, func() {
		store.Close(context.Background())
	})
}

func TestGCSPutFileSendsDataAndCommitMessage(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut:
			raw, _ := io.ReadAll(r.Body)
			mu.Lock()
			body += string(raw)
			mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"bucket":"test-bucket","name":"HQ.json"}`))
		default:
			t.Errorf("Unexpected call: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	client, closeServer := newFakeGCS(t, handler)
	defer closeServer()

	store := &GCSArtifactStore{Client: client, BucketName: testBucketName}
	err := store.PutFile(context.Background(), "HQ.json", []byte("eyJ1c2VycyI6W119"), "branch snapshot")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.Contains(body, "eyJ1c2VycyI6W119"))
	assert.True(t, strings.Contains(body, "branch snapshot"))
}

func TestGCSPutFileServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	client, closeServer := newFakeGCS(t, handler)
	defer closeServer()

	store := &GCSArtifactStore{Client: client, BucketName: testBucketName}
	err := store.PutFile(context.Background(), "HQ.json", []byte("data"), "msg")
	assert.Error(t, err)
}

func TestGCSGetFile(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if strings.Contains(r.URL.Path, "missing.json") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("c25hcHNob3Q="))
	})

	client, closeServer := newFakeGCS(t, handler)
	defer closeServer()
	store := &GCSArtifactStore{Client: client, BucketName: testBucketName}

	t.Run("existing object", func(t *testing.T) {
		data, err := store.GetFile(context.Background(), "HQ.json")
		require.NoError(t, err)
		assert.Equal(t, "c25hcHNob3Q=", string(data))
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := store.GetFile(context.Background(), "missing.json")
		require.Error(t, err)
		assert.True(t, error_handling.IsNotFound(err))
	})
}
