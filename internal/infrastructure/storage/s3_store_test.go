package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/infrastructure/storage"
	"github.com/jhoicas/Vendas-api/pkg/config"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

type fakeS3 struct {
	mu          sync.Mutex
	paths       []string
	contentType string
	body        string
	status      int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := io.ReadAll(r.Body)
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	f.contentType = r.Header.Get("Content-Type")
	f.body = string(raw)
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func newStore(t *testing.T, fake *fakeS3, publicBase string) *storage.S3ArtifactStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := storage.NewS3ArtifactStore(context.Background(), config.S3Config{
		Bucket:          "nfe-artefatos",
		Region:          "sa-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
		PublicBaseURL:   publicBase,
	}, logger.Nop())
	require.NoError(t, err)
	return store
}

func TestPut_ConBasePublica(t *testing.T) {
	fake := &fakeS3{}
	store := newStore(t, fake, "https://cdn.example.com/")

	url, err := store.Put(context.Background(), "nfe/3526-danfe.pdf", []byte("%PDF-1.3"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/nfe/3526-danfe.pdf", url)
	require.Len(t, fake.paths, 1)
	assert.Equal(t, "PUT /nfe-artefatos/nfe/3526-danfe.pdf", fake.paths[0])
	assert.Equal(t, "application/pdf", fake.contentType)
	assert.Contains(t, fake.body, "%PDF-1.3")
}

func TestPut_SinBasePublicaPrefirma(t *testing.T) {
	fake := &fakeS3{}
	store := newStore(t, fake, "")

	url, err := store.Put(context.Background(), "nfe/3526-procNFe.xml", []byte("<nfeProc/>"), "application/xml")
	require.NoError(t, err)

	assert.Contains(t, url, "/nfe-artefatos/nfe/3526-procNFe.xml")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.True(t, strings.Contains(url, "X-Amz-Expires=604800"))
}

func TestPut_ErrorDelBucket(t *testing.T) {
	fake := &fakeS3{status: http.StatusForbidden}
	store := newStore(t, fake, "")

	_, err := store.Put(context.Background(), "nfe/x.pdf", []byte("x"), "application/pdf")
	assert.ErrorContains(t, err, "nfe/x.pdf")
}

func TestNewS3ArtifactStore_ExigeBucket(t *testing.T) {
	_, err := storage.NewS3ArtifactStore(context.Background(), config.S3Config{}, logger.Nop())
	assert.Error(t, err)
}
