package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schooldocs/internal/config"
)

func TestDispatchKey(t *testing.T) {
	assert.Equal(t, "dispatches/abc.pdf", DispatchKey("abc"))
}

func TestMetadata(t *testing.T) {
	assert.Equal(t, map[string]string{"student-code": "101", "template-id": "grau_leve"},
		metadata(Document{StudentCode: 101, TemplateID: "grau_leve"}))
	assert.Equal(t, map[string]string{"student-code": "7"}, metadata(Document{StudentCode: 7}))
}

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		msg  string
	}{
		{name: "no endpoint", cfg: config.MinIOConfig{}, msg: "minio endpoint is required"},
		{name: "no credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000"}, msg: "minio credentials are required"},
		{name: "no bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, msg: "minio bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinIO(tt.cfg)
			assert.Nil(t, s)
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled(config.MinIOConfig{}))
	assert.True(t, Enabled(config.MinIOConfig{Endpoint: "localhost:9000"}))
}

func testArchive(t *testing.T, endpoint string) *minioArchive {
	t.Helper()
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	return &minioArchive{client: cli, bucket: "documentos"}
}

func TestMinioArchive_Store(t *testing.T) {
	var gotPath, gotType, gotCode string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotCode = r.Header.Get("X-Amz-Meta-Student-Code")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := testArchive(t, strings.TrimPrefix(srv.URL, "http://"))
	key, err := a.Store(context.Background(), Document{
		DispatchID:  "d1",
		StudentCode: 101,
		TemplateID:  "grau_leve",
		Data:        []byte("%PDF-1.3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "dispatches/d1.pdf", key)
	assert.Equal(t, "/documentos/dispatches/d1.pdf", gotPath)
	assert.Equal(t, PDFContentType, gotType)
	assert.Equal(t, "101", gotCode)
	assert.Contains(t, string(gotBody), "%PDF-1.3")
}

func TestMinioArchive_StoreEmpty(t *testing.T) {
	a := testArchive(t, "localhost:9000")
	_, err := a.Store(context.Background(), Document{DispatchID: "d1"})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestMinioArchive_DownloadURL(t *testing.T) {
	a := testArchive(t, "localhost:9000")

	link, err := a.DownloadURL(context.Background(), "dispatches/d1.pdf", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/documentos/dispatches/d1.pdf", u.Path)
	assert.Equal(t, PDFContentType, u.Query().Get("response-content-type"))
	assert.Equal(t, `inline; filename="d1.pdf"`, u.Query().Get("response-content-disposition"))
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}
