package s3_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxrecon/internal/config"
	"taxrecon/internal/port"
	s3storage "taxrecon/internal/storage/s3"
)

func newClient(t *testing.T, endpoint string) port.ObjectStorage {
	t.Helper()
	client, err := s3storage.NewS3Client(context.Background(), &config.S3Config{
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "test-access",
		SecretKey: "test-secret",
	})
	require.NoError(t, err)
	return client
}

func TestGetPresignedURL(t *testing.T) {
	client := newClient(t, "http://localhost:9000")

	raw, err := client.GetPresignedURL(context.Background(), "reports", "reconciliations/2026/10/15/run.xlsx", 900)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/reports/reconciliations/2026/10/15/run.xlsx", u.Path)
	q := u.Query()
	assert.Equal(t, "900", q.Get("X-Amz-Expires"))
	assert.Equal(t, `attachment; filename="run.xlsx"`, q.Get("response-content-disposition"))
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/reports" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	client := newClient(t, srv.URL)

	assert.NoError(t, client.Ping(context.Background(), "reports"))
	assert.Error(t, client.Ping(context.Background(), "missing"))
}

func TestUpload(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	client := newClient(t, srv.URL)

	payload := []byte("PK-workbook")
	out, err := client.Upload(context.Background(), port.UploadInput{
		Bucket:      "reports",
		Key:         "reconciliations/run.xlsx",
		Body:        bytes.NewReader(payload),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Size:        int64(len(payload)),
	})
	require.NoError(t, err)

	assert.Equal(t, "/reports/reconciliations/run.xlsx", gotPath)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", gotContentType)
	assert.Contains(t, string(gotBody), "PK-workbook")
	assert.Equal(t, `"abc123"`, out.ETag)
	assert.True(t, strings.HasSuffix(out.Location, "/reports/reconciliations/run.xlsx"))
}
