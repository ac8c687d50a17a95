package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	appconfig "tasklist/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() appconfig.S3Config {
	return appconfig.S3Config{
		Endpoint:  "minio:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "attachments",
		Region:    "us-east-1",
	}
}

func TestNew_NotConfigured(t *testing.T) {
	_, err := New(context.Background(), appconfig.S3Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewService_RequiresCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.SecretKey = ""
	_, err := newService(context.Background(), cfg)
	assert.Error(t, err)
}

func TestPresignedUploadURL(t *testing.T) {
	s, err := newService(context.Background(), testConfig())
	require.NoError(t, err)

	raw, err := s.GeneratePresignedUploadURL(context.Background(), "u1/t1/file.png", "image/png", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "minio:9000", u.Host)
	assert.Equal(t, "/attachments/u1/t1/file.png", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestPresignedDownloadURL_UsesPublicEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.PublicEndpoint = "files.example.com"
	cfg.UseSSL = true

	s, err := newService(context.Background(), cfg)
	require.NoError(t, err)

	raw, err := s.GeneratePresignedDownloadURL(context.Background(), "u1/t1/file.png", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "files.example.com", u.Host)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}

func TestPresign_RejectsBadInput(t *testing.T) {
	s, err := newService(context.Background(), testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.GeneratePresignedUploadURL(ctx, "", "image/png", time.Minute)
	assert.Error(t, err)
	_, err = s.GeneratePresignedUploadURL(ctx, "k", "", time.Minute)
	assert.Error(t, err)
	_, err = s.GeneratePresignedDownloadURL(ctx, "k", 0)
	assert.Error(t, err)
}
