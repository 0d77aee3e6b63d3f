package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.klub.pl/avatars/4/a.png", PublicURL("https://cdn.klub.pl", "avatars/4/a.png"))
	assert.Equal(t, "https://cdn.klub.pl/avatars/4/a.png", PublicURL("https://cdn.klub.pl/", "/avatars/4/a.png"))
	assert.Equal(t, "https://cdn.klub.pl/media/a.png", PublicURL("https://cdn.klub.pl/media", "a.png"))
	assert.Empty(t, PublicURL("", "a.png"))
	assert.Empty(t, PublicURL("https://cdn.klub.pl", ""))
}

func TestNewR2UploaderRequiresAllFields(t *testing.T) {
	_, err := NewR2Uploader(context.Background(), R2Config{AccountID: "acc", BucketName: "b"})
	assert.Error(t, err)

	u, err := NewR2Uploader(context.Background(), R2Config{
		AccountID:       "acc",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "avatars",
		PublicBaseURL:   "https://cdn.klub.pl",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.klub.pl/x.webp", u.GetPublicURL("x.webp"))
}
