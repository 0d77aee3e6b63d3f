package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleTime(t *testing.T) {
	warsaw := time.FixedZone("CEST", 2*60*60)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", "2026-04-01T18:30:00Z", time.Date(2026, 4, 1, 18, 30, 0, 0, time.UTC)},
		{"seconds", "2026-04-01T18:30:15", time.Date(2026, 4, 1, 18, 30, 15, 0, warsaw)},
		{"datetime-local", "2026-04-01T18:30", time.Date(2026, 4, 1, 18, 30, 0, 0, warsaw)},
		{"space", " 2026-04-01 18:30 ", time.Date(2026, 4, 1, 18, 30, 0, 0, warsaw)},
		{"date", "2026-04-01", time.Date(2026, 4, 1, 0, 0, 0, 0, warsaw)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlexibleTime(tt.input, warsaw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}

	_, err := ParseFlexibleTime("01.04.2026", warsaw)
	assert.Error(t, err)
}

func TestParseOptionalTime(t *testing.T) {
	got, err := parseOptionalTime("data", nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseOptionalTime("data", ptr("  "))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseOptionalTime("data", ptr("wczoraj"))
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestGetExtensionFromContentType(t *testing.T) {
	for ct, ext := range map[string]string{
		"image/jpeg":                ".jpg",
		"image/png":                 ".png",
		"IMAGE/GIF":                 ".gif",
		"image/webp; charset=utf-8": ".webp",
	} {
		got, err := GetExtensionFromContentType(ct)
		require.NoError(t, err, ct)
		assert.Equal(t, ext, got)
	}

	_, err := GetExtensionFromContentType("text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestGenerateTemporaryPassword(t *testing.T) {
	a, err := generateTemporaryPassword(temporaryPasswordSize)
	require.NoError(t, err)
	b, err := generateTemporaryPassword(temporaryPasswordSize)
	require.NoError(t, err)

	assert.Len(t, a, temporaryPasswordSize)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.True(t, strings.ContainsRune(tempPasswordAlphabet, r), "unexpected rune %q", r)
	}
}

func TestHashTokenIsStable(t *testing.T) {
	token, err := generateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, hashToken(token), hashToken(token))
	assert.NotEqual(t, token, hashToken(token))
}
