package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinylink-go/pkg/base62"
)

func TestValidateTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"https", "https://example.com/some/path?q=1", ""},
		{"http with port", "http://localhost:8080", ""},
		{"ftp", "ftp://files.example.com/a.txt", ""},
		{"mailto", "mailto:someone@example.com", ""},
		{"empty", "", "error.target_url_required"},
		{"relative", "/just/a/path", "error.target_url_invalid"},
		{"no scheme", "example.com", "error.target_url_invalid"},
		{"bare scheme", "https://", "error.target_url_invalid"},
		{"whitespace", "https://exa mple.com", "error.target_url_invalid"},
		{"too long", "https://example.com/" + strings.Repeat("a", 2048), "error.target_url_max_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("b"))
	assert.NoError(t, ValidateCode("iwaUH"))
	assert.EqualError(t, ValidateCode(""), "error.code_required")
	assert.EqualError(t, ValidateCode("../etc"), "error.code_invalid")
	assert.EqualError(t, ValidateCode(strings.Repeat("a", 65)), "error.code_invalid")
}

func TestRandomString(t *testing.T) {
	first, err := RandomString(32)
	require.NoError(t, err)
	second, err := RandomString(32)
	require.NoError(t, err)

	assert.Len(t, first, 32)
	assert.True(t, base62.IsValid(first))
	assert.NotEqual(t, first, second)
}
