package i18n

import (
	"context"
	"testing"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitI18n(t *testing.T) {
	bundle, err := InitI18n("en")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"en", "zh"}, SupportedLanguages)

	ctx := WithLocalizer(context.Background(), i18n.NewLocalizer(bundle, "zh"))
	assert.Equal(t, "短链不存在或已过期", T(ctx, "error.not_found_or_expired", nil, "fallback"))
	assert.Equal(t, "有效期必须在 1 到 720 小时之间",
		T(ctx, "error.expiration_out_of_range", map[string]any{"Min": 1, "Max": 720}, "fallback"))

	ctx = WithLocalizer(context.Background(), i18n.NewLocalizer(bundle, "en"))
	assert.Equal(t, "Field must be of type integer", T(ctx, "error.type_mismatch", map[string]any{"Expected": "integer"}, ""))
}

func TestT_Fallback(t *testing.T) {
	assert.Equal(t, "fallback", T(context.Background(), "error.internal", nil, "fallback"))

	bundle, err := InitI18n("en")
	require.NoError(t, err)
	ctx := WithLocalizer(context.Background(), i18n.NewLocalizer(bundle, "en"))
	assert.Equal(t, "fallback", T(ctx, "no.such.message", nil, "fallback"))
	assert.Equal(t, "fallback", T(ctx, "", nil, "fallback"))
	assert.Nil(t, LocalizerFrom(context.Background()))
}
