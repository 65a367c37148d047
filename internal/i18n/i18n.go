package i18n

import (
	"context"
	"embed"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// SupportedLanguages 已加载的语言列表（取自文件名）
var SupportedLanguages []string

type localizerKey struct{}

// InitI18n 从内嵌的 locales 目录加载所有 TOML 文件
func InitI18n(defaultLang string) (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.MustParse(defaultLang))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	SupportedLanguages = make([]string, 0) // 清空旧列表

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		filePath := path.Join("locales", entry.Name())
		file, err := localeFS.ReadFile(filePath)
		if err != nil {
			return nil, err
		}

		SupportedLanguages = append(SupportedLanguages, extractLanguageFromPath(filePath))

		if _, err := bundle.ParseMessageFileBytes(file, filePath); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

// 从文件路径中提取语言标签（文件名格式为 <lang>.toml）
func extractLanguageFromPath(filePath string) string {
	return strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
}

// WithLocalizer 将 Localizer 写入 context
func WithLocalizer(ctx context.Context, localizer *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, localizer)
}

// LocalizerFrom 取出 context 中的 Localizer，没有时返回 nil
func LocalizerFrom(ctx context.Context) *i18n.Localizer {
	localizer, _ := ctx.Value(localizerKey{}).(*i18n.Localizer)
	return localizer
}

// T 翻译消息；没有 Localizer 或消息不存在时返回 fallback
func T(ctx context.Context, key string, data map[string]any, fallback string) string {
	localizer := LocalizerFrom(ctx)
	if localizer == nil || key == "" {
		return fallback
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
