// Package locale translates user-visible messages. The language comes from the
// "lang" cookie or the Accept-Language header, falling back to English.
package locale

import (
	"io/fs"
	"strings"

	"github.com/inkpost/blog/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

const localizerKey = "localizer"

type Bundle struct {
	bundle *i18n.Bundle
}

// New loads every file under translation/ in i18nFS.
func New(i18nFS fs.FS) (*Bundle, error) {
	// set default bundle to english
	bundle := i18n.NewBundle(language.MustParse("en-US"))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if err := parseTranslationFiles(i18nFS, bundle); err != nil {
		return nil, err
	}
	return &Bundle{bundle: bundle}, nil
}

// Languages lists the loaded language tags.
func (b *Bundle) Languages() []string {
	tags := b.bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

// Localizer returns a localizer for the given preferences, most preferred first.
func (b *Bundle) Localizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(b.bundle, langs...)
}

func (b *Bundle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}
		c.Set(localizerKey, b.Localizer(lang))
		c.Next()
	}
}

// T translates key for the request. Params are "name==value" pairs. Without a
// localizer in the context the key itself is returned.
func T(c *gin.Context, key string, params ...string) string {
	v, ok := c.Get(localizerKey)
	if !ok {
		return key
	}
	localizer, ok := v.(*i18n.Localizer)
	if !ok {
		return key
	}
	return Localize(localizer, key, params...)
}

func Localize(localizer *i18n.Localizer, key string, params ...string) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Errorf("Failed to localize message: %v", err)
		return key
	}
	return msg
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	sep := "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

func parseTranslationFiles(i18nFS fs.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			data, err := fs.ReadFile(i18nFS, path)
			if err != nil {
				return err
			}

			_, err = bundle.ParseMessageFileBytes(data, path)
			return err
		})
}
