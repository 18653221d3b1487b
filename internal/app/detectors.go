package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MrWong99/mouthpiece/internal/config"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect/httpapi"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect/openai"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect/whisper"
)

// TextParser converts transcripts into phonemes for the transcript-based
// backends. [g2p.Engine] satisfies it.
type TextParser interface {
	ParseText(text string, lang phoneme.Language) phoneme.Sequence
}

// RegisterBuiltinDetectors registers factories for every detection backend
// shipped with mouthpiece. Transcript-based backends convert text with parser.
func RegisterBuiltinDetectors(reg *config.Registry, parser TextParser) {
	reg.RegisterDetector("httpapi", func(entry config.ProviderEntry) (detect.Provider, error) {
		var opts []httpapi.Option
		if entry.APIKey != "" {
			opts = append(opts, httpapi.WithAPIKey(entry.APIKey))
		}
		if entry.Timeout > 0 {
			opts = append(opts, httpapi.WithTimeout(entry.Timeout))
		}
		if path := optString(entry.Options, "path"); path != "" {
			opts = append(opts, httpapi.WithPath(path))
		}
		return httpapi.New(entry.BaseURL, opts...)
	})

	reg.RegisterDetector("whisper", func(entry config.ProviderEntry) (detect.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if entry.Language != "" {
			lang, ok := phoneme.ParseLanguage(entry.Language)
			if !ok {
				return nil, fmt.Errorf("whisper: unsupported language %q", entry.Language)
			}
			opts = append(opts, whisper.WithLanguage(lang))
		}
		if entry.Timeout > 0 {
			opts = append(opts, whisper.WithHTTPClient(httpClient(entry.Timeout)))
		}
		return whisper.New(entry.BaseURL, parser, opts...)
	})

	reg.RegisterDetector("openai", func(entry config.ProviderEntry) (detect.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, openai.WithModel(entry.Model))
		}
		if entry.Timeout > 0 {
			opts = append(opts, openai.WithTimeout(entry.Timeout))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		return openai.New(entry.APIKey, parser, opts...)
	})
}

// optString returns a string option from a provider's Options map, or ""
// when the key is absent or not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
