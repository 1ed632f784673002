// Package synth converts text to MP3 speech through pluggable providers.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shortnotes/audiogen/internal/cache"
	"golang.org/x/text/language"
)

// Common synthesis errors
var (
	// ErrUnavailable indicates the provider cannot run at all, e.g. a
	// required binary or credential is missing.
	ErrUnavailable = errors.New("synthesis provider unavailable")

	// ErrEmptyText indicates there was nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrNoAudio indicates the provider answered without audio data.
	ErrNoAudio = errors.New("provider returned no audio")

	// ErrUnknownProvider indicates an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown synthesis provider")
)

// Provider names.
const (
	ProviderGTTS    = "gtts"
	ProviderGTTSCLI = "gtts-cli"
	ProviderOpenAI  = "openai"
)

// Providers lists the supported provider names.
var Providers = []string{ProviderGTTS, ProviderGTTSCLI, ProviderOpenAI}

// DefaultLanguage is the language used when none is configured.
const DefaultLanguage = "en"

// Request describes a single synthesis.
type Request struct {
	Text     string
	Language string
	Slow     bool
}

// Synthesizer converts text to MP3 audio.
type Synthesizer interface {
	// Name identifies the provider.
	Name() string

	// Validate reports whether the provider can run. Errors wrap
	// ErrUnavailable.
	Validate() error

	// Synthesize returns MP3 bytes for req.
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// CacheKeyer is implemented by providers whose audio depends on settings
// beyond the request, such as a voice or a regional host.
type CacheKeyer interface {
	CacheKey() string
}

// identity returns the cache identity of s, falling back to its name.
func identity(s Synthesizer) string {
	if k, ok := s.(CacheKeyer); ok {
		return k.CacheKey()
	}
	return s.Name()
}

// KeyFor returns the cache key under which s stores the audio for req.
func KeyFor(s Synthesizer, req Request) string {
	return cache.Key(identity(s), languageOrDefault(req.Language), req.Slow, req.Text)
}

// UnavailableError carries setup guidance for a provider that cannot run.
type UnavailableError struct {
	Provider string
	Reason   string
	Hint     string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

// Unwrap makes errors.Is(err, ErrUnavailable) true.
func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NormalizeProvider resolves aliases to a provider name.
func NormalizeProvider(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gtts", "google":
		return ProviderGTTS, nil
	case "gtts-cli", "cli":
		return ProviderGTTSCLI, nil
	case "openai":
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("%w: %s (supported: %s)", ErrUnknownProvider, name, strings.Join(Providers, ", "))
	}
}

// ValidateLanguage checks that lang is a well-formed language tag.
func ValidateLanguage(lang string) error {
	if lang == "" {
		return errors.New("language is empty")
	}
	if _, err := language.Parse(lang); err != nil {
		return fmt.Errorf("invalid language %q: %w", lang, err)
	}
	return nil
}

func checkRequest(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	return nil
}

func languageOrDefault(lang string) string {
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}
