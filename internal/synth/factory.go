package synth

import (
	"time"
)

// Options selects and configures a provider.
type Options struct {
	Provider          string
	Timeout           time.Duration
	RequestsPerMinute int
	TLD               string
	OpenAI            OpenAIConfig
	Cache             AudioCache // optional
}

// New builds the synthesizer named by opts.Provider, wrapped in a cache when
// one is given.
func New(opts Options) (Synthesizer, error) {
	name, err := NormalizeProvider(opts.Provider)
	if err != nil {
		return nil, err
	}

	var s Synthesizer
	switch name {
	case ProviderGTTSCLI:
		s = NewGTTSCLI(GTTSCLIConfig{Timeout: opts.Timeout})
	case ProviderOpenAI:
		s = NewOpenAI(opts.OpenAI)
	default:
		s = NewGTTS(GTTSConfig{
			TLD:               opts.TLD,
			Timeout:           opts.Timeout,
			RequestsPerMinute: opts.RequestsPerMinute,
		})
	}

	if opts.Cache != nil {
		s = NewCached(s, opts.Cache)
	}
	return s, nil
}
