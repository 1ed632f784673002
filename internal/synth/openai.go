package synth

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
)

// slowSpeed is the OpenAI speed used for slow requests.
const slowSpeed = 0.75

// OpenAI synthesizes speech with the OpenAI speech API.
type OpenAI struct {
	client *openai.Client
	apiKey string
	config OpenAIConfig
}

// OpenAIConfig holds OpenAI TTS configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // "tts-1" or "tts-1-hd"
	Voice   string // "alloy", "nova", ...
	BaseURL string // optional API base URL
}

// NewOpenAI creates an OpenAI speech client. A missing API key is reported
// by Validate, not here.
func NewOpenAI(config OpenAIConfig) *OpenAI {
	if config.Model == "" {
		config.Model = string(openai.TTSModel1)
	}
	if config.Voice == "" {
		config.Voice = string(openai.VoiceAlloy)
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		apiKey: config.APIKey,
		config: config,
	}
}

// Name implements Synthesizer.
func (o *OpenAI) Name() string { return ProviderOpenAI }

// CacheKey implements CacheKeyer.
func (o *OpenAI) CacheKey() string {
	return ProviderOpenAI + "|" + o.config.Model + "|" + o.config.Voice
}

// Validate checks that an API key is configured.
func (o *OpenAI) Validate() error {
	if o.apiKey == "" {
		return &UnavailableError{
			Provider: ProviderOpenAI,
			Reason:   "no API key configured",
			Hint:     "export OPENAI_API_KEY=<your key>",
		}
	}
	return nil
}

// Synthesize implements Synthesizer. The language is inferred by the model
// from the text.
func (o *OpenAI) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	speed := 1.0
	if req.Slow {
		speed = slowSpeed
	}

	log.Debug("Synthesizing with openai", "model", o.config.Model, "voice", o.config.Voice, "chars", len(req.Text))

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.config.Model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(o.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Close() //nolint:errcheck

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrNoAudio
	}
	return audio, nil
}

var _ Synthesizer = (*OpenAI)(nil)
