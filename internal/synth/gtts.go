package synth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	gttsRPC       = "jQ1olc"
	gttsUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.2526.106 Safari/537.36"
)

var gttsAudioRe = regexp.MustCompile(gttsRPC + `","\[\\"(.*)\\"]`)

// GTTS synthesizes speech through the Google Translate TTS endpoint. No
// credentials are required.
type GTTS struct {
	tld         string
	endpoint    string
	client      *http.Client
	rateLimiter *rate.Limiter
	chunkSize   int
}

// GTTSConfig holds configuration for the Google Translate client.
type GTTSConfig struct {
	// TLD of the Google host, defaults to "com"
	TLD string

	// Endpoint overrides the batchexecute URL (tests)
	Endpoint string

	// Timeout per HTTP request, zero means none
	Timeout time.Duration

	// RequestsPerMinute limits request rate, defaults to 50
	RequestsPerMinute int

	// HTTPClient replaces the default client
	HTTPClient *http.Client
}

// NewGTTS creates a Google Translate TTS client.
func NewGTTS(config GTTSConfig) *GTTS {
	if config.TLD == "" {
		config.TLD = "com"
	}
	if config.Endpoint == "" {
		config.Endpoint = fmt.Sprintf("https://translate.google.%s/_/TranslateWebserverUi/data/batchexecute", config.TLD)
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 50
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &GTTS{
		tld:         config.TLD,
		endpoint:    config.Endpoint,
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
		chunkSize:   MaxChunk,
	}
}

// Name implements Synthesizer.
func (g *GTTS) Name() string { return ProviderGTTS }

// CacheKey implements CacheKeyer. The host TLD selects the accent.
func (g *GTTS) CacheKey() string { return ProviderGTTS + "|" + g.tld }

// Validate implements Synthesizer. The HTTP client has no local
// prerequisites.
func (g *GTTS) Validate() error { return nil }

// Synthesize implements Synthesizer. Long text is split into chunks and the
// MP3 responses are concatenated.
func (g *GTTS) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	lang := languageOrDefault(req.Language)

	chunks := Tokenize(req.Text, g.chunkSize)
	log.Debug("Synthesizing with gtts", "chunks", len(chunks), "lang", lang, "slow", req.Slow)

	var audio bytes.Buffer
	for i, chunk := range chunks {
		if err := g.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
		b, err := g.synthesizeChunk(ctx, chunk, lang, req.Slow)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio.Write(b)
	}

	if audio.Len() == 0 {
		return nil, ErrNoAudio
	}
	return audio.Bytes(), nil
}

func (g *GTTS) synthesizeChunk(ctx context.Context, text, lang string, slow bool) ([]byte, error) {
	body, err := packageRPC(text, lang, slow)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	httpReq.Header.Set("Referer", "http://translate.google.com/")
	httpReq.Header.Set("User-Agent", gttsUserAgent)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected HTTP status %d (%s)", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return parseAudio(resp.Body)
}

// packageRPC builds the form body for the batchexecute call. Speed is null
// for normal speech and true for slow speech.
func packageRPC(text, lang string, slow bool) (string, error) {
	var speed any
	if slow {
		speed = true
	}

	param, err := marshalCompact([]any{text, lang, speed, "null"})
	if err != nil {
		return "", fmt.Errorf("unable to encode request: %w", err)
	}
	rpc, err := marshalCompact([][][]any{{{gttsRPC, param, nil, "generic"}}})
	if err != nil {
		return "", fmt.Errorf("unable to encode request: %w", err)
	}
	return "f.req=" + url.QueryEscape(rpc) + "&", nil
}

func marshalCompact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// parseAudio extracts the base64 audio from a batchexecute response.
func parseAudio(r io.Reader) ([]byte, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 32*1024*1024)

	var audio []byte
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, gttsRPC) {
			continue
		}
		m := gttsAudioRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("%w: unexpected response for %s", ErrNoAudio, gttsRPC)
		}
		b, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			return nil, fmt.Errorf("unable to decode audio: %w", err)
		}
		audio = append(audio, b...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("unable to read response: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrNoAudio
	}
	return audio, nil
}

var _ Synthesizer = (*GTTS)(nil)
