package synth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGTTSCLI_Validate(t *testing.T) {
	c := NewGTTSCLI(GTTSCLIConfig{Binary: "definitely-not-gtts-cli-binary"})

	err := c.Validate()
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	var ue *UnavailableError
	if !errors.As(err, &ue) || ue.Hint != "pip install gtts" {
		t.Errorf("expected install hint, got %#v", ue)
	}
}

func TestGTTSCLI_Synthesize(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "gtts-cli")
	// Echo the arguments so the test can check them.
	body := "#!/bin/sh\nprintf 'ID3%s|' \"$@\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	c := NewGTTSCLI(GTTSCLIConfig{Binary: script})
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "slow french",
			req:  Request{Text: "hello there", Language: "fr", Slow: true},
			want: "ID3-l|ID3fr|ID3--slow|ID3-o|ID3-|ID3--|ID3hello there|",
		},
		{
			name: "leading dash",
			req:  Request{Text: "-5 degrees today"},
			want: "ID3-l|ID3en|ID3-o|ID3-|ID3--|ID3-5 degrees today|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audio, err := c.Synthesize(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Synthesize failed: %v", err)
			}
			if string(audio) != tt.want {
				t.Errorf("unexpected output:\n got %q\nwant %q", audio, tt.want)
			}
		})
	}
}

func TestGTTSCLI_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "gtts-cli")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'connection refused' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := NewGTTSCLI(GTTSCLIConfig{Binary: script}).Synthesize(context.Background(), Request{Text: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("runtime failure must not be reported as unavailable")
	}
}

func TestOpenAI_Validate(t *testing.T) {
	err := NewOpenAI(OpenAIConfig{}).Validate()
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable without key, got %v", err)
	}
	if err := NewOpenAI(OpenAIConfig{APIKey: "sk-test"}).Validate(); err != nil {
		t.Errorf("unexpected error with key: %v", err)
	}
}

func TestOpenAI_Synthesize(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3openai"))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	audio, err := o.Synthesize(context.Background(), Request{Text: "Hello", Slow: true})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "ID3openai" {
		t.Errorf("unexpected audio %q", audio)
	}
	if gotPath != "/v1/audio/speech" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	for _, want := range []string{`"input":"Hello"`, `"model":"tts-1"`, `"voice":"alloy"`, `"speed":0.75`} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body %s missing %s", gotBody, want)
		}
	}
}

type memCache map[string][]byte

func (m memCache) Get(key string) ([]byte, bool) {
	b, ok := m[key]
	return b, ok
}

func (m memCache) Put(key string, v []byte) error {
	m[key] = v
	return nil
}

func (m memCache) Delete(key string) error {
	delete(m, key)
	return nil
}

type countingSynth struct {
	calls int
	err   error
}

func (c *countingSynth) Name() string    { return "counting" }
func (c *countingSynth) Validate() error { return nil }
func (c *countingSynth) Synthesize(_ context.Context, req Request) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []byte("audio:" + req.Text), nil
}

func TestCached(t *testing.T) {
	next := &countingSynth{}
	c := NewCached(next, memCache{})

	for i := 0; i < 3; i++ {
		audio, err := c.Synthesize(context.Background(), Request{Text: "same"})
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
		if string(audio) != "audio:same" {
			t.Errorf("unexpected audio %q", audio)
		}
	}
	if next.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", next.calls)
	}

	if _, err := c.Synthesize(context.Background(), Request{Text: "same", Slow: true}); err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 {
		t.Errorf("slow speech should not share a cache entry, calls = %d", next.calls)
	}
	if c.Name() != "counting" {
		t.Errorf("Name should come from the wrapped provider, got %q", c.Name())
	}
}

func TestCached_VoiceChangeMissesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Voice string `json:"voice"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("voice=" + body.Voice))
	}))
	defer srv.Close()

	shared := memCache{}
	req := Request{Text: "Today we reviewed the budget."}

	for _, voice := range []string{"alloy", "nova"} {
		s := NewCached(NewOpenAI(OpenAIConfig{APIKey: "sk-test", Voice: voice, BaseURL: srv.URL + "/v1"}), shared)
		audio, err := s.Synthesize(context.Background(), req)
		if err != nil {
			t.Fatalf("%s: Synthesize failed: %v", voice, err)
		}
		if string(audio) != "voice="+voice {
			t.Errorf("%s run returned %q", voice, audio)
		}
	}
	if len(shared) != 2 {
		t.Errorf("expected one cache entry per voice, got %d", len(shared))
	}
}

func TestKeyFor(t *testing.T) {
	req := Request{Text: "hello", Language: "en"}

	tests := []struct {
		name string
		a, b Synthesizer
		same bool
	}{
		{"same gtts host", NewGTTS(GTTSConfig{}), NewGTTS(GTTSConfig{TLD: "com"}), true},
		{"gtts host", NewGTTS(GTTSConfig{TLD: "com"}), NewGTTS(GTTSConfig{TLD: "co.uk"}), false},
		{"openai voice", NewOpenAI(OpenAIConfig{Voice: "alloy"}), NewOpenAI(OpenAIConfig{Voice: "nova"}), false},
		{"openai model", NewOpenAI(OpenAIConfig{Model: "tts-1"}), NewOpenAI(OpenAIConfig{Model: "tts-1-hd"}), false},
		{"cached wrapper", NewGTTS(GTTSConfig{TLD: "ie"}), NewCached(NewGTTS(GTTSConfig{TLD: "ie"}), memCache{}), true},
		{"provider", NewGTTS(GTTSConfig{}), NewGTTSCLI(GTTSCLIConfig{}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeyFor(tt.a, req) == KeyFor(tt.b, req); got != tt.same {
				t.Errorf("keys equal = %v, want %v", got, tt.same)
			}
		})
	}
}

func TestCached_EmptyEntryIsReplaced(t *testing.T) {
	next := &countingSynth{}
	cache := memCache{}
	c := NewCached(next, cache)
	req := Request{Text: "fresh"}

	cache[KeyFor(next, req)] = []byte{}

	audio, err := c.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "audio:fresh" || next.calls != 1 {
		t.Errorf("empty entry should be resynthesized, got %q after %d calls", audio, next.calls)
	}
	if string(cache[KeyFor(next, req)]) != "audio:fresh" {
		t.Error("cache entry was not refreshed")
	}
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	next := &countingSynth{err: boom}
	cache := memCache{}
	c := NewCached(next, cache)

	if _, err := c.Synthesize(context.Background(), Request{Text: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(cache) != 0 {
		t.Error("failed synthesis should not be cached")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"", ProviderGTTS},
		{"gtts-cli", ProviderGTTSCLI},
		{"openai", ProviderOpenAI},
	}
	for _, tt := range tests {
		s, err := New(Options{Provider: tt.provider})
		if err != nil {
			t.Fatalf("New(%q) failed: %v", tt.provider, err)
		}
		if s.Name() != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.provider, s.Name(), tt.want)
		}
	}

	s, err := New(Options{Cache: memCache{}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Cached); !ok {
		t.Errorf("expected cached synthesizer, got %T", s)
	}

	if _, err := New(Options{Provider: "nope"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}
