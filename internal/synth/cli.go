package synth

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// maxMP3Size bounds the output accepted from gtts-cli.
const maxMP3Size = 50 * 1024 * 1024

// GTTSCLI synthesizes speech by running the gtts-cli program from the Python
// gTTS package.
type GTTSCLI struct {
	binary  string
	timeout time.Duration
}

// GTTSCLIConfig holds configuration for the gtts-cli wrapper.
type GTTSCLIConfig struct {
	// Binary name or path, defaults to "gtts-cli"
	Binary string

	// Timeout per invocation, zero means none
	Timeout time.Duration
}

// NewGTTSCLI creates a gtts-cli wrapper.
func NewGTTSCLI(config GTTSCLIConfig) *GTTSCLI {
	if config.Binary == "" {
		config.Binary = "gtts-cli"
	}
	return &GTTSCLI{binary: config.Binary, timeout: config.Timeout}
}

// Name implements Synthesizer.
func (c *GTTSCLI) Name() string { return ProviderGTTSCLI }

// Validate checks that the binary can be found.
func (c *GTTSCLI) Validate() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return &UnavailableError{
			Provider: ProviderGTTSCLI,
			Reason:   fmt.Sprintf("%s not found in PATH", c.binary),
			Hint:     "pip install gtts",
		}
	}
	return nil
}

// Synthesize runs gtts-cli and returns the MP3 written to stdout.
func (c *GTTSCLI) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	lang := languageOrDefault(req.Language)
	args := []string{"-l", lang}
	if req.Slow {
		args = append(args, "--slow")
	}
	// Text such as "-5 degrees" must not be parsed as an option.
	args = append(args, "-o", "-", "--", req.Text)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdin = strings.NewReader("")
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("Running gtts-cli", "binary", c.binary, "lang", lang, "slow", req.Slow)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("gtts-cli interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("gtts-cli failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	mp3 := stdout.Bytes()
	if len(mp3) == 0 {
		return nil, fmt.Errorf("%w: gtts-cli produced no output, stderr: %s", ErrNoAudio, strings.TrimSpace(stderr.String()))
	}
	if len(mp3) > maxMP3Size {
		return nil, fmt.Errorf("gtts-cli output too large: %d bytes (max %d)", len(mp3), maxMP3Size)
	}
	return mp3, nil
}

var _ Synthesizer = (*GTTSCLI)(nil)
