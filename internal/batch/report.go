package batch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/shortnotes/audiogen/internal/exercise"
	"github.com/shortnotes/audiogen/internal/synth"
)

// Reporter receives progress events from a Converter.
type Reporter interface {
	Start(title string, total int)
	Creating(ex exercise.Exercise)
	Generated(ex exercise.Exercise)
	ItemFailed(ex exercise.Exercise, err error)
	Finished(res *Result)
	Failed(err error)
}

// Discard is a Reporter that prints nothing.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Start(string, int)                   {}
func (discard) Creating(exercise.Exercise)          {}
func (discard) Generated(exercise.Exercise)         {}
func (discard) ItemFailed(exercise.Exercise, error) {}
func (discard) Finished(*Result)                    {}
func (discard) Failed(error)                        {}

// NextSteps is printed after a run.
var NextSteps = []string{
	"Move these files to your Flutter project's assets/audio/ folder",
	"Run 'flutter pub get' to install dependencies",
	"Test the audio playback in your app",
}

// Alternatives is printed when the provider is unavailable.
var Alternatives = []string{
	"Use online TTS services (Google, Amazon Polly)",
	"Record your voice manually",
	"Use AI voice generators",
}

// RuntimeAlternatives is printed when synthesis or writing failed.
var RuntimeAlternatives = []string{
	"Use online TTS services",
	"Record your voice manually",
	"Use AI voice generators",
}

// Console prints human readable progress.
type Console struct {
	w io.Writer

	title   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
	heading lipgloss.Style
}

// NewConsole creates a reporter writing to w. Colors are only used when w
// is a terminal.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		title:   r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("245")),
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
}

func (c *Console) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.w, format, a...)
}

// Start implements Reporter.
func (c *Console) Start(title string, _ int) {
	c.printf("%s\n", c.title.Render(fmt.Sprintf("🎵 Generating audio files for %s...", title)))
	c.printf("%s\n", strings.Repeat("=", 50))
}

// Creating implements Reporter.
func (c *Console) Creating(ex exercise.Exercise) {
	c.printf("Creating: %s\n", ex.Filename)
}

// Generated implements Reporter.
func (c *Console) Generated(ex exercise.Exercise) {
	c.printf("%s\n", c.success.Render("✅ Generated: "+ex.Filename))
	c.printf("   %s\n\n", c.dim.Render("Content: "+ex.Preview()))
}

// ItemFailed implements Reporter.
func (c *Console) ItemFailed(ex exercise.Exercise, err error) {
	c.printf("%s\n\n", c.failure.Render(fmt.Sprintf("❌ Failed: %s: %v", ex.Filename, unwrapItem(err))))
}

// Finished implements Reporter.
func (c *Console) Finished(res *Result) {
	if len(res.Failed) == 0 {
		c.printf("%s\n", c.success.Render("🎉 All audio files generated successfully!"))
	} else {
		c.printf("%s\n", c.failure.Render(fmt.Sprintf("⚠️  Generated %d of %d audio files.", len(res.Written), res.Total)))
	}

	c.printf("\n%s\n", c.heading.Render("Files created:"))
	width := 0
	for _, f := range res.Files {
		width = max(width, runewidth.StringWidth(f.Filename))
	}
	for _, f := range res.Files {
		c.printf("  - %s (%d bytes) %s\n",
			runewidth.FillRight(f.Filename, width), f.Size,
			c.dim.Render(humanize.Bytes(uint64(f.Size)))) //nolint:gosec
	}

	c.printf("\n%s\n", c.heading.Render("📱 Next steps:"))
	c.printList(NextSteps)
}

// Failed implements Reporter.
func (c *Console) Failed(err error) {
	var ue *synth.UnavailableError
	switch {
	case errors.As(err, &ue):
		c.printf("%s\n", c.failure.Render(fmt.Sprintf("❌ %s not available: %s!", ue.Provider, ue.Reason)))
		if ue.Hint != "" {
			c.printf("\nTo install it, run:\n%s\n", ue.Hint)
		}
		c.printf("\nOr use alternative methods:\n")
		c.printList(Alternatives)
	default:
		c.printf("%s\n", c.failure.Render(fmt.Sprintf("❌ Error generating audio files: %v", err)))
		c.printf("\nAlternative methods:\n")
		c.printList(RuntimeAlternatives)
	}
}

func (c *Console) printList(items []string) {
	for i, item := range items {
		c.printf("%d. %s\n", i+1, item)
	}
}

// unwrapItem drops the filename prefix already shown by ItemFailed.
func unwrapItem(err error) error {
	var be *Error
	if errors.As(err, &be) && be.Cause != nil {
		return be.Cause
	}
	return err
}
