package exercise

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// PreviewLength is the number of characters of an exercise text shown in
// progress output.
const PreviewLength = 50

// DefaultTitle names the app the default catalog produces assets for.
const DefaultTitle = "Short Notes Trainer"

// ErrInvalid is returned when a catalog fails validation.
var ErrInvalid = errors.New("invalid exercise catalog")

// Exercise is a single text to be converted to speech.
type Exercise struct {
	// Filename is the name of the audio file written for this exercise.
	Filename string `yaml:"filename"`

	// Text is the spoken content.
	Text string `yaml:"text"`
}

// Preview returns the first PreviewLength characters of the text followed by
// an ellipsis.
func (e Exercise) Preview() string {
	return Preview(e.Text, PreviewLength)
}

// Preview truncates text to at most n runes and appends "...".
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}

// Validate checks that both fields are set and that the filename is a plain,
// relative file name.
func (e Exercise) Validate() error {
	if strings.TrimSpace(e.Filename) == "" {
		return errors.New("filename is empty")
	}
	if strings.TrimSpace(e.Text) == "" {
		return fmt.Errorf("%s: text is empty", e.Filename)
	}
	if filepath.IsAbs(e.Filename) || strings.ContainsAny(e.Filename, `/\`) || e.Filename == "." || e.Filename == ".." {
		return fmt.Errorf("%s: filename must be a plain file name", e.Filename)
	}
	return nil
}

// Catalog is an ordered, immutable list of exercises.
type Catalog struct {
	title     string
	exercises []Exercise
}

// New creates a catalog from the given exercises. The slice is copied.
func New(title string, exercises ...Exercise) Catalog {
	if title == "" {
		title = DefaultTitle
	}
	c := Catalog{title: title, exercises: make([]Exercise, len(exercises))}
	copy(c.exercises, exercises)
	return c
}

// Default returns the built-in catalog.
func Default() Catalog {
	return New(DefaultTitle,
		Exercise{
			Filename: "budget_meeting.mp3",
			Text:     "Today we reviewed Q3 budget: revenue up 15 percent to 2.5M, expenses 1.8M. Marketing overspend 50K. Reduce Q4 expenses by 10 percent.",
		},
		Exercise{
			Filename: "project_kickoff.mp3",
			Text:     "New mobile app: 6 month timeline, 500K budget, features auth, payments, notifications. Prototype due in 4 weeks.",
		},
		Exercise{
			Filename: "research_methods.mp3",
			Text:     "Quantitative research uses numerical data, surveys and experiments. Key ideas: validity, reliability, hypothesis testing.",
		},
	)
}

// Title returns the catalog title.
func (c Catalog) Title() string {
	if c.title == "" {
		return DefaultTitle
	}
	return c.title
}

// Len returns the number of exercises.
func (c Catalog) Len() int { return len(c.exercises) }

// At returns the i-th exercise.
func (c Catalog) At(i int) Exercise { return c.exercises[i] }

// Exercises returns a copy of the exercises in order.
func (c Catalog) Exercises() []Exercise {
	out := make([]Exercise, len(c.exercises))
	copy(out, c.exercises)
	return out
}

// Filenames returns the filenames in catalog order.
func (c Catalog) Filenames() []string {
	names := make([]string, len(c.exercises))
	for i, e := range c.exercises {
		names[i] = e.Filename
	}
	return names
}

// Validate checks every exercise and rejects duplicate filenames.
func (c Catalog) Validate() error {
	if len(c.exercises) == 0 {
		return fmt.Errorf("%w: no exercises", ErrInvalid)
	}

	var errs []error
	seen := make(map[string]int, len(c.exercises))
	for i, e := range c.exercises {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("exercise %d: %w", i+1, err))
			continue
		}
		if j, ok := seen[e.Filename]; ok {
			errs = append(errs, fmt.Errorf("exercise %d: %s duplicates exercise %d", i+1, e.Filename, j+1))
			continue
		}
		seen[e.Filename] = i
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
