package exercise

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	want := []string{"budget_meeting.mp3", "project_kickoff.mp3", "research_methods.mp3"}
	got := c.Filenames()
	if len(got) != len(want) {
		t.Fatalf("expected %d exercises, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("exercise %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	budget := c.At(0)
	if budget.Text != "Today we reviewed Q3 budget: revenue up 15 percent to 2.5M, expenses 1.8M. Marketing overspend 50K. Reduce Q4 expenses by 10 percent." {
		t.Errorf("unexpected budget text: %q", budget.Text)
	}

	if err := c.Validate(); err != nil {
		t.Errorf("default catalog should be valid: %v", err)
	}
	if c.Title() != DefaultTitle {
		t.Errorf("expected title %q, got %q", DefaultTitle, c.Title())
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	src := []Exercise{{Filename: "a.mp3", Text: "alpha"}}
	c := New("", src...)

	src[0].Filename = "changed.mp3"
	if c.At(0).Filename != "a.mp3" {
		t.Error("catalog should not share the caller's slice")
	}

	list := c.Exercises()
	list[0].Text = "mutated"
	if c.At(0).Text != "alpha" {
		t.Error("Exercises should return a copy")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short", "Hello", "Hello..."},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50) + "..."},
		{"long", strings.Repeat("b", 80), strings.Repeat("b", 50) + "..."},
		{"multibyte", strings.Repeat("é", 60), strings.Repeat("é", 50) + "..."},
		{
			"budget",
			Default().At(0).Text,
			"Today we reviewed Q3 budget: revenue up 15 percent...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preview(tt.text, PreviewLength)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			body := strings.TrimSuffix(got, "...")
			if utf8.RuneCountInString(body) > PreviewLength {
				t.Errorf("preview body has %d characters", utf8.RuneCountInString(body))
			}
		})
	}
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name      string
		exercises []Exercise
		wantErr   bool
	}{
		{"valid", []Exercise{{"a.mp3", "alpha"}, {"b.mp3", "beta"}}, false},
		{"empty", nil, true},
		{"empty filename", []Exercise{{"", "alpha"}}, true},
		{"empty text", []Exercise{{"a.mp3", "  "}}, true},
		{"path separator", []Exercise{{"sub/a.mp3", "alpha"}}, true},
		{"parent dir", []Exercise{{"..", "alpha"}}, true},
		{"duplicate", []Exercise{{"a.mp3", "alpha"}, {"a.mp3", "beta"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New("", tt.exercises...).Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	src := `title: Demo
exercises:
  - filename: one.mp3
    text: First exercise.
  - filename: two.mp3
    text: Second exercise.
`
	c, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Title() != "Demo" {
		t.Errorf("expected title Demo, got %q", c.Title())
	}
	if c.Len() != 2 || c.At(1).Filename != "two.mp3" {
		t.Errorf("unexpected catalog: %+v", c.Exercises())
	}

	if _, err := Load(strings.NewReader("")); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for empty input, got %v", err)
	}
	if _, err := Load(strings.NewReader("exercises:\n  - filename: x.mp3\n    txt: typo\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadFileRoundTrip(t *testing.T) {
	b, err := Default().Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yml")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if c.Len() != 3 || c.At(2).Text != Default().At(2).Text {
		t.Errorf("catalog did not survive a round trip: %+v", c.Exercises())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMatch(t *testing.T) {
	c := Default()

	if got := c.Match(""); got.Len() != 3 {
		t.Errorf("empty pattern should match all, got %d", got.Len())
	}

	got := c.Match("budget")
	if got.Len() != 1 || got.At(0).Filename != "budget_meeting.mp3" {
		t.Errorf("unexpected match result: %v", got.Filenames())
	}

	got = c.Match("mp3")
	names := got.Filenames()
	if len(names) != 3 || names[0] != "budget_meeting.mp3" || names[2] != "research_methods.mp3" {
		t.Errorf("matches should keep catalog order, got %v", names)
	}

	if got := c.Match("zzzz"); got.Len() != 0 {
		t.Errorf("expected no matches, got %v", got.Filenames())
	}
}
