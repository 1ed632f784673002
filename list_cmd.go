package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/shortnotes/audiogen/internal/exercise"
	"github.com/shortnotes/audiogen/internal/synth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultWidth = 80

var (
	listYAML bool

	listCmd = &cobra.Command{
		Use:     "list [PATTERN]",
		Short:   "List the exercises of the catalog",
		Long:    paragraph(fmt.Sprintf("\n%s the exercises that would be generated, optionally fuzzy-filtered by filename.", keyword("List"))),
		Example: paragraph("audiogen list\naudiogen list budget\naudiogen list --yaml > exercises.yml"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pattern string
			if len(args) > 0 {
				pattern = args[0]
			}

			c, err := loadCatalog(cfg.Catalog, pattern)
			if err != nil {
				return err
			}

			if listYAML {
				b, err := c.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			return printCatalog(cmd.OutOrStdout(), c, cachedFilenames(c, cfg), terminalWidth())
		},
	}
)

func init() {
	listCmd.Flags().BoolVar(&listYAML, "yaml", false, "print the catalog as YAML")
}

// cachedFilenames reports which exercises already have audio in the cache
// for the configured provider settings.
func cachedFilenames(c exercise.Catalog, rc runConfig) map[string]bool {
	if !rc.Cache.Enabled {
		return nil
	}
	dc, err := rc.Cache.open()
	if err != nil {
		log.Debug("Skipping cache lookup", "err", err)
		return nil
	}
	defer dc.Close() //nolint:errcheck

	s, err := synth.New(synth.Options{Provider: rc.Engine, TLD: rc.TLD, OpenAI: rc.OpenAI})
	if err != nil {
		return nil
	}

	cached := make(map[string]bool)
	for _, ex := range c.Exercises() {
		key := synth.KeyFor(s, synth.Request{Text: ex.Text, Language: rc.Language, Slow: rc.Slow})
		if dc.Contains(key) {
			cached[ex.Filename] = true
		}
	}
	return cached
}

// printCatalog writes one block per exercise: the filename followed by its
// text wrapped to width.
func printCatalog(w io.Writer, c exercise.Catalog, cached map[string]bool, width int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d exercises)\n\n", keyword(c.Title()), c.Len())

	pad := 0
	for _, name := range c.Filenames() {
		pad = max(pad, runewidth.StringWidth(name))
	}

	const margin = 4
	for i, ex := range c.Exercises() {
		info := fmt.Sprintf("%d words, %d characters", len(strings.Fields(ex.Text)), runewidth.StringWidth(ex.Text))
		if cached[ex.Filename] {
			info += ", cached"
		}
		fmt.Fprintf(&b, "%s  %s\n", runewidth.FillRight(ex.Filename, pad), dimStyle.Render(info))
		wrapped := wordwrap.String(ex.Text, max(width-margin, 20))
		b.WriteString(indent.String(wrapped, margin))
		b.WriteString("\n")
		if i < c.Len()-1 {
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return min(w, 120)
}
