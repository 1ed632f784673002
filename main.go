// Package main provides the entry point for the audiogen CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/shortnotes/audiogen/internal/batch"
	"github.com/shortnotes/audiogen/internal/exercise"
	"github.com/shortnotes/audiogen/internal/synth"
	"github.com/shortnotes/audiogen/internal/watch"
	"github.com/shortnotes/audiogen/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "audiogen"

// errReported marks a failure whose advice was already printed.
var errReported = errors.New("audio generation failed")

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	only       string
	noCache    bool
	watchMode  bool

	envCfg envConfig
	cfg    runConfig

	rootCmd = &cobra.Command{
		Use:   "audiogen",
		Short: "Generate speech audio files for practice exercises",
		Long: paragraph(
			fmt.Sprintf("\nGenerate %s for the exercises of a catalog using a text-to-speech service.", keyword("MP3 audio files")),
		),
		Example: paragraph("audiogen\naudiogen --out assets/audio --lang en\naudiogen --catalog exercises.yml --watch"),
		SilenceErrors:    true,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(_ *cobra.Command) error {
	if configFile != "" {
		viper.SetConfigFile(utils.ExpandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	}

	var err error
	if envCfg, err = parseEnv(); err != nil {
		return err
	}
	if cfg, err = loadRunConfig(envCfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if noCache {
		cfg.Cache.Enabled = false
	}
	if watchMode && cfg.Catalog == "" {
		return errors.New("--watch requires a catalog file (--catalog)")
	}
	return nil
}

func execute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if watchMode {
		return watch.File(ctx, cfg.Catalog, watch.DefaultDebounce, func(ctx context.Context) error {
			return generate(ctx, out)
		})
	}
	return generate(ctx, out)
}

// generate runs one batch. Handled failures print their advice and return
// nil unless strict mode is on.
func generate(ctx context.Context, w io.Writer) error {
	catalog, err := loadCatalog(cfg.Catalog, only)
	if err != nil {
		return err
	}

	s, closeSynth, err := newSynthesizer(cfg)
	if err != nil {
		return err
	}
	defer closeSynth()

	conv := batch.New(catalog, s, batch.NewConsole(w), batch.Options{
		OutDir:    cfg.OutDir,
		Language:  cfg.Language,
		Slow:      cfg.Slow,
		KeepGoing: cfg.KeepGoing,
		Atomic:    cfg.Atomic,
	}).WithLogger(log.With("engine", s.Name(), "lang", cfg.Language))

	if _, err := conv.Run(ctx); err != nil {
		if cfg.Strict {
			return fmt.Errorf("%w: %w", errReported, err)
		}
		log.Debug("Run failed, advice printed", "err", err, "unavailable", batch.IsUnavailable(err))
	}
	return nil
}

// loadCatalog returns the catalog file at path, or the built-in catalog, with
// the optional fuzzy filter applied.
func loadCatalog(path, pattern string) (exercise.Catalog, error) {
	c := exercise.Default()
	if path != "" {
		var err error
		if c, err = exercise.LoadFile(path); err != nil {
			return exercise.Catalog{}, err
		}
	}

	if pattern != "" {
		c = c.Match(pattern)
		if c.Len() == 0 {
			return exercise.Catalog{}, fmt.Errorf("no exercise matches %q", pattern)
		}
	}
	return c, nil
}

// newSynthesizer builds the configured provider, backed by the disk cache
// when enabled. A cache that cannot be opened is skipped.
func newSynthesizer(c runConfig) (synth.Synthesizer, func(), error) {
	opts := synth.Options{
		Provider:          c.Engine,
		Timeout:           c.Timeout,
		RequestsPerMinute: c.RequestsPerMinute,
		TLD:               c.TLD,
		OpenAI:            c.OpenAI,
	}

	closer := func() {}
	if c.Cache.Enabled {
		dc, err := c.Cache.open()
		if err != nil {
			log.Warn("Audio cache disabled", "err", err)
		} else {
			opts.Cache = dc
			closer = func() {
				if err := dc.Close(); err != nil {
					log.Warn("Could not save audio cache", "err", err)
				}
			}
		}
	}

	s, err := synth.New(opts)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return s, closer, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	_ = closer()

	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	setDefaults()
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringP("catalog", "c", "", "YAML catalog file (default: built-in exercises)")
	rootCmd.Flags().StringP("out", "o", ".", "directory the audio files are written to")
	rootCmd.Flags().StringP("lang", "l", synth.DefaultLanguage, "language code sent to the provider")
	rootCmd.Flags().Bool("slow", false, "request slower speech")
	rootCmd.Flags().StringP("engine", "e", synth.ProviderGTTS, "synthesis provider (gtts, gtts-cli, openai)")
	rootCmd.Flags().StringVar(&only, "only", "", "only generate exercises whose filename fuzzy-matches this pattern")
	rootCmd.Flags().BoolP("keep-going", "k", false, "continue with the remaining exercises after a failure")
	rootCmd.Flags().Bool("atomic", false, "write all files or none")
	rootCmd.Flags().Bool("strict", false, "exit with status 1 when generation fails")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use the audio cache")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "regenerate whenever the catalog file changes")

	// Config bindings
	_ = viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
	_ = viper.BindPFlag("out", rootCmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("lang", rootCmd.Flags().Lookup("lang"))
	_ = viper.BindPFlag("slow", rootCmd.Flags().Lookup("slow"))
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("keep_going", rootCmd.Flags().Lookup("keep-going"))
	_ = viper.BindPFlag("atomic", rootCmd.Flags().Lookup("atomic"))
	_ = viper.BindPFlag("strict", rootCmd.Flags().Lookup("strict"))

	rootCmd.AddCommand(configCmd, manCmd, listCmd, cacheCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, appName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("AUDIOGEN_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if len(dirs) > 0 {
		configFile = filepath.Join(dirs[0], appName+".yml")
	}
}
