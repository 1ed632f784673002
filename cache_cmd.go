package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the audio cache",
		Args:  cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show audio cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := cfg.Cache.cacheDir()
			if err != nil {
				return err
			}
			dc, err := cfg.Cache.open()
			if err != nil {
				return err
			}
			defer dc.Close() //nolint:errcheck

			s := dc.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory: %s\n", dir)
			fmt.Fprintf(out, "Entries:   %s\n", humanize.Comma(s.ItemCount))
			fmt.Fprintf(out, "Size:      %s of %s\n", humanize.IBytes(uint64(s.Size)), humanize.IBytes(uint64(s.Capacity))) //nolint:gosec
			if !s.LastAccess.IsZero() {
				fmt.Fprintf(out, "Last used: %s\n", humanize.Time(s.LastAccess))
			}
			return nil
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached audio clip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dc, err := cfg.Cache.open()
			if err != nil {
				return err
			}
			n := len(dc.Keys())
			if err := dc.Clear(); err != nil {
				_ = dc.Close()
				return err
			}
			if err := dc.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s cached %s.\n", humanize.Comma(int64(n)), plural(n, "clip", "clips"))
			return nil
		},
	}
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}
