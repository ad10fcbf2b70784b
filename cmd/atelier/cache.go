package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/atelier/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and invalidate render caches",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-namespace cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		var b strings.Builder
		b.WriteString("| Namespace | Entries | Valid | Expired | Bytes | Hits | Misses | Evictions |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, s := range a.engine.Stats() {
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d | %d | %d |\n",
				s.Name, s.Total, s.Valid, s.Expired, s.ApproxBytes, s.Hits, s.Misses, s.Evictions)
		}
		out, err := tui.NewRenderer(os.Stdout)(b.String())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate [tokenId]",
	Short: "Drop cached and stored renders of a token, a range or everything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		all, _ := cmd.Flags().GetBool("all")
		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")

		var n int
		switch {
		case all:
			n, err = a.engine.InvalidateAll(ctx)
		case cmd.Flags().Changed("start") || cmd.Flags().Changed("end"):
			if !cmd.Flags().Changed("start") || !cmd.Flags().Changed("end") {
				return fmt.Errorf("--start and --end must be given together")
			}
			n, err = a.engine.InvalidateRange(ctx, start, end)
		case len(args) == 1:
			tokenID, convErr := strconv.Atoi(args[0])
			if convErr != nil {
				return fmt.Errorf("invalid token id %q", args[0])
			}
			n, err = a.engine.Invalidate(ctx, tokenID)
		default:
			return fmt.Errorf("expected a token id, --start/--end or --all")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "invalidated %d entries\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheInvalidateCmd)
	cacheInvalidateCmd.Flags().Bool("all", false, "Invalidate every render")
	cacheInvalidateCmd.Flags().Int("start", 0, "First token id of the range")
	cacheInvalidateCmd.Flags().Int("end", 0, "Last token id of the range (inclusive)")
}
