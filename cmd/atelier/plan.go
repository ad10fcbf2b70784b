package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/atelier/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [tokenId]",
	Short: "Show the layers a token is painted from",
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
		req, err := resolveRequest(ctx, cmd, a.engine, args)
		if err != nil {
			return err
		}
		plan, err := a.engine.Plan(ctx, req)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		}
		out, err := tui.NewRenderer(os.Stdout)(tui.PlanMarkdown(plan, a.engine.ComputeFingerprint(req)))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	addRequestFlags(planCmd)
	planCmd.Flags().Bool("json", false, "Print the plan as JSON")
}
