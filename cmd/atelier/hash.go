package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/atelier/pkg/fingerprint"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash [tokenId]",
	Short: "Print the render fingerprint of a token",
	Long:  `Computes the deterministic fingerprint and artifact filename of a render without painting it.`,
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

		req, err := resolveRequest(cmd.Context(), cmd, a.engine, args)
		if err != nil {
			return err
		}
		fp := a.engine.ComputeFingerprint(req)
		name := fingerprint.BuildFilename(req.TokenID, fp, fingerprint.ExtPNG)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
				"fingerprint": fp,
				"filename":    name,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), fp)
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
	addRequestFlags(hashCmd)
	hashCmd.Flags().Bool("json", false, "Print the result as JSON")
}
