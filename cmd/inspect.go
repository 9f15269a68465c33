package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tephra-labs/volcmatch/internal/compact"
	"github.com/tephra-labs/volcmatch/internal/explain"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <sample-id>",
	Short: "Explain the stored match decision for one sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("inspect"); err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		doc, err := s.GetMatch(ctx, args[0])
		if err != nil {
			return err
		}

		if inspectJSON {
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		}

		meta, err := compact.Decode(doc)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), explain.Render(meta))
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the raw compact document")
	rootCmd.AddCommand(inspectCmd)
}
