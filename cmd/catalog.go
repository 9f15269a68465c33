package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tephra-labs/volcmatch/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the volcano catalog",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load <volcanoes.csv>",
	Short: "Replace the stored volcano catalog from a CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("catalog"); err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open catalog file %s", args[0])
		}
		defer f.Close()

		volcanoes, err := catalog.LoadVolcanoes(ctx, f)
		if err != nil {
			return err
		}
		if len(volcanoes) == 0 {
			return eris.New("catalog file contains no usable volcanoes")
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.ReplaceVolcanoes(ctx, volcanoes); err != nil {
			return err
		}

		zap.L().Info("catalog loaded",
			zap.Int("volcanoes", len(volcanoes)),
			zap.String("driver", cfg.Store.Driver),
		)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogLoadCmd)
	rootCmd.AddCommand(catalogCmd)
}
