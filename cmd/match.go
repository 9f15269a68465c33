package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tephra-labs/volcmatch/internal/catalog"
	"github.com/tephra-labs/volcmatch/internal/compact"
	"github.com/tephra-labs/volcmatch/internal/matcher"
	"github.com/tephra-labs/volcmatch/internal/model"
	"github.com/tephra-labs/volcmatch/internal/store"
	"github.com/tephra-labs/volcmatch/internal/tectonic"
)

var matchLimit int

var matchCmd = &cobra.Command{
	Use:   "match <samples.csv>",
	Short: "Match a batch of samples against the stored catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("match"); err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open samples file %s", args[0])
		}
		defer f.Close()

		samples, err := catalog.LoadSamples(ctx, f)
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		policy, err := loadPolicy()
		if err != nil {
			return err
		}

		// The catalog is read once into an immutable snapshot so every
		// worker queries memory, not the database.
		volcanoes, err := s.AllVolcanoes(ctx)
		if err != nil {
			return err
		}
		snapshot := catalog.NewSnapshot(volcanoes)

		var classifier *tectonic.Classifier
		if cfg.Tectonic.BoundariesPath != "" {
			classifier, err = tectonic.Load(cfg.Tectonic.BoundariesPath, 0)
			if err != nil {
				return err
			}
		}

		m, err := matcher.New(snapshot, policy)
		if err != nil {
			return err
		}

		return runMatchBatch(ctx, m, s, classifier, samples, matchLimit, cfg.Batch.Workers, snapshot.Len())
	},
}

func init() {
	matchCmd.Flags().IntVar(&matchLimit, "limit", 0, "max number of samples to process (0 = all)")
	rootCmd.AddCommand(matchCmd)
}

// runMatchBatch matches samples concurrently and persists one compact
// document per sample. Individual sample failures are counted, not fatal.
func runMatchBatch(ctx context.Context, m *matcher.Matcher, matches store.MatchStore, classifier *tectonic.Classifier, samples []model.Sample, limit, workers, catalogSize int) error {
	if len(samples) == 0 {
		zap.L().Info("no samples to match")
		return nil
	}
	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}

	runID := uuid.NewString()
	zap.L().Info("matching batch",
		zap.String("run_id", runID),
		zap.Int("samples", len(samples)),
		zap.Int("volcanoes", catalogSize),
		zap.Int("workers", workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var matched, unmatched, failed atomic.Int64

	for _, sample := range samples {
		g.Go(func() error {
			log := zap.L().With(zap.String("run_id", runID), zap.String("sample", sample.ID))

			if classifier != nil {
				classifier.Backfill(&sample)
			}

			meta, err := m.Match(gctx, sample)
			if err != nil {
				failed.Add(1)
				log.Error("match failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			doc, err := compact.Encode(meta)
			if err != nil {
				failed.Add(1)
				log.Error("encode failed", zap.Error(err))
				return nil
			}
			if err := matches.PutMatch(gctx, sample.ID, doc); err != nil {
				failed.Add(1)
				log.Error("persist failed", zap.Error(err))
				return nil
			}

			if meta.Matched() {
				matched.Add(1)
				log.Info("matched",
					zap.String("volcano", meta.Volcano.Name),
					zap.Float64("final", meta.Scores.Final),
					zap.String("confidence", string(meta.Quality.Confidence)),
				)
			} else {
				unmatched.Add(1)
				log.Info("unmatched", zap.Any("flags", meta.Quality.Flags))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "match batch")
	}

	zap.L().Info("batch complete",
		zap.String("run_id", runID),
		zap.Int64("matched", matched.Load()),
		zap.Int64("unmatched", unmatched.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
