package main

import (
	"encoding/csv"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/tephra-labs/volcmatch/internal/compact"
	"github.com/tephra-labs/volcmatch/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export <out.csv|out.xlsx>",
	Short: "Export stored match results to CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		var rows [][]string
		offset := 0
		for {
			page, err := s.ListMatches(ctx, store.MatchFilter{Limit: 1000, Offset: offset})
			if err != nil {
				return err
			}
			for _, md := range page {
				row, err := exportRow(md)
				if err != nil {
					zap.L().Warn("skipping undecodable document",
						zap.String("sample", md.SampleID), zap.Error(err))
					continue
				}
				rows = append(rows, row)
			}
			if len(page) < 1000 {
				break
			}
			offset += len(page)
		}

		out := args[0]
		if strings.HasSuffix(strings.ToLower(out), ".xlsx") {
			err = writeXLSX(out, rows)
		} else {
			err = writeCSV(out, rows)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export complete", zap.String("file", out), zap.Int("rows", len(rows)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportHeader = []string{
	"sample_id", "matched", "volcano_name", "volcano_number", "distance_km",
	"confidence", "final", "spatial", "tectonic", "temporal", "petrological",
	"coverage", "uncertainty", "gap", "flags",
	"evidence_found", "evidence_type", "evidence_source",
}

func exportRow(md store.MatchDoc) ([]string, error) {
	m, err := compact.Decode(md.Doc)
	if err != nil {
		return nil, err
	}

	row := []string{m.SampleID, strconv.FormatBool(m.Matched())}
	if m.Matched() {
		row = append(row,
			m.Volcano.Name,
			strconv.Itoa(m.Volcano.Number),
			fmtFloat(m.Volcano.DistanceKM),
			string(m.Quality.Confidence),
			fmtFloat(m.Scores.Final),
			fmtFloatPtr(m.Scores.Spatial),
			fmtFloatPtr(m.Scores.Tectonic),
			fmtFloatPtr(m.Scores.Temporal),
			fmtFloatPtr(m.Scores.Petrological),
		)
	} else {
		row = append(row, "", "", "", string(m.Quality.Confidence), "", "", "", "", "")
	}

	flags := make([]string, len(m.Quality.Flags))
	for i, f := range m.Quality.Flags {
		flags[i] = string(f)
	}
	row = append(row,
		fmtFloat(m.Quality.Coverage),
		fmtFloat(m.Quality.Uncertainty),
		fmtFloatPtr(m.Quality.Gap),
		strings.Join(flags, "|"),
		strconv.FormatBool(m.Evidence.Found),
		string(m.Evidence.Type),
		string(m.Evidence.Source),
	)
	return row, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create export file %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return eris.Wrap(err, "write export header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write export row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush export")
}

func writeXLSX(path string, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("matches")
	if err != nil {
		return eris.Wrap(err, "add export sheet")
	}

	addRow := func(cells []string) {
		r := sheet.AddRow()
		for _, c := range cells {
			r.AddCell().SetString(c)
		}
	}
	addRow(exportHeader)
	for _, row := range rows {
		addRow(row)
	}

	return eris.Wrapf(f.Save(path), "save export file %s", path)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}
