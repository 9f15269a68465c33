package catalog

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// csvRow is one data row paired with the header-resolved column lookup.
type csvRow struct {
	header map[string]int
	fields []string
}

// get returns the named column trimmed, or "" when absent.
func (r csvRow) get(name string) string {
	i, ok := r.header[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// streamCSV reads a header-first CSV and sends rows to a channel. The caller
// must drain the row channel; both channels close when processing completes.
func streamCSV(ctx context.Context, r io.Reader) (<-chan csvRow, <-chan error) {
	rowCh := make(chan csvRow, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1 // allow variable fields

		headerRec, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			errCh <- eris.Wrap(err, "csv: read header")
			return
		}
		header := make(map[string]int, len(headerRec))
		for i, name := range headerRec {
			header[strings.ToLower(strings.TrimSpace(name))] = i
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			select {
			case rowCh <- csvRow{header: header, fields: record}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
