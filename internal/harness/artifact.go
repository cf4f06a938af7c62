package harness

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteArtifact emits one delimited record per sample, suitable for
// offline inspection: input, hardware output, then every reference output.
// A comment line carrying the run ID precedes the header. Values are
// formatted with just enough digits to round-trip as float32.
func WriteArtifact(w io.Writer, rep *Report) error {
	if _, err := fmt.Fprintf(w, "# run %s batch %s\n", rep.ID, rep.Name); err != nil {
		return fmt.Errorf("writing artifact preamble: %w", err)
	}
	cw := csv.NewWriter(w)

	header := append([]string{"input", "hardware"}, rep.GenNames...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing artifact header: %w", err)
	}

	row := make([]string, 0, len(header))
	for i := range rep.Records {
		rec := &rep.Records[i]
		row = row[:0]
		row = append(row, formatF32(rec.Input), formatF32(rec.Hardware))
		for _, r := range rec.Refs {
			row = append(row, formatF32(r))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing artifact record %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing artifact: %w", err)
	}
	return nil
}

func formatF32(v float32) string {
	return strconv.FormatFloat(float64(v), 'e', -1, 32)
}
