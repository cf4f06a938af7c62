// Package coeff holds the per-segment quadratic coefficients used by the
// tanh approximation. A table maps each of the 64 segments partitioning
// [2^-5, 8) to (c0, c1, c2) so that tanh(x) ~ c0 + c1*x + c2*x^2 on the
// segment. Tables are immutable after construction.
package coeff

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/23skdu/longbow-bodkin/internal/fp32"
)

// Segments is the fixed segment count: 8 binades, 8 mantissa bands each.
const Segments = 64

// Coefficients is one quadratic fit, stored as single-precision values.
type Coefficients struct {
	C0, C1, C2 float32
}

type Table struct {
	entries [Segments]Coefficients
}

// Lookup is a pure read; the index is 6 bits wide by construction so there
// is no failure mode.
func (t *Table) Lookup(idx uint8) Coefficients {
	return t.entries[idx&(Segments-1)]
}

// SegmentBounds returns the magnitude interval [a, b) covered by a segment.
func SegmentBounds(idx int) (a, b float64) {
	exp := idx>>3 - 5
	band := idx & 7
	scale := math.Ldexp(1, exp)
	a = scale * (1 + float64(band)/8)
	b = scale * (1 + float64(band+1)/8)
	return
}

// Parse reads an offline-fitted table in the lut.txt format, one segment
// per line:
//
//	<index> h<c0 bits> h<c1 bits> h<c2 bits>
//
// with each coefficient as eight hex digits of the float32 bit pattern.
// Indices must be unique and cover [0, 64); lines may arrive in any order
// and are sorted by index before use.
func Parse(r io.Reader) (*Table, error) {
	type row struct {
		idx int
		c   Coefficients
	}
	var rows []row

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d", line, len(fields))
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad index %q: %w", line, fields[0], err)
		}
		if idx < 0 || idx >= Segments {
			return nil, fmt.Errorf("line %d: index %d out of range [0,%d)", line, idx, Segments)
		}
		var c [3]float32
		for i, f := range fields[1:] {
			bits, err := parseHexBits(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: coefficient %d: %w", line, i, err)
			}
			c[i] = fp32.FromBits(bits)
		}
		rows = append(rows, row{idx, Coefficients{c[0], c[1], c[2]}})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading coefficient table: %w", err)
	}

	if len(rows) != Segments {
		return nil, fmt.Errorf("expected %d segments, got %d", Segments, len(rows))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].idx < rows[j].idx })

	t := &Table{}
	for i, r := range rows {
		if r.idx != i {
			return nil, fmt.Errorf("segment index %d duplicated or missing", i)
		}
		t.entries[i] = r.c
	}
	return t, nil
}

func parseHexBits(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "h"), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad hex bits %q: %w", s, err)
	}
	return uint32(v), nil
}

// WriteTo emits the table in the same lut.txt format Parse reads.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, c := range t.entries {
		n, err := fmt.Fprintf(w, "%d h%08x h%08x h%08x\n",
			i, fp32.Bits(c.C0), fp32.Bits(c.C1), fp32.Bits(c.C2))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table, fitted once on first use.
func Default() *Table {
	defaultOnce.Do(func() { defaultTable = Fit() })
	return defaultTable
}
