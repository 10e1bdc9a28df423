// Package dosefield holds the 2D dose field produced by an environment
// simulation run, aligned cell-for-cell with the planning grid, and parses it
// from the simulator's numeric mesh output.
package dosefield

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Field is an immutable 2D dose field. The zero dose field (all zeros) is
// valid and normalizes every cell to 0.
type Field struct {
	data *mat.Dense
	max  float64
}

// New builds a field from row-major values. Values must be non-negative;
// the field's normalization constant is the maximum value.
func New(rows, cols int, values []float64) (*Field, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("dosefield: invalid size %dx%d", rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("dosefield: got %d values, want %d", len(values), rows*cols)
	}
	var max float64
	for i, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("dosefield: negative dose %g at index %d", v, i)
		}
		if v > max {
			max = v
		}
	}
	return &Field{data: mat.NewDense(rows, cols, values), max: max}, nil
}

// Zero returns an all-zero field of the given size.
func Zero(rows, cols int) *Field {
	return &Field{data: mat.NewDense(rows, cols, nil)}
}

// Dims returns the field's row and column counts.
func (f *Field) Dims() (rows, cols int) {
	return f.data.Dims()
}

// At returns the dose at (row, col).
func (f *Field) At(row, col int) float64 {
	return f.data.At(row, col)
}

// Max returns the field's maximum dose, the normalization constant.
func (f *Field) Max() float64 { return f.max }

// Normalized returns the dose at (row, col) scaled into [0,1] by the field
// maximum. A zero field normalizes to 0 everywhere.
func (f *Field) Normalized(row, col int) float64 {
	if f.max == 0 {
		return 0
	}
	return f.data.At(row, col) / f.max
}

// Mean returns the arithmetic mean dose over the whole field.
func (f *Field) Mean() float64 {
	return stat.Mean(f.data.RawMatrix().Data, nil)
}

// ParseDeposit reads the simulator's mesh tally output and extracts the
// rows*cols dose values in row-major order. Header and key/value lines
// (containing ':' or '=', or starting with '#') are skipped; everything else
// is scanned for floating-point fields, matching the loose layout the
// simulator emits.
func ParseDeposit(r io.Reader, rows, cols int) (*Field, error) {
	want := rows * cols
	values := make([]float64, 0, want)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.ContainsAny(line, ":=") || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.ContainsFunc(line, unicode.IsDigit) {
			continue
		}
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			values = append(values, v)
			if len(values) == want {
				break
			}
		}
		if len(values) == want {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dosefield: read deposit output: %w", err)
	}
	if len(values) < want {
		return nil, fmt.Errorf("dosefield: deposit output yielded %d values, want %d", len(values), want)
	}

	return New(rows, cols, values)
}
