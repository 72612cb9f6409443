// Package frame provides the columnar storage the expression engine reads
// from and writes into: typed nullable values laid out column-wise.
package frame

import (
	"fmt"
	"sort"
	"strings"
)

// Series is a named, ordered sequence of values: one column.
type Series struct {
	Name   string
	Values []Value
}

// NewSeries creates a series from a name and values.
func NewSeries(name string, values []Value) Series {
	return Series{Name: name, Values: values}
}

// Ints creates an int64 series.
func Ints(name string, vs ...int64) Series {
	values := make([]Value, len(vs))
	for i, v := range vs {
		values[i] = Int64(v)
	}
	return Series{Name: name, Values: values}
}

// Floats creates a float64 series.
func Floats(name string, vs ...float64) Series {
	values := make([]Value, len(vs))
	for i, v := range vs {
		values[i] = Float64(v)
	}
	return Series{Name: name, Values: values}
}

// Strings creates a string series.
func Strings(name string, vs ...string) Series {
	values := make([]Value, len(vs))
	for i, v := range vs {
		values[i] = Str(v)
	}
	return Series{Name: name, Values: values}
}

// Len returns the number of values in the series.
func (s Series) Len() int {
	return len(s.Values)
}

// Frame is an ordered collection of equal-length series.
type Frame struct {
	series []Series
	index  map[string]int
}

// New creates a frame from series. All series must have the same length
// and unique names.
func New(series ...Series) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(series))}
	for _, s := range series {
		if err := f.add(s); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Frame) add(s Series) error {
	if _, dup := f.index[s.Name]; dup {
		return fmt.Errorf("frame: duplicate column %q", s.Name)
	}
	if len(f.series) > 0 && s.Len() != f.Len() {
		return fmt.Errorf("frame: column %q has %d rows, frame has %d", s.Name, s.Len(), f.Len())
	}
	f.index[s.Name] = len(f.series)
	f.series = append(f.series, s)
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if len(f.series) == 0 {
		return 0
	}
	return f.series[0].Len()
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	return len(f.series)
}

// Columns returns the column names in their natural order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.series))
	for i, s := range f.series {
		names[i] = s.Name
	}
	return names
}

// Column returns the series with the given name, or false if absent.
func (f *Frame) Column(name string) (Series, bool) {
	i, ok := f.index[name]
	if !ok {
		return Series{}, false
	}
	return f.series[i], true
}

// Row returns the values of row i in column order.
func (f *Frame) Row(i int) []Value {
	out := make([]Value, len(f.series))
	for j, s := range f.series {
		out[j] = s.Values[i]
	}
	return out
}

// HasColumn reports whether a column with the given name exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// SortBy returns a new frame with rows stably sorted ascending by the
// given key columns. Nulls sort last. The receiver is not mutated.
func (f *Frame) SortBy(keys ...string) (*Frame, error) {
	return f.sortBy(keys, false)
}

// SortByDesc is SortBy with descending order.
func (f *Frame) SortByDesc(keys ...string) (*Frame, error) {
	return f.sortBy(keys, true)
}

func (f *Frame) sortBy(keys []string, desc bool) (*Frame, error) {
	cols := make([]Series, len(keys))
	for i, k := range keys {
		s, ok := f.Column(k)
		if !ok {
			return nil, fmt.Errorf("sort: column %q not found", k)
		}
		cols[i] = s
	}

	perm := make([]int, f.Len())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		for _, col := range cols {
			cmp := Compare(col.Values[perm[i]], col.Values[perm[j]])
			if cmp != 0 {
				if desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})

	return f.Take(perm), nil
}

// Take returns a new frame containing the rows at the given indices, in
// the given order. Indices may repeat.
func (f *Frame) Take(indices []int) *Frame {
	out := &Frame{index: make(map[string]int, len(f.series))}
	for _, s := range f.series {
		values := make([]Value, len(indices))
		for i, idx := range indices {
			values[i] = s.Values[idx]
		}
		out.index[s.Name] = len(out.series)
		out.series = append(out.series, Series{Name: s.Name, Values: values})
	}
	return out
}

// String returns a compact representation of the frame.
func (f *Frame) String() string {
	if f.Width() == 0 {
		return "[] (0 columns)"
	}
	if f.Len() == 0 {
		return "[" + strings.Join(f.Columns(), ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for i := 0; i < f.Len(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, s := range f.series {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.Name)
			sb.WriteString(":")
			sb.WriteString(s.Values[i].AsString())
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
