package engine

import (
	"fmt"
	"strings"

	"github.com/zundertj/lazyframe/frame"
)

// Group is one partition cell: the key values and the ordered row
// indices of its members.
type Group struct {
	Key  []frame.Value
	Rows []int
}

// Partition maps composite group keys to their member rows. Groups are
// ordered by first occurrence of each key in the current row order, so a
// preceding stable sort determines group order. The groups are disjoint
// and together cover every row of the domain exactly once.
type Partition struct {
	Keys   []string
	Groups []Group
}

// partition scans the domain once in row order and assigns each row to
// the group of its composite key. Nulls form their own group: a null key
// equals only another null key. A nil domain means every row.
func partition(f *frame.Frame, keys []string, domain []int) (*Partition, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: grouping requires at least one key column", ErrInvalidExpr)
	}
	cols := make([]frame.Series, len(keys))
	for i, k := range keys {
		s, ok := f.Column(k)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, k)
		}
		cols[i] = s
	}

	if domain == nil {
		domain = make([]int, f.Len())
		for i := range domain {
			domain[i] = i
		}
	}

	p := &Partition{Keys: keys}
	seen := make(map[string]int, 16) // key string -> index in Groups

	for _, row := range domain {
		keyVals := make([]frame.Value, len(cols))
		for i, c := range cols {
			keyVals[i] = c.Values[row]
		}
		ks := keyString(keyVals)

		gi, ok := seen[ks]
		if !ok {
			gi = len(p.Groups)
			seen[ks] = gi
			p.Groups = append(p.Groups, Group{Key: keyVals})
		}
		p.Groups[gi].Rows = append(p.Groups[gi].Rows, row)
	}
	return p, nil
}

// keyString encodes key values with a type tag per part, so the string
// "1" and the integer 1 land in different groups and null matches only
// null.
func keyString(vals []frame.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		switch v.Type {
		case frame.TypeNull:
			parts[i] = "n:"
		case frame.TypeInt:
			parts[i] = "i:" + v.AsString()
		case frame.TypeFloat:
			parts[i] = "f:" + v.AsString()
		case frame.TypeString:
			parts[i] = "s:" + v.Str
		case frame.TypeBool:
			parts[i] = "b:" + v.AsString()
		default:
			parts[i] = "l:" + v.AsString()
		}
	}
	return strings.Join(parts, "\x00")
}

// memberCount returns the total number of rows across all groups.
func (p *Partition) memberCount() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Rows)
	}
	return n
}

// scatterToRows places per-group values back onto original row
// positions. Per-group scalars replicate over their group's members;
// list values of exactly the group size scatter element by element.
func (p *Partition) scatterToRows(r result, total int) ([]frame.Value, error) {
	out := make([]frame.Value, total)
	for gi, g := range p.Groups {
		v := r.values[gi]
		if r.shape == ShapeNested || v.Type == frame.TypeList {
			if len(v.List) != len(g.Rows) {
				return nil, fmt.Errorf("%w: group result has %d values for %d rows",
					ErrShapeMismatch, len(v.List), len(g.Rows))
			}
			for i, row := range g.Rows {
				out[row] = v.List[i]
			}
			continue
		}
		for _, row := range g.Rows {
			out[row] = v
		}
	}
	return out, nil
}

// Explode expands the named list columns into one output row per list
// element. Groups stay in order and every non-exploded column replicates
// its row value across the expanded rows. All named columns must agree
// on the element count within each row; a non-list value counts as a
// single element and a null list explodes to a single null row.
func Explode(f *frame.Frame, cols ...string) (*frame.Frame, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: explode requires at least one column", ErrInvalidExpr)
	}
	exploded := make(map[string]bool, len(cols))
	for _, c := range cols {
		if !f.HasColumn(c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		exploded[c] = true
	}

	// Element count per row, validated across all exploded columns.
	counts := make([]int, f.Len())
	for i := range counts {
		counts[i] = -1
	}
	for _, name := range cols {
		s, _ := f.Column(name)
		for i, v := range s.Values {
			n := 1
			if v.Type == frame.TypeList {
				n = len(v.List)
				if n == 0 {
					n = 1 // empty list explodes to a single null row
				}
			}
			if counts[i] == -1 {
				counts[i] = n
			} else if counts[i] != n {
				return nil, fmt.Errorf("%w: exploded columns disagree on row %d (%d vs %d elements)",
					ErrShapeMismatch, i, counts[i], n)
			}
		}
	}

	out := make([]frame.Series, 0, f.Width())
	for _, name := range f.Columns() {
		s, _ := f.Column(name)
		values := make([]frame.Value, 0, f.Len())
		for i, v := range s.Values {
			if exploded[name] && v.Type == frame.TypeList {
				if len(v.List) == 0 {
					values = append(values, frame.Null())
					continue
				}
				values = append(values, v.List...)
				continue
			}
			for k := 0; k < counts[i]; k++ {
				values = append(values, v)
			}
		}
		out = append(out, frame.NewSeries(name, values))
	}
	return frame.New(out...)
}
