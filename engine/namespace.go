package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zundertj/lazyframe/expr"
	"github.com/zundertj/lazyframe/frame"
)

// evalNamespaced dispatches str, dt and series namespace operations.
func evalNamespaced(x *expr.NamespacedNode, ctx *evalCtx) (result, error) {
	child, err := eval(x.Child, ctx)
	if err != nil {
		return result{}, err
	}

	args := make([]frame.Value, len(x.Args))
	for i, a := range x.Args {
		r, err := eval(a, ctx)
		if err != nil {
			return result{}, err
		}
		if r.shape != ShapeScalar {
			return result{}, fmt.Errorf("%w: %s.%s argument must be a scalar", ErrInvalidExpr, x.Namespace, x.Op)
		}
		args[i] = r.values[0]
	}

	switch x.Namespace {
	case "str":
		if x.Op == "contains" {
			// Compile the pattern once for the whole column.
			if len(args) != 1 {
				return result{}, fmt.Errorf("%w: str.contains takes 1 argument", ErrInvalidExpr)
			}
			re, err := regexp.Compile(args[0].AsString())
			if err != nil {
				return result{}, fmt.Errorf("%w: str.contains pattern: %v", ErrInvalidExpr, err)
			}
			return mapValues(child, func(v frame.Value) (frame.Value, error) {
				if v.IsNull() {
					return frame.Null(), nil
				}
				return frame.Boolean(re.MatchString(v.AsString())), nil
			})
		}
		return mapValues(child, func(v frame.Value) (frame.Value, error) {
			return applyStr(x.Op, v)
		})
	case "dt":
		return mapValues(child, func(v frame.Value) (frame.Value, error) {
			return applyDt(x.Op, v)
		})
	case "series":
		return applySeries(x.Op, child, args)
	default:
		return result{}, fmt.Errorf("%w: unknown namespace %q", ErrInvalidExpr, x.Namespace)
	}
}

func mapValues(r result, fn func(frame.Value) (frame.Value, error)) (result, error) {
	values := make([]frame.Value, len(r.values))
	for i, v := range r.values {
		out, err := fn(v)
		if err != nil {
			return result{}, err
		}
		values[i] = out
	}
	return result{shape: r.shape, values: values, part: r.part}, nil
}

// applyStr implements string operations. Nulls pass through as null.
func applyStr(op string, v frame.Value) (frame.Value, error) {
	if v.IsNull() {
		return frame.Null(), nil
	}
	s := v.AsString()
	switch op {
	case "upper":
		return frame.Str(strings.ToUpper(s)), nil
	case "lower":
		return frame.Str(strings.ToLower(s)), nil
	case "len":
		return frame.Int64(int64(utf8.RuneCountInString(s))), nil
	default:
		return frame.Null(), fmt.Errorf("%w: unknown str operation %q", ErrInvalidExpr, op)
	}
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

// applyDt implements date-part extraction over date strings. Nulls pass
// through; unparseable values are a type error.
func applyDt(op string, v frame.Value) (frame.Value, error) {
	if v.IsNull() {
		return frame.Null(), nil
	}
	if v.Type != frame.TypeString {
		return frame.Null(), fmt.Errorf("%w: dt.%s: cannot parse %v as a date", ErrType, op, v.AsString())
	}

	var t time.Time
	parsed := false
	for _, layout := range dateFormats {
		var err error
		if t, err = time.Parse(layout, v.Str); err == nil {
			parsed = true
			break
		}
	}
	if !parsed {
		return frame.Null(), fmt.Errorf("%w: dt.%s: cannot parse %q as a date", ErrType, op, v.Str)
	}

	switch op {
	case "year":
		return frame.Int64(int64(t.Year())), nil
	case "month":
		return frame.Int64(int64(t.Month())), nil
	case "day":
		return frame.Int64(int64(t.Day())), nil
	default:
		return frame.Null(), fmt.Errorf("%w: unknown dt operation %q", ErrInvalidExpr, op)
	}
}

// applySeries implements order-dependent sequence operations.
func applySeries(op string, child result, args []frame.Value) (result, error) {
	switch op {
	case "shift":
		if len(args) == 0 {
			return result{}, fmt.Errorf("%w: series.shift takes an offset", ErrInvalidExpr)
		}
		if args[0].Type != frame.TypeInt {
			return result{}, fmt.Errorf("%w: shift offset must be an integer", ErrType)
		}
		n := int(args[0].Int)
		fill := frame.Null()
		if len(args) > 1 {
			fill = args[1]
		}
		values := make([]frame.Value, len(child.values))
		for i := range values {
			src := i - n
			if src < 0 || src >= len(child.values) {
				values[i] = fill
			} else {
				values[i] = child.values[src]
			}
		}
		return result{shape: child.shape, values: values, part: child.part}, nil

	case "fill_null":
		if len(args) != 1 {
			return result{}, fmt.Errorf("%w: series.fill_null takes a fill value", ErrInvalidExpr)
		}
		return mapValues(child, func(v frame.Value) (frame.Value, error) {
			if v.IsNull() {
				return args[0], nil
			}
			return v, nil
		})

	default:
		return result{}, fmt.Errorf("%w: unknown series operation %q", ErrInvalidExpr, op)
	}
}
