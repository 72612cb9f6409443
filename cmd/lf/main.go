// Command lf loads a tabular file (csv, json, jsonl, avro or parquet),
// optionally selects, sorts and aggregates it, and renders the result.
//
//	lf -select name,age users.csv
//	lf -sort city -group city -agg sum:age,count:name users.parquet
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/zundertj/lazyframe/engine"
	"github.com/zundertj/lazyframe/expr"
	"github.com/zundertj/lazyframe/frame"
	"github.com/zundertj/lazyframe/loader"
)

func main() {
	var (
		selectCols = flag.String("select", "", "comma-separated columns to select")
		sortCol    = flag.String("sort", "", "column to sort by before anything else")
		desc       = flag.Bool("desc", false, "sort descending")
		groupCol   = flag.String("group", "", "column to group by")
		aggSpec    = flag.String("agg", "", "aggregations as op:col[,op:col...], ops: sum mean min max first last count list")
		head       = flag.Int("head", 0, "limit output to the first n rows")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: lf [flags] <file>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	result, err := run(flag.Arg(0), *selectCols, *sortCol, *desc, *groupCol, *aggSpec, *head)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	render(result)
}

func run(filename, selectCols, sortCol string, desc bool, groupCol, aggSpec string, head int) (*frame.Frame, error) {
	f, err := loader.Load(filename)
	if err != nil {
		return nil, err
	}

	if sortCol != "" {
		if desc {
			f, err = engine.SortDesc(f, sortCol)
		} else {
			f, err = engine.Sort(f, sortCol)
		}
		if err != nil {
			return nil, err
		}
	}

	switch {
	case groupCol != "":
		exprs, err := parseAggSpec(aggSpec)
		if err != nil {
			return nil, err
		}
		f, err = engine.GroupBy(f, groupCol).Agg(exprs...)
		if err != nil {
			return nil, err
		}
	case selectCols != "":
		var exprs []expr.Expr
		for _, c := range strings.Split(selectCols, ",") {
			exprs = append(exprs, expr.Col(strings.TrimSpace(c)))
		}
		f, err = engine.Select(f, exprs...)
		if err != nil {
			return nil, err
		}
	}

	if head > 0 && head < f.Len() {
		indices := make([]int, head)
		for i := range indices {
			indices[i] = i
		}
		f = f.Take(indices)
	}
	return f, nil
}

func parseAggSpec(spec string) ([]expr.Expr, error) {
	if spec == "" {
		return nil, fmt.Errorf("-group requires -agg, e.g. -agg sum:amount")
	}
	var exprs []expr.Expr
	for _, part := range strings.Split(spec, ",") {
		op, col, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("bad aggregation %q (want op:col)", part)
		}
		e := expr.Col(col)
		switch op {
		case "sum":
			e = e.Sum()
		case "mean":
			e = e.Mean()
		case "min":
			e = e.Min()
		case "max":
			e = e.Max()
		case "first":
			e = e.First()
		case "last":
			e = e.Last()
		case "count":
			e = e.Count()
		case "list":
			e = e.List()
		default:
			return nil, fmt.Errorf("unknown aggregation %q", op)
		}
		exprs = append(exprs, e.Alias(op+"_"+col))
	}
	return exprs, nil
}

func render(f *frame.Frame) {
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader(f.Columns())
	for i := 0; i < f.Len(); i++ {
		row := make([]string, 0, f.Width())
		for _, v := range f.Row(i) {
			row = append(row, v.AsString())
		}
		w.Append(row)
	}
	w.Render()
	fmt.Printf("(%d rows)\n", f.Len())
}
