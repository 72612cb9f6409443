// Package loader reads tabular files into frames. Supported formats:
// CSV, JSON (array of objects), JSON Lines, Avro OCF and Parquet.
package loader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	goavro "github.com/linkedin/goavro/v2"
	parquet "github.com/parquet-go/parquet-go"

	"github.com/zundertj/lazyframe/frame"
)

// Load reads a file and returns a Frame, picking the format from the
// file extension.
func Load(filename string) (*frame.Frame, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return loadCSV(filename)
	case ".json":
		return loadJSON(filename)
	case ".jsonl":
		return loadJSONL(filename)
	case ".avro":
		return loadAvro(filename)
	case ".parquet":
		return loadParquet(filename)
	default:
		return nil, fmt.Errorf("unsupported file format %q (supported: .csv, .json, .jsonl, .avro, .parquet)", ext)
	}
}

// builder accumulates rows column-wise while preserving the order in
// which column names first appear.
type builder struct {
	names  []string
	values map[string][]frame.Value
	rows   int
}

func newBuilder() *builder {
	return &builder{values: make(map[string][]frame.Value)}
}

// declare registers a column up front so it keeps schema order even if
// its first rows are null.
func (b *builder) declare(name string) {
	if _, ok := b.values[name]; ok {
		return
	}
	col := make([]frame.Value, b.rows)
	for i := range col {
		col[i] = frame.Null()
	}
	b.names = append(b.names, name)
	b.values[name] = col
}

func (b *builder) set(name string, v frame.Value) {
	b.declare(name)
	b.values[name] = append(b.values[name], v)
}

func (b *builder) endRow() {
	b.rows++
	for _, name := range b.names {
		if len(b.values[name]) < b.rows {
			b.values[name] = append(b.values[name], frame.Null())
		}
	}
}

func (b *builder) frame() (*frame.Frame, error) {
	series := make([]frame.Series, len(b.names))
	for i, name := range b.names {
		series[i] = frame.NewSeries(name, b.values[name])
	}
	return frame.New(series...)
}

func loadCSV(filename string) (*frame.Frame, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header from %s: %w", filename, err)
	}

	b := newBuilder()
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
		b.declare(columns[i])
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}
		for i, c := range columns {
			if i < len(record) {
				b.set(c, parseValue(strings.TrimSpace(record[i])))
			} else {
				b.set(c, frame.Null())
			}
		}
		b.endRow()
	}
	return b.frame()
}

// parseValue infers the type of a CSV cell value.
func parseValue(s string) frame.Value {
	if s == "" || strings.EqualFold(s, "null") {
		return frame.Null()
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return frame.Int64(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return frame.Float64(v)
	}
	switch strings.ToLower(s) {
	case "true":
		return frame.Boolean(true)
	case "false":
		return frame.Boolean(false)
	}
	return frame.Str(s)
}

func loadJSON(filename string) (*frame.Frame, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filename, err)
	}
	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("cannot parse JSON from %s: %w (expected array of objects)", filename, err)
	}
	return frameFromRecords(records)
}

func loadJSONL(filename string) (*frame.Frame, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var records []map[string]interface{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}
	return frameFromRecords(records)
}

func frameFromRecords(records []map[string]interface{}) (*frame.Frame, error) {
	b := newBuilder()
	for _, rec := range records {
		// Objects carry no field order; sort keys so new columns appear
		// in a deterministic position.
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.set(k, goValue(rec[k]))
		}
		b.endRow()
	}
	return b.frame()
}

func goValue(v interface{}) frame.Value {
	switch val := v.(type) {
	case nil:
		return frame.Null()
	case float64:
		// JSON numbers are float64; keep integral values as ints
		if val == float64(int64(val)) {
			return frame.Int64(int64(val))
		}
		return frame.Float64(val)
	case float32:
		return frame.Float64(float64(val))
	case int:
		return frame.Int64(int64(val))
	case int32:
		return frame.Int64(int64(val))
	case int64:
		return frame.Int64(val)
	case string:
		return frame.Str(val)
	case bool:
		return frame.Boolean(val)
	case []byte:
		return frame.Str(string(val))
	default:
		b, _ := json.Marshal(val)
		return frame.Str(string(b))
	}
}

func loadAvro(filename string) (*frame.Frame, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF from %s: %w", filename, err)
	}

	// Extract column order from the writer schema.
	var schemaDef struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(ocfr.Codec().Schema()), &schemaDef); err != nil {
		return nil, fmt.Errorf("cannot parse Avro schema: %w", err)
	}

	b := newBuilder()
	columns := make([]string, len(schemaDef.Fields))
	for i, field := range schemaDef.Fields {
		columns[i] = field.Name
		b.declare(field.Name)
	}

	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("error reading Avro record: %w", err)
		}
		rec, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}
		for _, col := range columns {
			b.set(col, avroValue(rec[col]))
		}
		b.endRow()
	}
	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("error reading Avro file: %w", err)
	}
	return b.frame()
}

func avroValue(v interface{}) frame.Value {
	// Avro unions decode as {"type": value} - unwrap to the value
	if m, ok := v.(map[string]interface{}); ok {
		for _, inner := range m {
			return avroValue(inner)
		}
		return frame.Null()
	}
	return goValue(v)
}

func loadParquet(filename string) (*frame.Frame, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", filename, err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("cannot open parquet file %s: %w", filename, err)
	}

	b := newBuilder()
	columns := make([]string, 0, len(pf.Schema().Fields()))
	for _, field := range pf.Schema().Fields() {
		columns = append(columns, field.Name())
		b.declare(field.Name())
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()
	for {
		rec := make(map[string]interface{})
		if err := reader.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading parquet row: %w", err)
		}
		for _, col := range columns {
			b.set(col, goValue(rec[col]))
		}
		b.endRow()
	}
	return b.frame()
}
