package loader

import (
	"os"
	"path/filepath"
	"testing"

	goavro "github.com/linkedin/goavro/v2"
	parquet "github.com/parquet-go/parquet-go"

	"github.com/zundertj/lazyframe/frame"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "users.csv", "name,age,score\nAlice,30,1.5\nBob,,2\n")
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 || f.Width() != 3 {
		t.Fatalf("expected 2x3, got %dx%d", f.Width(), f.Len())
	}

	age, _ := f.Column("age")
	if !age.Values[0].Equal(frame.Int64(30)) {
		t.Errorf("expected int 30, got %s", age.Values[0].AsString())
	}
	if !age.Values[1].IsNull() {
		t.Errorf("expected null for empty cell, got %s", age.Values[1].AsString())
	}

	score, _ := f.Column("score")
	if !score.Values[0].Equal(frame.Float64(1.5)) {
		t.Errorf("expected float 1.5, got %s", score.Values[0].AsString())
	}
}

func TestLoadCSVBooleans(t *testing.T) {
	path := writeFile(t, "flags.csv", "active\ntrue\nFALSE\n")
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	active, _ := f.Column("active")
	if !active.Values[0].Equal(frame.Boolean(true)) || !active.Values[1].Equal(frame.Boolean(false)) {
		t.Errorf("expected [true false], got [%s %s]",
			active.Values[0].AsString(), active.Values[1].AsString())
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "data.json", `[{"a": 1, "b": "x"}, {"a": 2.5, "c": true}]`)
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 || f.Width() != 3 {
		t.Fatalf("expected 2x3, got %dx%d", f.Width(), f.Len())
	}
	a, _ := f.Column("a")
	if !a.Values[0].Equal(frame.Int64(1)) {
		t.Errorf("expected integral JSON number to load as int, got %s", a.Values[0].AsString())
	}
	if !a.Values[1].Equal(frame.Float64(2.5)) {
		t.Errorf("expected 2.5, got %s", a.Values[1].AsString())
	}
	b, _ := f.Column("b")
	if !b.Values[1].IsNull() {
		t.Errorf("expected null for missing field, got %s", b.Values[1].AsString())
	}
}

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "data.jsonl", "{\"x\": 1}\n\n{\"x\": 2}\n")
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", f.Len())
	}
}

func TestLoadJSONLBadLine(t *testing.T) {
	path := writeFile(t, "bad.jsonl", "{\"x\": 1}\nnot json\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON line")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "data.xml", "<x/>")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestLoadParquet(t *testing.T) {
	type row struct {
		Name string `parquet:"name"`
		Age  int64  `parquet:"age"`
	}
	path := filepath.Join(t.TempDir(), "users.parquet")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := parquet.NewWriter(out)
	for _, r := range []row{{"Alice", 30}, {"Bob", 25}} {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 || f.Width() != 2 {
		t.Fatalf("expected 2x2, got %dx%d", f.Width(), f.Len())
	}
	age, _ := f.Column("age")
	if !age.Values[0].Equal(frame.Int64(30)) {
		t.Errorf("expected 30, got %s", age.Values[0].AsString())
	}
}

func TestLoadAvro(t *testing.T) {
	const schema = `{
		"type": "record",
		"name": "User",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "age", "type": ["null", "long"]}
		]
	}`
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "users.avro")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{W: out, Codec: codec})
	if err != nil {
		t.Fatal(err)
	}
	err = w.Append([]interface{}{
		map[string]interface{}{"name": "Alice", "age": map[string]interface{}{"long": int64(30)}},
		map[string]interface{}{"name": "Bob", "age": nil},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", f.Len())
	}
	cols := f.Columns()
	if len(cols) != 2 || cols[0] != "name" || cols[1] != "age" {
		t.Fatalf("expected schema order [name age], got %v", cols)
	}
	age, _ := f.Column("age")
	if !age.Values[0].Equal(frame.Int64(30)) {
		t.Errorf("expected union to unwrap to 30, got %s", age.Values[0].AsString())
	}
	if !age.Values[1].IsNull() {
		t.Errorf("expected null, got %s", age.Values[1].AsString())
	}
}
