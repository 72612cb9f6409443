package main

import (
	"log"
	"os"

	parquet "github.com/parquet-go/parquet-go"
)

type Row struct {
	A        int64  `parquet:"A"`
	Fruits   string `parquet:"fruits"`
	B        int64  `parquet:"B"`
	Cars     string `parquet:"cars"`
	Optional *int64 `parquet:"optional,optional"`
}

func main() {
	f, err := os.Create("testdata/fruits.parquet")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	w := parquet.NewWriter(f)

	opt := func(v int64) *int64 { return &v }
	rows := []Row{
		{1, "banana", 5, "beetle", opt(28)},
		{2, "banana", 4, "audi", opt(300)},
		{3, "apple", 3, "beetle", nil},
		{4, "apple", 2, "beetle", opt(2)},
		{5, "banana", 1, "beetle", opt(-30)},
	}

	for _, r := range rows {
		if err := w.Write(r); err != nil {
			log.Fatal(err)
		}
	}

	if err := w.Close(); err != nil {
		log.Fatal(err)
	}
}
