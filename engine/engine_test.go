package engine

import (
	"errors"
	"testing"

	"github.com/zundertj/lazyframe/expr"
	"github.com/zundertj/lazyframe/frame"
)

func fruitsFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New(
		frame.Ints("A", 1, 2, 3, 4, 5),
		frame.Strings("fruits", "banana", "banana", "apple", "apple", "banana"),
		frame.Ints("B", 5, 4, 3, 2, 1),
		frame.Strings("cars", "beetle", "audi", "beetle", "beetle", "beetle"),
	)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func column(t *testing.T, f *frame.Frame, name string) []frame.Value {
	t.Helper()
	s, ok := f.Column(name)
	if !ok {
		t.Fatalf("column %q not found, have %v", name, f.Columns())
	}
	return s.Values
}

func wantInts(t *testing.T, got []frame.Value, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i, w := range want {
		if !got[i].Equal(frame.Int64(w)) {
			t.Errorf("row %d: expected %d, got %s", i, w, got[i].AsString())
		}
	}
}

func TestSelectIdentity(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("A"), expr.Col("fruits"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Width() != 2 || result.Len() != 5 {
		t.Fatalf("expected 2x5, got %dx%d", result.Width(), result.Len())
	}
	wantInts(t, column(t, result, "A"), 1, 2, 3, 4, 5)
}

func TestSelectArithmetic(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("A").Add(expr.Col("B")).Alias("total"))
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "total"), 6, 6, 6, 6, 6)
}

func TestSelectSumBroadcast(t *testing.T) {
	// A scalar reduction next to a full column broadcasts to its length.
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("A"), expr.Sum("B"))
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "B"), 15, 15, 15, 15, 15)
}

func TestSelectAllScalars(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Sum("A"), expr.Sum("B").Alias("b_sum"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", result.Len())
	}
	wantInts(t, column(t, result, "A"), 15)
	wantInts(t, column(t, result, "b_sum"), 15)
}

func TestSelectUnknownColumn(t *testing.T) {
	f := fruitsFrame(t)
	_, err := Select(f, expr.Col("nope"))
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestSelectLengthMismatch(t *testing.T) {
	f := fruitsFrame(t)
	_, err := Select(f, expr.Col("A"), expr.Arange(0, 3))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSelectDuplicateName(t *testing.T) {
	f := fruitsFrame(t)
	_, err := Select(f, expr.Col("A"), expr.Col("A").Add(expr.Lit(1)))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestSelectArange(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Arange(0, 5), expr.Col("fruits"))
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "arange"), 0, 1, 2, 3, 4)
}

func TestWildcardExclude(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.All().Exclude("cars"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Width() != 3 {
		t.Fatalf("expected 3 columns, got %v", result.Columns())
	}
	if result.HasColumn("cars") {
		t.Error("cars should have been excluded")
	}
}

func TestRegexReference(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("^.*s$").Str().Upper())
	if err != nil {
		t.Fatal(err)
	}
	cols := result.Columns()
	if len(cols) != 2 || cols[0] != "fruits" || cols[1] != "cars" {
		t.Fatalf("expected [fruits cars], got %v", cols)
	}
	if got := column(t, result, "fruits")[0]; !got.Equal(frame.Str("BANANA")) {
		t.Errorf("expected BANANA, got %s", got.AsString())
	}
}

func TestRegexZeroMatch(t *testing.T) {
	// A regex matching nothing expands to zero columns, not an error.
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("^z.*$"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Width() != 0 {
		t.Fatalf("expected 0 columns, got %v", result.Columns())
	}
}

func TestColsUnknownName(t *testing.T) {
	f := fruitsFrame(t)
	_, err := Select(f, expr.Cols("A", "nope"))
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestColsEmpty(t *testing.T) {
	f := fruitsFrame(t)
	_, err := Select(f, expr.Cols())
	if !errors.Is(err, ErrInvalidExpr) {
		t.Fatalf("expected ErrInvalidExpr, got %v", err)
	}
}

func TestColsEmptyAsPredicate(t *testing.T) {
	f := fruitsFrame(t)
	_, err := Filter(f, expr.Cols())
	if !errors.Is(err, ErrInvalidExpr) {
		t.Fatalf("expected ErrInvalidExpr, got %v", err)
	}
}

func TestSuffixNaming(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Cols("A", "B").Sum().Suffix("_sum"))
	if err != nil {
		t.Fatal(err)
	}
	cols := result.Columns()
	if len(cols) != 2 || cols[0] != "A_sum" || cols[1] != "B_sum" {
		t.Fatalf("expected [A_sum B_sum], got %v", cols)
	}
}

func TestKeepName(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("A").Add(expr.Lit(10)).Alias("renamed").KeepName())
	if err != nil {
		t.Fatal(err)
	}
	if !result.HasColumn("A") {
		t.Fatalf("expected column A, got %v", result.Columns())
	}
}

func TestWithColumnsReplaceAndAppend(t *testing.T) {
	f := fruitsFrame(t)
	result, err := WithColumns(f,
		expr.Col("A").Mul(expr.Lit(10)),             // replaces A
		expr.Col("A").Add(expr.Col("B")).Alias("t"), // appends t
	)
	if err != nil {
		t.Fatal(err)
	}
	if result.Width() != 5 {
		t.Fatalf("expected 5 columns, got %v", result.Columns())
	}
	wantInts(t, column(t, result, "A"), 10, 20, 30, 40, 50)
	wantInts(t, column(t, result, "t"), 6, 6, 6, 6, 6)
}

func TestFilterFrame(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Filter(f, expr.Col("fruits").Eq(expr.Lit("banana")))
	if err != nil {
		t.Fatal(err)
	}
	if result.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", result.Len())
	}
	wantInts(t, column(t, result, "A"), 1, 2, 5)
}

func TestFilterNullPredicateDropsRow(t *testing.T) {
	f, err := frame.New(frame.NewSeries("x", []frame.Value{
		frame.Int64(1), frame.Null(), frame.Int64(3),
	}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := Filter(f, expr.Col("x").Gt(expr.Lit(0)))
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "x"), 1, 3)
}

func TestExprFilterNarrowsDomain(t *testing.T) {
	// filter inside an expression shortens this expression only.
	f := fruitsFrame(t)
	result, err := Select(f,
		expr.Col("fruits"),
		expr.Col("B").Filter(expr.Col("fruits").Eq(expr.Lit("banana"))).Sum().Alias("banana_b"),
	)
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "banana_b"), 10, 10, 10, 10, 10)
}

func TestConditional(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f,
		expr.When(expr.Col("fruits").Eq(expr.Lit("banana"))).
			Then(expr.Col("B")).
			Otherwise(expr.Lit(-1)).
			Alias("pick"),
	)
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "pick"), 5, 4, -1, -1, 1)
}

func TestConditionalNullPredicateTakesOtherwise(t *testing.T) {
	f, err := frame.New(frame.NewSeries("x", []frame.Value{
		frame.Int64(1), frame.Null(),
	}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := Select(f,
		expr.When(expr.Col("x").Gt(expr.Lit(0))).
			Then(expr.Lit(1)).
			Otherwise(expr.Lit(0)).
			Alias("flag"),
	)
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "flag"), 1, 0)
}

func TestGroupBySum(t *testing.T) {
	f := fruitsFrame(t)
	result, err := GroupBy(f, "fruits").Agg(expr.Sum("B"))
	if err != nil {
		t.Fatal(err)
	}
	// First occurrence order: banana before apple.
	fruits := column(t, result, "fruits")
	if !fruits[0].Equal(frame.Str("banana")) || !fruits[1].Equal(frame.Str("apple")) {
		t.Fatalf("expected [banana apple], got [%s %s]", fruits[0].AsString(), fruits[1].AsString())
	}
	wantInts(t, column(t, result, "B"), 10, 5)
}

func TestGroupByMultipleKeys(t *testing.T) {
	f := fruitsFrame(t)
	result, err := GroupBy(f, "fruits", "cars").Agg(expr.Count("A").Alias("n"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Len() != 3 {
		t.Fatalf("expected 3 groups, got %d", result.Len())
	}
	wantInts(t, column(t, result, "n"), 2, 1, 2)
}

func TestGroupBySortedOrder(t *testing.T) {
	f := fruitsFrame(t)
	sorted, err := f.SortBy("fruits")
	if err != nil {
		t.Fatal(err)
	}
	result, err := GroupBy(sorted, "fruits").Agg(expr.Sum("B"))
	if err != nil {
		t.Fatal(err)
	}
	fruits := column(t, result, "fruits")
	if !fruits[0].Equal(frame.Str("apple")) {
		t.Errorf("expected apple first after sort, got %s", fruits[0].AsString())
	}
}

func TestGroupBySequenceBecomesList(t *testing.T) {
	f := fruitsFrame(t)
	result, err := GroupBy(f, "fruits").Agg(expr.Col("B").Alias("bs"))
	if err != nil {
		t.Fatal(err)
	}
	want := frame.ListOf([]frame.Value{frame.Int64(5), frame.Int64(4), frame.Int64(1)})
	if got := column(t, result, "bs")[0]; !got.Equal(want) {
		t.Errorf("expected %s, got %s", want.AsString(), got.AsString())
	}
}

func TestGroupByWildcardExcludesKeys(t *testing.T) {
	f := fruitsFrame(t)
	result, err := GroupBy(f, "fruits").Agg(expr.All().Count())
	if err != nil {
		t.Fatal(err)
	}
	cols := result.Columns()
	if len(cols) != 4 || cols[0] != "fruits" {
		t.Fatalf("expected [fruits A B cars], got %v", cols)
	}
}

func TestGroupByReincludedKeyGetsOpSuffix(t *testing.T) {
	f := fruitsFrame(t)
	result, err := GroupBy(f, "fruits").Agg(expr.First("fruits"), expr.Sum("B"))
	if err != nil {
		t.Fatal(err)
	}
	cols := result.Columns()
	if len(cols) != 3 || cols[1] != "fruits_first" {
		t.Fatalf("expected [fruits fruits_first B], got %v", cols)
	}
	first := column(t, result, "fruits_first")
	if !first[0].Equal(frame.Str("banana")) || !first[1].Equal(frame.Str("apple")) {
		t.Errorf("expected [banana apple], got [%s %s]", first[0].AsString(), first[1].AsString())
	}
}

func TestGroupByKeyNameCollision(t *testing.T) {
	f := fruitsFrame(t)
	_, err := GroupBy(f, "fruits").Agg(expr.Sum("B").Alias("fruits"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestGroupByNullKeysFormOwnGroup(t *testing.T) {
	f, err := frame.New(
		frame.NewSeries("k", []frame.Value{
			frame.Str("a"), frame.Null(), frame.Str("a"), frame.Null(),
		}),
		frame.Ints("v", 1, 2, 3, 4),
	)
	if err != nil {
		t.Fatal(err)
	}
	result, err := GroupBy(f, "k").Agg(expr.Sum("v"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Len() != 2 {
		t.Fatalf("expected 2 groups, got %d", result.Len())
	}
	wantInts(t, column(t, result, "v"), 4, 6)
}

func TestGroupByKeyTypesStayDistinct(t *testing.T) {
	// The integer 1 and the string "1" must not collapse into one group.
	f, err := frame.New(
		frame.NewSeries("k", []frame.Value{frame.Int64(1), frame.Str("1")}),
		frame.Ints("v", 10, 20),
	)
	if err != nil {
		t.Fatal(err)
	}
	result, err := GroupBy(f, "k").Agg(expr.Sum("v"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Len() != 2 {
		t.Fatalf("expected 2 groups, got %d", result.Len())
	}
}

func TestWindowBroadcast(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f,
		expr.Col("fruits"),
		expr.Sum("B").Over("fruits").Alias("b_total"),
	)
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "b_total"), 10, 10, 5, 5, 10)
}

func TestWindowNestedList(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("B").Over("fruits").Alias("bs"))
	if err != nil {
		t.Fatal(err)
	}
	want := frame.ListOf([]frame.Value{frame.Int64(5), frame.Int64(4), frame.Int64(1)})
	got := column(t, result, "bs")
	if len(got) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(got))
	}
	if !got[0].Equal(want) || !got[4].Equal(want) {
		t.Errorf("expected banana rows to hold %s, got %s and %s",
			want.AsString(), got[0].AsString(), got[4].AsString())
	}
}

func TestWindowFlattenRestoresPositions(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f,
		expr.Col("B").Reverse().Over("fruits").Flatten().Alias("rev"),
	)
	if err != nil {
		t.Fatal(err)
	}
	// banana rows (0,1,4) hold 5,4,1 reversed to 1,4,5;
	// apple rows (2,3) hold 3,2 reversed to 2,3.
	wantInts(t, column(t, result, "rev"), 1, 4, 2, 3, 5)
}

func TestWindowInsideAggregationRejected(t *testing.T) {
	f := fruitsFrame(t)
	_, err := GroupBy(f, "fruits").Agg(expr.Sum("B").Over("cars"))
	if !errors.Is(err, ErrInvalidExpr) {
		t.Fatalf("expected ErrInvalidExpr, got %v", err)
	}
}

func TestFoldLeftToRight(t *testing.T) {
	f := fruitsFrame(t)
	concat := func(acc, v frame.Value) (frame.Value, error) {
		return frame.Str(acc.AsString() + v.AsString()), nil
	}
	result, err := Select(f,
		expr.Fold(expr.Lit(""), concat, expr.Col("fruits"), expr.Col("cars")).Alias("joined"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := column(t, result, "joined")[0]; !got.Equal(frame.Str("bananabeetle")) {
		t.Errorf("expected bananabeetle, got %s", got.AsString())
	}
}

func TestFoldArith(t *testing.T) {
	f := fruitsFrame(t)
	add := func(acc, v frame.Value) (frame.Value, error) {
		return Arith("+", acc, v)
	}
	result, err := Select(f,
		expr.Fold(expr.Lit(0), add, expr.Col("A"), expr.Col("B")).Alias("total"),
	)
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "total"), 6, 6, 6, 6, 6)
}

func TestFoldNoExpressions(t *testing.T) {
	f := fruitsFrame(t)
	add := func(acc, v frame.Value) (frame.Value, error) {
		return Arith("+", acc, v)
	}
	_, err := Select(f, expr.Fold(expr.Lit(0), add))
	if !errors.Is(err, ErrInvalidExpr) {
		t.Fatalf("expected ErrInvalidExpr, got %v", err)
	}
}

func TestConcatStr(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.ConcatStr(" ", expr.Col("fruits"), expr.Col("cars")))
	if err != nil {
		t.Fatal(err)
	}
	if got := column(t, result, "str_concat")[0]; !got.Equal(frame.Str("banana beetle")) {
		t.Errorf("expected 'banana beetle', got %s", got.AsString())
	}
}

func TestConcatStrNullPropagates(t *testing.T) {
	f, err := frame.New(
		frame.NewSeries("a", []frame.Value{frame.Str("x"), frame.Null()}),
		frame.Strings("b", "1", "2"),
	)
	if err != nil {
		t.Fatal(err)
	}
	result, err := Select(f, expr.ConcatStr("-", expr.Col("a"), expr.Col("b")))
	if err != nil {
		t.Fatal(err)
	}
	got := column(t, result, "str_concat")
	if !got[0].Equal(frame.Str("x-1")) {
		t.Errorf("expected x-1, got %s", got[0].AsString())
	}
	if !got[1].IsNull() {
		t.Errorf("expected null for row with null input, got %s", got[1].AsString())
	}
}

func TestShift(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("A").Shift(1).Alias("prev"))
	if err != nil {
		t.Fatal(err)
	}
	got := column(t, result, "prev")
	if !got[0].IsNull() {
		t.Errorf("expected null in first row, got %s", got[0].AsString())
	}
	wantInts(t, got[1:], 1, 2, 3, 4)
}

func TestShiftAndFill(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("A").ShiftAndFill(1, expr.Lit(0)).Alias("prev"))
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "prev"), 0, 1, 2, 3, 4)
}

func TestFillNull(t *testing.T) {
	f, err := frame.New(frame.NewSeries("x", []frame.Value{
		frame.Int64(1), frame.Null(), frame.Int64(3),
	}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := Select(f, expr.Col("x").FillNull(expr.Lit(0)))
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "x"), 1, 0, 3)
}

func TestStrContains(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("fruits").Str().Contains("an").Alias("has_an"))
	if err != nil {
		t.Fatal(err)
	}
	got := column(t, result, "has_an")
	want := []bool{true, true, false, false, true}
	for i, w := range want {
		if !got[i].Equal(frame.Boolean(w)) {
			t.Errorf("row %d: expected %v, got %s", i, w, got[i].AsString())
		}
	}
}

func TestStrLen(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("fruits").Str().Len().Alias("n"))
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "n"), 6, 6, 5, 5, 6)
}

func TestDtYearMonthDay(t *testing.T) {
	f, err := frame.New(frame.Strings("d", "2024-01-15", "2023-12-31"))
	if err != nil {
		t.Fatal(err)
	}
	result, err := Select(f,
		expr.Col("d").Dt().Year().Alias("y"),
		expr.Col("d").Dt().Month().Alias("m"),
		expr.Col("d").Dt().Day().Alias("dd"),
	)
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "y"), 2024, 2023)
	wantInts(t, column(t, result, "m"), 1, 12)
	wantInts(t, column(t, result, "dd"), 15, 31)
}

func TestDtErrorOnUnparseable(t *testing.T) {
	f, err := frame.New(frame.Strings("d", "notadate"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Select(f, expr.Col("d").Dt().Year())
	if !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
}

func TestAggregateAndExplodeRoundTrip(t *testing.T) {
	f := fruitsFrame(t)
	grouped, err := GroupBy(f, "fruits").Agg(expr.Col("B").Alias("bs"))
	if err != nil {
		t.Fatal(err)
	}
	result, err := Explode(grouped, "bs")
	if err != nil {
		t.Fatal(err)
	}
	if result.Len() != f.Len() {
		t.Fatalf("expected %d rows after explode, got %d", f.Len(), result.Len())
	}
	// Group order is banana then apple; values keep row order inside groups.
	wantInts(t, column(t, result, "bs"), 5, 4, 1, 3, 2)
}

func TestExplodeEmptyListYieldsNullRow(t *testing.T) {
	f, err := frame.New(
		frame.NewSeries("xs", []frame.Value{
			frame.ListOf([]frame.Value{frame.Int64(1), frame.Int64(2)}),
			frame.ListOf(nil),
		}),
		frame.Strings("tag", "a", "b"),
	)
	if err != nil {
		t.Fatal(err)
	}
	result, err := Explode(f, "xs")
	if err != nil {
		t.Fatal(err)
	}
	if result.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", result.Len())
	}
	if got := column(t, result, "xs")[2]; !got.IsNull() {
		t.Errorf("expected null for empty list, got %s", got.AsString())
	}
}

func TestExplodeDisagreeingCounts(t *testing.T) {
	f, err := frame.New(
		frame.NewSeries("a", []frame.Value{
			frame.ListOf([]frame.Value{frame.Int64(1), frame.Int64(2)}),
		}),
		frame.NewSeries("b", []frame.Value{
			frame.ListOf([]frame.Value{frame.Int64(1)}),
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Explode(f, "a", "b")
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestDivisionByZeroIsNull(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("A").Div(expr.Lit(0)).Alias("q"))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range column(t, result, "q") {
		if !v.IsNull() {
			t.Errorf("row %d: expected null, got %s", i, v.AsString())
		}
	}
}

func TestNullArithmeticPropagates(t *testing.T) {
	f, err := frame.New(frame.NewSeries("x", []frame.Value{frame.Int64(10), frame.Null()}))
	if err != nil {
		t.Fatal(err)
	}
	result, err := Select(f, expr.Col("x").Mul(expr.Lit(2)))
	if err != nil {
		t.Fatal(err)
	}
	got := column(t, result, "x")
	wantInts(t, got[:1], 20)
	if !got[1].IsNull() {
		t.Errorf("expected null from null * 2, got %s", got[1].AsString())
	}
}

func TestLogicalRequiresBooleans(t *testing.T) {
	f := fruitsFrame(t)
	_, err := Select(f, expr.Col("A").And(expr.Col("B")))
	if !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
}

func TestArithmeticTypeError(t *testing.T) {
	f := fruitsFrame(t)
	_, err := Select(f, expr.Col("A").Mul(expr.Col("fruits")))
	if !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
}

func TestPartitionCoversEveryRowOnce(t *testing.T) {
	f := fruitsFrame(t)
	part, err := partition(f, []string{"fruits"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[int]int)
	for _, g := range part.Groups {
		for _, row := range g.Rows {
			seen[row]++
		}
	}
	if len(seen) != f.Len() {
		t.Fatalf("expected %d rows covered, got %d", f.Len(), len(seen))
	}
	for row, n := range seen {
		if n != 1 {
			t.Errorf("row %d appears %d times", row, n)
		}
	}
}

func TestAliasIdempotent(t *testing.T) {
	f := fruitsFrame(t)
	once, err := Select(f, expr.Col("A").Alias("x"))
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Select(f, expr.Col("A").Alias("x").Alias("x"))
	if err != nil {
		t.Fatal(err)
	}
	if once.Columns()[0] != twice.Columns()[0] {
		t.Errorf("expected identical naming, got %q and %q", once.Columns()[0], twice.Columns()[0])
	}
}

func TestReverse(t *testing.T) {
	f := fruitsFrame(t)
	result, err := Select(f, expr.Col("A").Reverse().Alias("rev"))
	if err != nil {
		t.Fatal(err)
	}
	wantInts(t, column(t, result, "rev"), 5, 4, 3, 2, 1)
}
