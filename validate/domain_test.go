package validate

import (
	"testing"

	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/internal/frame"
)

func TestParseDomainSimple(t *testing.T) {
	e, err := ParseDomain("STATUSCD==1")
	if err != nil {
		t.Fatalf("ParseDomain error: %v", err)
	}
	cmp, ok := e.(Comparison)
	if !ok {
		t.Fatalf("expected Comparison, got %T", e)
	}
	if cmp.Column != "STATUSCD" || cmp.Op != "==" || cmp.Value.Num != 1 {
		t.Errorf("got %+v", cmp)
	}
}

func TestParseDomainAndOrBetweenIn(t *testing.T) {
	e, err := ParseDomain("DIA BETWEEN 5.0 AND 9.9 AND (SPCD IN (131, 110) OR STATUSCD == 1)")
	if err != nil {
		t.Fatalf("ParseDomain error: %v", err)
	}
	and, ok := e.(And)
	if !ok {
		t.Fatalf("expected And at root, got %T", e)
	}
	if _, ok := and.Left.(BetweenExpr); !ok {
		t.Errorf("expected BetweenExpr on left, got %T", and.Left)
	}
	if _, ok := and.Right.(Or); !ok {
		t.Errorf("expected Or on right, got %T", and.Right)
	}
}

func TestParseDomainForbidden(t *testing.T) {
	cases := []string{
		"STATUSCD==1; DROP TABLE TREE",
		"1=1 -- comment",
		"SELECT * FROM TREE",
		"STATUSCD==1 /* comment */",
	}
	for _, c := range cases {
		_, err := ParseDomain(c)
		if err == nil {
			t.Errorf("ParseDomain(%q) expected error, got nil", c)
			continue
		}
		if !errs.Is(err, errs.InvalidDomain) {
			t.Errorf("ParseDomain(%q) expected InvalidDomain, got %v", c, err)
		}
	}
}

func TestCompileColumnar(t *testing.T) {
	e, err := ParseDomain("STATUSCD==1 AND DIA>=5.0")
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	pred := CompileColumnar(e)
	fr := frame.New([]string{"STATUSCD", "DIA"}, map[string]frame.Column{
		"STATUSCD": frame.NewInt64Column([]int64{1, 1, 2}),
		"DIA":      frame.NewFloat64Column([]float64{6.0, 3.0, 8.0}),
	})
	want := []bool{true, false, false}
	for i, w := range want {
		if got := pred(fr, i); got != w {
			t.Errorf("row %d: got %v, want %v", i, got, w)
		}
	}
}

func TestSQLFragmentBindsParams(t *testing.T) {
	e, err := ParseDomain("SPCD IN (131, 110)")
	if err != nil {
		t.Fatalf("ParseDomain: %v", err)
	}
	sqlStr, args := SQLFragment(e)
	if sqlStr != "SPCD IN (?,?)" {
		t.Errorf("got sql %q", sqlStr)
	}
	if len(args) != 2 || args[0] != 131.0 || args[1] != 110.0 {
		t.Errorf("got args %v", args)
	}
}

func TestIdentifierAndPath(t *testing.T) {
	if err := Identifier("STATUSCD"); err != nil {
		t.Errorf("Identifier(STATUSCD) error: %v", err)
	}
	if err := Identifier("1BAD"); err == nil {
		t.Errorf("Identifier(1BAD) expected error")
	}
	if err := SQLPath("/data/FIADB.duckdb"); err != nil {
		t.Errorf("SQLPath error: %v", err)
	}
	if err := SQLPath("/data/FIADB.duckdb'; DROP TABLE x; --"); err == nil {
		t.Errorf("SQLPath expected error")
	}
}
