package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("expected bundled markets")
	}
	m, ok := c.Lookup("reliance")
	if !ok || m.Name != "Reliance Industries" {
		t.Errorf("expected RELIANCE lookup to succeed, got %+v %v", m, ok)
	}
	if _, ok := c.Lookup("^NSEI"); !ok {
		t.Error("expected index symbol in catalog")
	}
}

func TestParse(t *testing.T) {
	in := "symbol,name\n tcs , Tata Consultancy\nINFY\nTCS,Duplicate\n,\n"
	c, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := c.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 markets, got %d: %+v", len(all), all)
	}
	if all[0].Symbol != "TCS" || all[0].Name != "Tata Consultancy" {
		t.Errorf("unexpected first market %+v", all[0])
	}
	if all[1].Name != "INFY" {
		t.Errorf("expected missing name to default to symbol, got %q", all[1].Name)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	c, err := Parse(strings.NewReader("TCS,Tata\n"))
	if err != nil {
		t.Fatal(err)
	}
	all := c.All()
	all[0].Symbol = "CHANGED"
	if c.All()[0].Symbol != "TCS" {
		t.Error("catalog was mutated through All()")
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse(strings.NewReader("symbol,name\n")); err == nil {
		t.Error("expected error for empty catalog")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markets.csv")
	if err := os.WriteFile(path, []byte("AAPL,Apple\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 market, got %d", c.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
