package tools

import (
	"testing"
)

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	want := []string{"cutadapt", "fastqc", "multiqc", "star", "trim_galore"}
	got := c.Names()
	if len(got) != len(want) {
		t.Fatalf("unexpected tool names: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tool names mismatch: got %v want %v", got, want)
		}
	}
}

func TestCatalog_LookupAliases(t *testing.T) {
	c, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	for _, alias := range []string{"trim_galore", "trim-galore", "Trim Galore", "TRIM_GALORE"} {
		def, err := c.Lookup(alias)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", alias, err)
		}
		if def.Binary != "trim_galore" {
			t.Fatalf("Lookup(%q) resolved wrong tool: %s", alias, def.Binary)
		}
	}

	if _, err := c.Lookup("samtools"); err == nil {
		t.Fatalf("expected unknown tool error")
	}
}

func TestCatalog_DefinitionsComplete(t *testing.T) {
	c, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	for _, name := range c.Names() {
		def, err := c.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if def.Binary == "" {
			t.Fatalf("%s: missing binary", name)
		}
		if len(def.Install) == 0 {
			t.Fatalf("%s: no install strategies", name)
		}
		if len(def.Suggestions) == 0 {
			t.Fatalf("%s: no manual suggestions", name)
		}
	}
}

func TestAdaptersMatchCatalog(t *testing.T) {
	c, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	adapters := Adapters()
	for _, name := range c.Names() {
		if _, ok := adapters[name]; !ok {
			t.Fatalf("catalog tool %s has no adapter", name)
		}
	}
	if len(adapters) != len(c.Names()) {
		t.Fatalf("adapter/catalog count mismatch: %d vs %d", len(adapters), len(c.Names()))
	}
}
