package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oarkflow/tabular/pkg/mapping"
)

const sampleConfig = `
database:
  driver: postgres
  host: localhost
  port: 5432
  username: app
  password: secret
  database: billing
import:
  file: invoices.xlsx
  sheet: February
  table: invoices
  mode: update
  chunk_size: 250
  log_file: import_errors.log
  mappings:
    - target: id
      source: ref
      key: true
    - target: amount
      source: total
      decimal_comma: true
    - target: issued
      source: billed_on
      format: DD/MM/YYYY
    - target: origin
      constant: upload
    - target: notes
      skip: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Port != 5432 {
		t.Fatalf("unexpected database block: %+v", cfg.Database)
	}
	if cfg.Import.Sheet != "February" || cfg.Import.ChunkSize != 250 {
		t.Fatalf("unexpected import block: %+v", cfg.Import)
	}
	if cfg.Import.RunMode() != mapping.ModeUpdate {
		t.Fatalf("mode = %s", cfg.Import.RunMode())
	}

	rules := cfg.Import.Rules()
	if len(rules) != 5 {
		t.Fatalf("expected 5 rules, got %d", len(rules))
	}
	if rules[0].Kind != mapping.FromField || !rules[0].Key {
		t.Fatalf("unexpected key rule: %+v", rules[0])
	}
	if !rules[1].DecimalComma {
		t.Fatalf("decimal_comma lost: %+v", rules[1])
	}
	if rules[2].Format != "DD/MM/YYYY" {
		t.Fatalf("format lost: %+v", rules[2])
	}
	if rules[3].Kind != mapping.Constant || rules[3].Const != "upload" {
		t.Fatalf("unexpected constant rule: %+v", rules[3])
	}
	if rules[4].Kind != mapping.Skip {
		t.Fatalf("unexpected skip rule: %+v", rules[4])
	}
}

func TestRunModeDefaultsToInsert(t *testing.T) {
	i := Import{}
	if i.RunMode() != mapping.ModeInsert {
		t.Fatalf("default mode = %s", i.RunMode())
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	cases := map[string]Config{
		"missing driver": {
			Import: Import{File: "a.csv", Table: "t", Mappings: []FieldMapping{{Target: "x", Source: "y"}}},
		},
		"missing file": {
			Database: Database{Driver: "postgres"},
			Import:   Import{Table: "t", Mappings: []FieldMapping{{Target: "x", Source: "y"}}},
		},
		"missing table": {
			Database: Database{Driver: "postgres"},
			Import:   Import{File: "a.csv", Mappings: []FieldMapping{{Target: "x", Source: "y"}}},
		},
		"no mappings": {
			Database: Database{Driver: "postgres"},
			Import:   Import{File: "a.csv", Table: "t"},
		},
		"bad mode": {
			Database: Database{Driver: "postgres"},
			Import:   Import{File: "a.csv", Table: "t", Mode: "upsert", Mappings: []FieldMapping{{Target: "x", Source: "y"}}},
		},
		"mapping without source": {
			Database: Database{Driver: "postgres"},
			Import:   Import{File: "a.csv", Table: "t", Mappings: []FieldMapping{{Target: "x"}}},
		},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
