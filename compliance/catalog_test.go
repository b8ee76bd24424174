package compliance

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadCatalog verifies YAML catalogs parse with active defaulting to
// true.
func TestLoadCatalog(t *testing.T) {
	content := `
rules:
  - code: CERT_CURRENT
    name: Certificate of capacity is current
    severity: critical
    recommended_action: Obtain a current certificate
    references:
      - source: Workers Compensation Act
        section: s. 80
  - code: RETIRED_RULE
    name: A retired rule
    severity: low
    active: false
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	rules, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(rules))
	}

	cert := rules[0]
	if cert.Code != "CERT_CURRENT" || cert.Severity != SeverityCritical {
		t.Errorf("unexpected first rule %+v", cert)
	}
	if !cert.Active {
		t.Error("active should default to true")
	}
	if len(cert.DocumentReferences) != 1 || cert.DocumentReferences[0].Source != "Workers Compensation Act" {
		t.Errorf("references not parsed, got %+v", cert.DocumentReferences)
	}

	if rules[1].Active {
		t.Error("explicit active: false should be honoured")
	}
}

// TestLoadCatalogRejectsInvalid verifies invalid catalogs fail loading.
func TestLoadCatalogRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"bad severity", "rules:\n  - code: A\n    name: Rule A\n    severity: urgent\n"},
		{"duplicate codes", "rules:\n  - code: A\n    name: Rule A\n    severity: low\n  - code: A\n    name: Rule A again\n    severity: low\n"},
		{"empty catalog", "rules: []\n"},
		{"not yaml", "{{{{\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("failed to write catalog: %v", err)
			}
			if _, err := LoadCatalog(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// TestLoadCatalogMissingFile verifies a missing file surfaces a read error.
func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// TestSeedCatalog verifies seeding inserts new rules and updates existing
// ones.
func TestSeedCatalog(t *testing.T) {
	store := NewInMemoryRuleStore()

	if err := SeedCatalog(store, DefaultCatalog()); err != nil {
		t.Fatalf("SeedCatalog() failed: %v", err)
	}
	active, err := store.ListActive()
	if err != nil {
		t.Fatalf("ListActive() failed: %v", err)
	}
	if len(active) != 7 {
		t.Fatalf("active rules = %d, want 7", len(active))
	}

	// Reseeding with a changed rule updates in place.
	changed := DefaultCatalog()
	changed[0].Name = "Certificate of capacity is current (revised)"
	if err := SeedCatalog(store, changed); err != nil {
		t.Fatalf("reseed failed: %v", err)
	}

	rule, err := store.Get(RuleCertCurrent)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if rule.Name != "Certificate of capacity is current (revised)" {
		t.Errorf("Name = %q, want the revised name", rule.Name)
	}

	active, _ = store.ListActive()
	if len(active) != 7 {
		t.Errorf("active rules after reseed = %d, want 7", len(active))
	}
}

// TestDefaultCatalogShape verifies the shipped catalog covers every
// registered evaluator exactly once.
func TestDefaultCatalogShape(t *testing.T) {
	catalog := DefaultCatalog()
	if len(catalog) != len(evaluators) {
		t.Fatalf("catalog has %d rules, evaluator registry has %d", len(catalog), len(evaluators))
	}
	for _, rule := range catalog {
		if _, ok := evaluators[rule.Code]; !ok {
			t.Errorf("catalog rule %s has no registered evaluator", rule.Code)
		}
		if rule.RecommendedAction == "" {
			t.Errorf("catalog rule %s has no recommended action", rule.Code)
		}
	}
}
