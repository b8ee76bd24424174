package compliance

import (
	"strings"
	"testing"
	"time"
)

// TestCreateComplianceActionOpensItem verifies a breach opens a typed work
// item with the expected due date and notes.
func TestCreateComplianceActionOpensItem(t *testing.T) {
	actions := NewInMemoryActionStore()
	engine := NewEngine(NewInMemoryCaseStore(), NewInMemoryCertificateStore(),
		NewInMemoryRuleStore(), NewInMemoryCheckStore(), actions,
		WithClock(func() time.Time { return engineNow }))

	id := engine.createComplianceAction("case-001", RuleCertCurrent,
		"Certificate of capacity expired on 2025-05-26 (7 days ago)",
		"Obtain a current certificate of capacity from the treating practitioner")
	if id == "" {
		t.Fatal("expected an action id")
	}

	open := actions.OpenForCase("case-001")
	if len(open) != 1 {
		t.Fatalf("open actions = %d, want 1", len(open))
	}

	action := open[0]
	if action.ActionType != "certificate_renewal" {
		t.Errorf("action type = %s, want certificate_renewal", action.ActionType)
	}
	wantDue := dateOnly(engineNow).AddDate(0, 0, 3)
	if !action.DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %v", action.DueDate, wantDue)
	}
	if !strings.HasPrefix(action.Notes, "COMPLIANCE: "+RuleCertCurrent) {
		t.Errorf("notes should open with the compliance marker, got %q", action.Notes)
	}
	if !strings.Contains(action.Notes, "Finding:") || !strings.Contains(action.Notes, "Recommended action:") {
		t.Errorf("notes should carry the finding and recommendation, got %q", action.Notes)
	}
}

// TestCreateComplianceActionRefreshes verifies the second breach for the same
// rule refreshes the open item rather than opening another.
func TestCreateComplianceActionRefreshes(t *testing.T) {
	actions := NewInMemoryActionStore()
	engine := NewEngine(NewInMemoryCaseStore(), NewInMemoryCertificateStore(),
		NewInMemoryRuleStore(), NewInMemoryCheckStore(), actions,
		WithClock(func() time.Time { return engineNow }))

	first := engine.createComplianceAction("case-001", RuleRTWPlan10Wk, "No plan after 12 weeks", "Establish a plan")
	second := engine.createComplianceAction("case-001", RuleRTWPlan10Wk, "No plan after 13 weeks", "Establish a plan")

	if first == "" || second == "" {
		t.Fatal("both upserts should return an id")
	}
	if first != second {
		t.Errorf("refresh returned a different id: %s vs %s", first, second)
	}

	open := actions.OpenForCase("case-001")
	if len(open) != 1 {
		t.Fatalf("open actions = %d, want 1", len(open))
	}
	if open[0].Updates != 1 {
		t.Errorf("updates = %d, want 1", open[0].Updates)
	}
	if !strings.Contains(open[0].Notes, "13 weeks") {
		t.Error("refresh should replace the notes with the latest finding")
	}
}

// TestCreateComplianceActionDistinctPerRule verifies different rules on the
// same case open distinct items.
func TestCreateComplianceActionDistinctPerRule(t *testing.T) {
	actions := NewInMemoryActionStore()
	engine := NewEngine(NewInMemoryCaseStore(), NewInMemoryCertificateStore(),
		NewInMemoryRuleStore(), NewInMemoryCheckStore(), actions,
		WithClock(func() time.Time { return engineNow }))

	engine.createComplianceAction("case-001", RuleCertCurrent, "f1", "r1")
	engine.createComplianceAction("case-001", RuleFileReview8Wk, "f2", "r2")

	if got := len(actions.OpenForCase("case-001")); got != 2 {
		t.Errorf("open actions = %d, want 2 distinct items", got)
	}
}

// TestCreateComplianceActionUnmappedRule verifies unmapped rule codes share
// the generic follow-up with the default lead time.
func TestCreateComplianceActionUnmappedRule(t *testing.T) {
	actions := NewInMemoryActionStore()
	engine := NewEngine(NewInMemoryCaseStore(), NewInMemoryCertificateStore(),
		NewInMemoryRuleStore(), NewInMemoryCheckStore(), actions,
		WithClock(func() time.Time { return engineNow }))

	if id := engine.createComplianceAction("case-001", "CUSTOM_RULE", "finding", "recommendation"); id == "" {
		t.Fatal("expected an action id")
	}

	open := actions.OpenForCase("case-001")
	if len(open) != 1 {
		t.Fatalf("open actions = %d, want 1", len(open))
	}
	if open[0].ActionType != "compliance_followup" {
		t.Errorf("action type = %s, want compliance_followup", open[0].ActionType)
	}
	wantDue := dateOnly(engineNow).AddDate(0, 0, 5)
	if !open[0].DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %v", open[0].DueDate, wantDue)
	}
}
