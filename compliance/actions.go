package compliance

import (
	"fmt"

	"github.com/caseflow/compliance/internal/logger"
)

// actionSpec maps a rule code to the remediation work item it opens.
type actionSpec struct {
	Type      string
	DueInDays int
}

// actionSpecs gives every rule code its own action type so two rules can
// never collide on one tracked item. Unmapped codes share the generic
// follow-up.
var actionSpecs = map[string]actionSpec{
	RuleCertCurrent:         {Type: "certificate_renewal", DueInDays: 3},
	RuleRTWPlan10Wk:         {Type: "rtw_plan_review", DueInDays: 7},
	RuleFileReview8Wk:       {Type: "file_review", DueInDays: 5},
	RulePaymentStepdown:     {Type: "payment_stepdown_review", DueInDays: 5},
	RuleCentrelinkClearance: {Type: "centrelink_followup", DueInDays: 2},
	RuleSuitableDuties:      {Type: "suitable_duties_review", DueInDays: 5},
	RuleRTWObligations:      {Type: "rtw_obligations_review", DueInDays: 5},
}

var defaultActionSpec = actionSpec{Type: "compliance_followup", DueInDays: 5}

// createComplianceAction opens or refreshes the remediation work item for a
// non-compliant finding. The upsert key is (case, action type), and action
// types are per-rule, so repeated runs refresh the existing open item instead
// of duplicating it. Returns the action id, or "" on any failure: a missed
// action must never abort the run or block the audit row.
func (e *Engine) createComplianceAction(caseID, ruleCode, finding, recommendation string) string {
	spec, ok := actionSpecs[ruleCode]
	if !ok {
		spec = defaultActionSpec
	}

	dueDate := dateOnly(e.now()).AddDate(0, 0, spec.DueInDays)
	notes := fmt.Sprintf("COMPLIANCE: %s\nFinding: %s\nRecommended action: %s", ruleCode, finding, recommendation)

	actionID, err := e.actions.Upsert(caseID, spec.Type, dueDate, notes)
	if err != nil {
		logger.ErrorActionCreate("failed to create compliance action",
			"case_id", caseID, "rule_code", ruleCode, "error", err)
		e.collector.RecordActionFailure()
		return ""
	}
	e.collector.RecordActionCreated()
	return actionID
}
