package main

import (
	"time"

	"github.com/caseflow/compliance/compliance"
)

// ruleRequest is the request body for creating or updating a catalog rule.
type ruleRequest struct {
	Code              string                         `json:"ruleCode"`
	Name              string                         `json:"name"`
	Severity          string                         `json:"severity"`
	RecommendedAction string                         `json:"recommendedAction"`
	References        []compliance.DocumentReference `json:"documentReferences"`
	Active            bool                           `json:"active"`
}

func (r ruleRequest) toRule() *compliance.ComplianceRule {
	return &compliance.ComplianceRule{
		Code:               r.Code,
		Name:               r.Name,
		Severity:           compliance.Severity(r.Severity),
		RecommendedAction:  r.RecommendedAction,
		DocumentReferences: r.References,
		Active:             r.Active,
	}
}

// checkView is the latest persisted posture for one rule, shaped like an
// evaluation result for consumers that only need the current state.
type checkView struct {
	RuleCode       string    `json:"ruleCode"`
	Status         string    `json:"status"`
	CheckedAt      time.Time `json:"checkedAt"`
	Finding        string    `json:"finding"`
	Recommendation string    `json:"recommendation,omitempty"`
	ActionID       string    `json:"actionId,omitempty"`
	ActionCreated  bool      `json:"actionCreated"`
}

func newCheckView(c *compliance.CaseComplianceCheck) checkView {
	return checkView{
		RuleCode:       c.RuleCode,
		Status:         c.Status.String(),
		CheckedAt:      c.CheckedAt,
		Finding:        c.Finding,
		Recommendation: c.Recommendation,
		ActionID:       c.ActionID,
		ActionCreated:  c.ActionCreated,
	}
}
