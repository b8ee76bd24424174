package compliance

import "time"

// Rule codes recognised by the evaluator registry.
const (
	RuleCertCurrent         = "CERT_CURRENT"
	RuleRTWPlan10Wk         = "RTW_PLAN_10WK"
	RuleFileReview8Wk       = "FILE_REVIEW_8WK"
	RulePaymentStepdown     = "PAYMENT_STEPDOWN"
	RuleCentrelinkClearance = "CENTRELINK_CLEARANCE"
	RuleSuitableDuties      = "SUITABLE_DUTIES"
	RuleRTWObligations      = "RTW_OBLIGATIONS"
)

// Severity is the regulatory weight of a rule. It is a property of the rule,
// not of any single evaluation outcome.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid returns true if the severity is a recognised value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// CheckStatus is the three-way outcome of one rule evaluation.
type CheckStatus string

const (
	StatusCompliant    CheckStatus = "compliant"
	StatusWarning      CheckStatus = "warning"
	StatusNonCompliant CheckStatus = "non_compliant"
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognised value.
func (s CheckStatus) IsValid() bool {
	switch s {
	case StatusCompliant, StatusWarning, StatusNonCompliant:
		return true
	}
	return false
}

// DocumentReference cites the regulation or guideline a rule is grounded in.
type DocumentReference struct {
	Source  string `json:"source" yaml:"source"`
	Section string `json:"section" yaml:"section"`
}

// ComplianceRule is one entry in the regulatory rule catalog. Rules are
// administered outside the engine; a run reads them and never mutates them.
type ComplianceRule struct {
	Code               string              `json:"ruleCode"`
	Name               string              `json:"name"`
	Severity           Severity            `json:"severity"`
	RecommendedAction  string              `json:"recommendedAction"`
	DocumentReferences []DocumentReference `json:"documentReferences"`
	Active             bool                `json:"active"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// ComplianceCheckResult is the outcome of evaluating one rule against one
// case snapshot. Finding is always non-empty when the status is not
// compliant.
type ComplianceCheckResult struct {
	RuleCode           string              `json:"ruleCode"`
	RuleName           string              `json:"ruleName"`
	Status             CheckStatus         `json:"status"`
	Severity           Severity            `json:"severity"`
	Finding            string              `json:"finding"`
	Recommendation     string              `json:"recommendation,omitempty"`
	DocumentReferences []DocumentReference `json:"documentReferences,omitempty"`
}

// CaseComplianceCheck is the persisted, append-only audit row for one
// (case, rule, run). Rows are never updated or deleted; the latest posture
// for a rule is the row with the greatest CheckedAt.
type CaseComplianceCheck struct {
	ID             string      `json:"id"`
	CaseID         string      `json:"caseId"`
	RuleCode       string      `json:"ruleCode"`
	Status         CheckStatus `json:"status"`
	CheckedAt      time.Time   `json:"checkedAt"`
	Finding        string      `json:"finding"`
	Recommendation string      `json:"recommendation,omitempty"`
	ActionID       string      `json:"actionId,omitempty"`
	ActionCreated  bool        `json:"actionCreated"`
}

// CaseComplianceReport aggregates one run's results for a case. Checks are
// ordered by catalog order. The issue counters count non-compliant findings
// bucketed by the owning rule's severity.
type CaseComplianceReport struct {
	CaseID          string                  `json:"caseId"`
	WorkerName      string                  `json:"workerName"`
	CompanyName     string                  `json:"companyName"`
	OverallStatus   CheckStatus             `json:"overallStatus"`
	ComplianceScore int                     `json:"complianceScore"`
	Checks          []ComplianceCheckResult `json:"checks"`
	CriticalIssues  int                     `json:"criticalIssues"`
	HighIssues      int                     `json:"highIssues"`
	MediumIssues    int                     `json:"mediumIssues"`
	LowIssues       int                     `json:"lowIssues"`
	CheckedAt       time.Time               `json:"checkedAt"`
}
