package compliance

import (
	"fmt"
	"strings"
	"time"
)

// CaseContext carries everything a rule evaluator may consult for one run:
// the case snapshot, its interpreted clinical status, the latest certificate,
// and the run's logical clock. It is assembled once per run so every rule
// sees the same snapshot.
type CaseContext struct {
	Case              *WorkerCase
	Clinical          ClinicalStatus
	LatestCertificate *MedicalCertificate

	// LastReviewedAt is the best available proxy for when the file was last
	// reviewed. The orchestrator populates it from the case's UpdatedAt until
	// a dedicated review-event feed exists.
	LastReviewedAt time.Time

	Now time.Time
}

// OffWork reports whether the free-text case status records the worker as
// off work.
func (cc *CaseContext) OffWork() bool {
	return strings.Contains(strings.ToLower(cc.Case.CurrentStatus), "off work")
}

// WeeksSinceInjury returns whole weeks elapsed since the date of injury.
func (cc *CaseContext) WeeksSinceInjury() int {
	return daysBetween(dateOnly(cc.Case.DateOfInjury), dateOnly(cc.Now)) / 7
}

// DaysSinceReview returns whole days since the file was last reviewed.
func (cc *CaseContext) DaysSinceReview() int {
	return daysBetween(dateOnly(cc.LastReviewedAt), dateOnly(cc.Now))
}

func (cc *CaseContext) atWork() bool {
	return cc.Case.WorkStatus == WorkStatusAtWork || cc.Case.WorkStatus == WorkStatusAlternateDuties
}

// Evaluator judges one rule against one case snapshot. Evaluators are pure
// and total: they return a result for every input and reserve non_compliant
// for concretely checkable breaches, degrading to warning when the signal is
// ambiguous or absent.
type Evaluator func(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult

// evaluators is the static rule-code dispatch table, resolved once at
// startup. Unknown codes route to evaluateUnknown so an unrecognised rule
// never blocks the rest of the catalog.
var evaluators = map[string]Evaluator{
	RuleCertCurrent:         evaluateCertCurrent,
	RuleRTWPlan10Wk:         evaluateRTWPlan10Wk,
	RuleFileReview8Wk:       evaluateFileReview8Wk,
	RulePaymentStepdown:     evaluatePaymentStepdown,
	RuleCentrelinkClearance: evaluateCentrelinkClearance,
	RuleSuitableDuties:      evaluateSuitableDuties,
	RuleRTWObligations:      evaluateRTWObligations,
}

// EvaluatorFor resolves the evaluator registered for a rule code, falling
// back to the not-implemented evaluator for unknown codes.
func EvaluatorFor(code string) Evaluator {
	if ev, ok := evaluators[code]; ok {
		return ev
	}
	return evaluateUnknown
}

func newResult(rule *ComplianceRule, status CheckStatus, finding, recommendation string) ComplianceCheckResult {
	return ComplianceCheckResult{
		RuleCode:           rule.Code,
		RuleName:           rule.Name,
		Status:             status,
		Severity:           rule.Severity,
		Finding:            finding,
		Recommendation:     recommendation,
		DocumentReferences: rule.DocumentReferences,
	}
}

// evaluateCertCurrent: while a worker is off work, the certificate of
// capacity chain must be unbroken. A certificate ending today is already a
// payment gap; one ending within seven days gets a proactive renewal warning.
func evaluateCertCurrent(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult {
	if !cc.OffWork() {
		return newResult(rule, StatusCompliant,
			"Worker is not recorded as off work; certificate currency does not apply", "")
	}

	cert := cc.LatestCertificate
	if cert == nil {
		return newResult(rule, StatusNonCompliant,
			"Worker is off work with no certificate of capacity on file",
			rule.RecommendedAction)
	}

	daysLeft := daysBetween(dateOnly(cc.Now), dateOnly(cert.EndDate))
	endDate := dateOnly(cert.EndDate).Format("2006-01-02")

	if daysLeft <= 0 {
		return newResult(rule, StatusNonCompliant,
			fmt.Sprintf("Certificate of capacity expired on %s (%s ago)", endDate, pluralDays(-daysLeft)),
			rule.RecommendedAction)
	}
	if daysLeft <= 7 {
		return newResult(rule, StatusWarning,
			fmt.Sprintf("Certificate of capacity expires in %s on %s", pluralDays(daysLeft), endDate),
			"Request a renewed certificate before the current one lapses")
	}
	return newResult(rule, StatusCompliant,
		fmt.Sprintf("Certificate of capacity is current until %s", endDate), "")
}

// evaluateRTWPlan10Wk: a return to work plan must exist by week 10 post
// injury. A plan that exists but is failing needs revision, not activation,
// so it is treated as a breach rather than a warning.
func evaluateRTWPlan10Wk(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult {
	weeks := cc.WeeksSinceInjury()
	if weeks < 10 {
		return newResult(rule, StatusCompliant,
			fmt.Sprintf("Injury is %d weeks old; a return to work plan is not yet required", weeks), "")
	}

	switch cc.Clinical.RTWPlanStatus {
	case RTWPlanNotPlanned:
		return newResult(rule, StatusNonCompliant,
			fmt.Sprintf("No return to work plan after %d weeks post injury", weeks),
			rule.RecommendedAction)
	case RTWPlanPlannedNotStarted:
		return newResult(rule, StatusWarning,
			"A return to work plan exists but has not been started",
			"Activate the drafted return to work plan")
	case RTWPlanInProgress, RTWPlanWorkingWell:
		rtw := ComputeRTWCompliance(cc.Clinical.TreatmentPlan, cc.Clinical.RTWPlanStatus, cc.Now)
		recommendation := ""
		if rtw.RequiresReview {
			recommendation = "Review the return to work plan timeline"
		}
		return newResult(rule, StatusCompliant, rtw.Message, recommendation)
	case RTWPlanCompleted:
		return newResult(rule, StatusCompliant, "Return to work plan completed", "")
	case RTWPlanFailing:
		return newResult(rule, StatusNonCompliant,
			"Return to work plan is in place but failing and requires revision",
			rule.RecommendedAction)
	default:
		return newResult(rule, StatusWarning,
			"Return to work plan status is not recorded; manual assessment required",
			"Confirm the return to work plan status on the case file")
	}
}

// evaluateFileReview8Wk: the case file must be reviewed at least every eight
// weeks. Last review is proxied by CaseContext.LastReviewedAt.
func evaluateFileReview8Wk(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult {
	days := cc.DaysSinceReview()
	if days > 56 {
		return newResult(rule, StatusNonCompliant,
			fmt.Sprintf("Case file has not been reviewed for %d days; the 56 day limit has passed", days),
			rule.RecommendedAction)
	}
	if days > 49 {
		return newResult(rule, StatusWarning,
			fmt.Sprintf("Case file review is due within the week (last reviewed %s ago)", pluralDays(days)),
			"Schedule a case file review this week")
	}
	return newResult(rule, StatusCompliant,
		fmt.Sprintf("Case file reviewed %s ago", pluralDays(days)), "")
}

// evaluatePaymentStepdown: payment rate steps down after 13 weeks off work.
// No payment-ledger signal reaches this evaluator, so it never escalates past
// warning; past the threshold it always delegates to human verification.
func evaluatePaymentStepdown(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult {
	switch cc.Case.WorkStatus {
	case WorkStatusAtWork, WorkStatusAlternateDuties:
		return newResult(rule, StatusCompliant,
			"Worker is working; step-down of incapacity payments does not apply", "")
	case WorkStatusOffWork:
		weeks := cc.WeeksSinceInjury()
		if weeks < 13 {
			return newResult(rule, StatusCompliant,
				fmt.Sprintf("Payment step-down is not due until week 13 (currently week %d)", weeks), "")
		}
		if weeks <= 15 {
			return newResult(rule, StatusWarning,
				fmt.Sprintf("Worker has reached week %d; the payment step-down should be actioned now", weeks),
				rule.RecommendedAction)
		}
		return newResult(rule, StatusWarning,
			fmt.Sprintf("Worker is %d weeks post injury; verify the payment step-down was applied", weeks),
			rule.RecommendedAction)
	default:
		return newResult(rule, StatusCompliant,
			"Work status is unclear; manual assessment of the payment step-down is required", "")
	}
}

// evaluateCentrelinkClearance: income-support clearance must be resolved
// before certain payments. Absence of the field is read as "not yet
// verified", not as a breach.
func evaluateCentrelinkClearance(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult {
	if cc.atWork() {
		return newResult(rule, StatusCompliant,
			"Worker is working; Centrelink clearance does not apply", "")
	}

	switch cc.Clinical.CentrelinkClearance {
	case FlagTrue:
		return newResult(rule, StatusCompliant, "Centrelink clearance is recorded on the case", "")
	case FlagFalse:
		return newResult(rule, StatusNonCompliant,
			"Centrelink clearance is recorded as not obtained",
			rule.RecommendedAction)
	case FlagAmbiguous:
		return newResult(rule, StatusWarning,
			"Centrelink clearance field could not be interpreted; manual review required",
			"Confirm Centrelink clearance status with the worker")
	}

	if cc.Case.WorkStatus == WorkStatusOffWork {
		weeks := cc.WeeksSinceInjury()
		if weeks > 4 {
			return newResult(rule, StatusWarning,
				fmt.Sprintf("No Centrelink clearance recorded for an established claim (%d weeks post injury)", weeks),
				rule.RecommendedAction)
		}
		return newResult(rule, StatusCompliant,
			fmt.Sprintf("Centrelink clearance is not yet required (claim is %d weeks old)", weeks), "")
	}

	return newResult(rule, StatusWarning,
		"Centrelink clearance status is unknown; manual review required",
		"Confirm Centrelink clearance status with the worker")
}

// evaluateSuitableDuties: an employer must offer duties matching certified
// capacity. The requirement only binds while the worker has some capacity to
// place.
func evaluateSuitableDuties(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult {
	if cc.atWork() {
		return newResult(rule, StatusCompliant,
			"Worker is performing duties; suitable duties obligation is met", "")
	}

	rtw := cc.Clinical.RTWPlanStatus
	if rtw == RTWPlanWorkingWell || rtw == RTWPlanCompleted {
		return newResult(rule, StatusCompliant,
			"Return to work arrangement is working; suitable duties obligation is met", "")
	}

	if cc.Case.WorkStatus == WorkStatusOffWork {
		if !cc.Clinical.FunctionalCapacity {
			return newResult(rule, StatusCompliant,
				"Worker has no certified functional capacity; suitable duties requirement does not apply", "")
		}
		switch rtw {
		case RTWPlanInProgress, RTWPlanPlannedNotStarted:
			return newResult(rule, StatusWarning,
				"Worker has functional capacity; monitor progress of the suitable duties arrangement",
				"Monitor the suitable duties arrangement")
		case RTWPlanFailing:
			return newResult(rule, StatusNonCompliant,
				"Worker has functional capacity but the suitable duties arrangement is failing",
				rule.RecommendedAction)
		default:
			return newResult(rule, StatusWarning,
				"Worker has functional capacity but no suitable duties arrangement is recorded",
				rule.RecommendedAction)
		}
	}

	return newResult(rule, StatusWarning,
		"Suitable duties position is unclear; manual review required",
		"Review suitable duties arrangements with the employer")
}

// evaluateRTWObligations: cooperation is inferred from case momentum rather
// than a direct signal, so findings are graduated by recency of activity
// instead of a binary pass/fail.
func evaluateRTWObligations(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult {
	if cc.atWork() {
		return newResult(rule, StatusCompliant,
			"Worker is back at work; return to work obligations are satisfied", "")
	}

	days := cc.DaysSinceReview()

	switch cc.Clinical.RTWPlanStatus {
	case RTWPlanCompleted, RTWPlanWorkingWell:
		return newResult(rule, StatusCompliant,
			"Return to work plan is progressing well; obligations are satisfied", "")
	case RTWPlanInProgress:
		if days <= 14 {
			return newResult(rule, StatusCompliant,
				"Return to work plan is in progress with recent case activity", "")
		}
		return newResult(rule, StatusWarning,
			fmt.Sprintf("Return to work plan is in progress but the case has had no activity for %d days; engagement may be lapsing", days),
			"Contact the parties to confirm engagement with the plan")
	case RTWPlanFailing:
		return newResult(rule, StatusNonCompliant,
			"Return to work plan is failing; the parties' cooperation needs intervention",
			rule.RecommendedAction)
	case RTWPlanPlannedNotStarted:
		if cc.Case.WorkStatus == WorkStatusOffWork {
			if days <= 21 {
				return newResult(rule, StatusCompliant,
					"A return to work plan is drafted and the case shows recent activity", "")
			}
			return newResult(rule, StatusWarning,
				fmt.Sprintf("A return to work plan is drafted but the case has been inactive for %d days", days),
				"Follow up on starting the drafted return to work plan")
		}
	default:
		if cc.Case.WorkStatus == WorkStatusOffWork {
			if days <= 30 {
				return newResult(rule, StatusCompliant,
					"Recent case activity suggests the parties are engaged in the return to work process", "")
			}
			return newResult(rule, StatusWarning,
				fmt.Sprintf("No return to work plan and no case activity for %d days", days),
				"Re-engage the parties in the return to work process")
		}
	}

	return newResult(rule, StatusCompliant,
		"Return to work position is unclear; no obligation breach is indicated", "")
}

// evaluateUnknown is the fail-open fallback for rule codes without a
// registered evaluator.
func evaluateUnknown(cc *CaseContext, rule *ComplianceRule) ComplianceCheckResult {
	return newResult(rule, StatusWarning,
		"Rule evaluation not implemented",
		"Assess this rule manually")
}
