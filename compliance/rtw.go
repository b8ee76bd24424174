package compliance

import (
	"fmt"
	"time"
)

// RTWStatus is the expiry posture of a return to work plan.
type RTWStatus string

const (
	RTWNoPlan           RTWStatus = "no_plan"
	RTWPlanExpiringSoon RTWStatus = "plan_expiring_soon"
	RTWPlanExpired      RTWStatus = "plan_expired"
	RTWPlanCompliant    RTWStatus = "plan_compliant"
)

// ActivePlan is a plan snapshot with its target end date resolved.
type ActivePlan struct {
	StartDate             *time.Time `json:"startDate,omitempty"`
	TargetEndDate         time.Time  `json:"targetEndDate"`
	ExpectedDurationWeeks int        `json:"expectedDurationWeeks,omitempty"`
}

// RTWCompliance is the sub-engine's verdict on a plan's timeline.
// DaysUntilExpiry and DaysSinceExpiry are mutually exclusive; which one is
// meaningful depends on Status.
type RTWCompliance struct {
	Status          RTWStatus   `json:"status"`
	ActivePlan      *ActivePlan `json:"activePlan,omitempty"`
	DaysUntilExpiry int         `json:"daysUntilExpiry,omitempty"`
	DaysSinceExpiry int         `json:"daysSinceExpiry,omitempty"`
	RequiresReview  bool        `json:"requiresReview"`
	Message         string      `json:"message"`
}

// ComputeRTWCompliance judges a treatment plan's return to work timeline as
// of now. It is pure and total: absent or unusable inputs degrade to a
// no_plan verdict rather than failing.
func ComputeRTWCompliance(plan *TreatmentPlan, status RTWPlanStatus, now time.Time) RTWCompliance {
	if status == RTWPlanNotPlanned || status == RTWPlanPlannedNotStarted || plan == nil {
		msg := "No return to work plan in place"
		requiresReview := status == RTWPlanPlannedNotStarted
		if requiresReview {
			msg = "Return to work plan drafted but not yet started"
		}
		return RTWCompliance{Status: RTWNoPlan, RequiresReview: requiresReview, Message: msg}
	}

	target := resolveTargetEndDate(plan)
	if target == nil {
		return RTWCompliance{
			Status:         RTWNoPlan,
			RequiresReview: true,
			Message:        "Return to work plan has no resolvable timeline",
		}
	}

	active := &ActivePlan{
		StartDate:             plan.RTWPlanStartDate,
		TargetEndDate:         *target,
		ExpectedDurationWeeks: plan.ExpectedDurationWeeks,
	}

	end := endOfDay(*target)
	working := status == RTWPlanInProgress || status == RTWPlanWorkingWell

	if working && !dateOnly(now).After(end) {
		daysUntil := int(end.Sub(now).Hours() / 24)
		if daysUntil <= 7 {
			return RTWCompliance{
				Status:          RTWPlanExpiringSoon,
				ActivePlan:      active,
				DaysUntilExpiry: daysUntil,
				RequiresReview:  true,
				Message:         fmt.Sprintf("Return to work plan expires in %s", pluralDays(daysUntil)),
			}
		}
		return RTWCompliance{
			Status:          RTWPlanCompliant,
			ActivePlan:      active,
			DaysUntilExpiry: daysUntil,
			Message:         fmt.Sprintf("Return to work plan on track, %s remaining", pluralDays(daysUntil)),
		}
	}

	daysSince := daysBetween(dateOnly(*target), dateOnly(now))
	if daysSince < 0 {
		daysSince = -daysSince
	}
	return RTWCompliance{
		Status:          RTWPlanExpired,
		ActivePlan:      active,
		DaysSinceExpiry: daysSince,
		RequiresReview:  true,
		Message:         fmt.Sprintf("Return to work plan expired %s ago", pluralDays(daysSince)),
	}
}

// RTWPriority maps a plan verdict to the urgency of following it up.
func RTWPriority(c RTWCompliance) Severity {
	switch c.Status {
	case RTWPlanExpired:
		return SeverityCritical
	case RTWPlanExpiringSoon:
		if c.DaysUntilExpiry <= 1 {
			return SeverityCritical
		}
		if c.DaysUntilExpiry <= 3 {
			return SeverityHigh
		}
		return SeverityMedium
	case RTWNoPlan:
		if c.RequiresReview {
			return SeverityMedium
		}
		return SeverityLow
	default:
		return SeverityLow
	}
}

// resolveTargetEndDate picks the explicit target end date, or derives one
// from the start date or generation date plus the expected duration.
func resolveTargetEndDate(plan *TreatmentPlan) *time.Time {
	if plan.RTWPlanTargetEndDate != nil {
		return plan.RTWPlanTargetEndDate
	}
	if plan.ExpectedDurationWeeks <= 0 {
		return nil
	}
	if plan.RTWPlanStartDate != nil {
		t := plan.RTWPlanStartDate.AddDate(0, 0, plan.ExpectedDurationWeeks*7)
		return &t
	}
	if plan.GeneratedAt != nil {
		t := plan.GeneratedAt.AddDate(0, 0, plan.ExpectedDurationWeeks*7)
		return &t
	}
	return nil
}

// dateOnly truncates a timestamp to midnight UTC of its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// endOfDay returns the last instant of the timestamp's calendar day.
func endOfDay(t time.Time) time.Time {
	return dateOnly(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// daysBetween returns the whole calendar days from a to b. Both arguments
// are expected to be date-truncated.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func pluralDays(n int) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d day", n)
	}
	return fmt.Sprintf("%d days", n)
}
