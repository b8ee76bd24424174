package compliance

import (
	"strings"
	"testing"
	"time"
)

var rtwNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time { return &t }

// TestComputeRTWComplianceNoPlan verifies absent plans degrade to no_plan
// rather than failing.
func TestComputeRTWComplianceNoPlan(t *testing.T) {
	testCases := []struct {
		name           string
		plan           *TreatmentPlan
		status         RTWPlanStatus
		requiresReview bool
	}{
		{"not planned", &TreatmentPlan{}, RTWPlanNotPlanned, false},
		{"planned not started", &TreatmentPlan{}, RTWPlanPlannedNotStarted, true},
		{"nil plan in progress", nil, RTWPlanInProgress, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ComputeRTWCompliance(tc.plan, tc.status, rtwNow)
			if result.Status != RTWNoPlan {
				t.Errorf("expected no_plan, got %s", result.Status)
			}
			if result.RequiresReview != tc.requiresReview {
				t.Errorf("RequiresReview = %v, want %v", result.RequiresReview, tc.requiresReview)
			}
			if result.Message == "" {
				t.Error("message should not be empty")
			}
			if result.ActivePlan != nil {
				t.Error("no_plan verdict should not carry an active plan")
			}
		})
	}
}

// TestComputeRTWComplianceUnresolvableTimeline verifies a plan with no dates
// and no duration is flagged for review instead of guessed at.
func TestComputeRTWComplianceUnresolvableTimeline(t *testing.T) {
	plan := &TreatmentPlan{}
	result := ComputeRTWCompliance(plan, RTWPlanInProgress, rtwNow)

	if result.Status != RTWNoPlan {
		t.Errorf("expected no_plan, got %s", result.Status)
	}
	if !result.RequiresReview {
		t.Error("unresolvable timeline should require review")
	}
	if !strings.Contains(result.Message, "timeline") {
		t.Errorf("message should mention the timeline, got %q", result.Message)
	}
}

// TestComputeRTWComplianceExpiryBoundary verifies the seven day warning
// window: a target exactly 7 days out warns, 8 days out is compliant.
func TestComputeRTWComplianceExpiryBoundary(t *testing.T) {
	testCases := []struct {
		name       string
		daysOut    int
		wantStatus RTWStatus
	}{
		{"expires in 7 days", 7, RTWPlanExpiringSoon},
		{"expires in 8 days", 8, RTWPlanCompliant},
		{"expires in 1 day", 1, RTWPlanExpiringSoon},
		{"expires today", 0, RTWPlanExpiringSoon},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			target := rtwNow.AddDate(0, 0, tc.daysOut)
			plan := &TreatmentPlan{RTWPlanTargetEndDate: datePtr(target)}
			result := ComputeRTWCompliance(plan, RTWPlanInProgress, rtwNow)

			if result.Status != tc.wantStatus {
				t.Errorf("status = %s, want %s", result.Status, tc.wantStatus)
			}
			if result.ActivePlan == nil {
				t.Fatal("active plan should be populated")
			}
			if !result.ActivePlan.TargetEndDate.Equal(target) {
				t.Errorf("TargetEndDate = %v, want %v", result.ActivePlan.TargetEndDate, target)
			}
			if result.DaysSinceExpiry != 0 {
				t.Errorf("DaysSinceExpiry should be zero for an unexpired plan, got %d", result.DaysSinceExpiry)
			}
		})
	}
}

// TestComputeRTWComplianceExpired verifies a past target end date yields an
// expired verdict carrying days since expiry.
func TestComputeRTWComplianceExpired(t *testing.T) {
	target := rtwNow.AddDate(0, 0, -10)
	plan := &TreatmentPlan{RTWPlanTargetEndDate: datePtr(target)}
	result := ComputeRTWCompliance(plan, RTWPlanInProgress, rtwNow)

	if result.Status != RTWPlanExpired {
		t.Fatalf("status = %s, want %s", result.Status, RTWPlanExpired)
	}
	if result.DaysSinceExpiry != 10 {
		t.Errorf("DaysSinceExpiry = %d, want 10", result.DaysSinceExpiry)
	}
	if !result.RequiresReview {
		t.Error("expired plan should require review")
	}
	if result.DaysUntilExpiry != 0 {
		t.Errorf("DaysUntilExpiry should be zero for an expired plan, got %d", result.DaysUntilExpiry)
	}
}

// TestComputeRTWComplianceFailingStatus verifies a plan whose working status
// has lapsed is reported as expired even with a future target date.
func TestComputeRTWComplianceFailingStatus(t *testing.T) {
	target := rtwNow.AddDate(0, 0, 30)
	plan := &TreatmentPlan{RTWPlanTargetEndDate: datePtr(target)}
	result := ComputeRTWCompliance(plan, RTWPlanFailing, rtwNow)

	if result.Status != RTWPlanExpired {
		t.Errorf("status = %s, want %s", result.Status, RTWPlanExpired)
	}
}

// TestResolveTargetEndDate verifies the derivation fallbacks: explicit target,
// then start date plus duration, then generation date plus duration.
func TestResolveTargetEndDate(t *testing.T) {
	explicit := rtwNow.AddDate(0, 0, 14)
	start := rtwNow.AddDate(0, 0, -7)
	generated := rtwNow.AddDate(0, 0, -14)

	testCases := []struct {
		name string
		plan *TreatmentPlan
		want *time.Time
	}{
		{
			"explicit target wins",
			&TreatmentPlan{RTWPlanTargetEndDate: datePtr(explicit), RTWPlanStartDate: datePtr(start), ExpectedDurationWeeks: 6},
			datePtr(explicit),
		},
		{
			"derived from start date",
			&TreatmentPlan{RTWPlanStartDate: datePtr(start), ExpectedDurationWeeks: 6},
			datePtr(start.AddDate(0, 0, 42)),
		},
		{
			"derived from generation date",
			&TreatmentPlan{GeneratedAt: datePtr(generated), ExpectedDurationWeeks: 4},
			datePtr(generated.AddDate(0, 0, 28)),
		},
		{
			"no duration means unresolvable",
			&TreatmentPlan{RTWPlanStartDate: datePtr(start)},
			nil,
		},
		{
			"duration alone is not enough",
			&TreatmentPlan{ExpectedDurationWeeks: 6},
			nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveTargetEndDate(tc.plan)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if got != nil && !got.Equal(*tc.want) {
				t.Errorf("got %v, want %v", *got, *tc.want)
			}
		})
	}
}

// TestRTWPriority verifies the verdict to follow-up urgency mapping.
func TestRTWPriority(t *testing.T) {
	testCases := []struct {
		name string
		c    RTWCompliance
		want Severity
	}{
		{"expired", RTWCompliance{Status: RTWPlanExpired}, SeverityCritical},
		{"expiring tomorrow", RTWCompliance{Status: RTWPlanExpiringSoon, DaysUntilExpiry: 1}, SeverityCritical},
		{"expiring in 3 days", RTWCompliance{Status: RTWPlanExpiringSoon, DaysUntilExpiry: 3}, SeverityHigh},
		{"expiring in 7 days", RTWCompliance{Status: RTWPlanExpiringSoon, DaysUntilExpiry: 7}, SeverityMedium},
		{"no plan needing review", RTWCompliance{Status: RTWNoPlan, RequiresReview: true}, SeverityMedium},
		{"no plan", RTWCompliance{Status: RTWNoPlan}, SeverityLow},
		{"compliant", RTWCompliance{Status: RTWPlanCompliant, DaysUntilExpiry: 30}, SeverityLow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RTWPriority(tc.c); got != tc.want {
				t.Errorf("RTWPriority() = %s, want %s", got, tc.want)
			}
		})
	}
}

// TestPluralDays verifies singular and plural day formatting.
func TestPluralDays(t *testing.T) {
	testCases := []struct {
		n    int
		want string
	}{
		{0, "0 days"},
		{1, "1 day"},
		{2, "2 days"},
		{-1, "-1 day"},
		{7, "7 days"},
	}

	for _, tc := range testCases {
		if got := pluralDays(tc.n); got != tc.want {
			t.Errorf("pluralDays(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
