package compliance

import (
	"encoding/json"
	"time"
)

// WorkStatus is the enumerated working state of an injured worker.
type WorkStatus string

const (
	WorkStatusAtWork          WorkStatus = "at_work"
	WorkStatusOffWork         WorkStatus = "off_work"
	WorkStatusAlternateDuties WorkStatus = "working_alternate_role"
	WorkStatusUnknown         WorkStatus = "unknown"
)

// String returns the string representation of the work status.
func (s WorkStatus) String() string {
	return string(s)
}

// IsValid returns true if the work status is a recognised value.
func (s WorkStatus) IsValid() bool {
	switch s {
	case WorkStatusAtWork, WorkStatusOffWork, WorkStatusAlternateDuties, WorkStatusUnknown:
		return true
	}
	return false
}

// RTWPlanStatus is the lifecycle state of a return to work plan. The zero
// value means the status is not recorded on the case.
type RTWPlanStatus string

const (
	RTWPlanUnknown           RTWPlanStatus = ""
	RTWPlanNotPlanned        RTWPlanStatus = "not_planned"
	RTWPlanPlannedNotStarted RTWPlanStatus = "planned_not_started"
	RTWPlanInProgress        RTWPlanStatus = "in_progress"
	RTWPlanWorkingWell       RTWPlanStatus = "working_well"
	RTWPlanFailing           RTWPlanStatus = "failing"
	RTWPlanCompleted         RTWPlanStatus = "completed"
)

// String returns the string representation of the plan status.
func (s RTWPlanStatus) String() string {
	return string(s)
}

// IsValid returns true if the plan status is a recognised non-empty value.
func (s RTWPlanStatus) IsValid() bool {
	switch s {
	case RTWPlanNotPlanned, RTWPlanPlannedNotStarted, RTWPlanInProgress,
		RTWPlanWorkingWell, RTWPlanFailing, RTWPlanCompleted:
		return true
	}
	return false
}

// WorkerCase is the read-only case snapshot the engine evaluates. It is owned
// by the case-management subsystem; one snapshot is loaded per run and shared
// by every rule in that run.
type WorkerCase struct {
	ID                 string
	WorkerName         string
	CompanyName        string
	DateOfInjury       time.Time
	CurrentStatus      string
	WorkStatus         WorkStatus
	ClinicalStatusJSON []byte
	UpdatedAt          time.Time
}

// MedicalCertificate is a time-bounded certificate of capacity. Only the
// record with the latest end date per case matters to the engine.
type MedicalCertificate struct {
	ID        string
	CaseID    string
	StartDate time.Time
	EndDate   time.Time
}

// TreatmentPlan is the return to work fragment of a treatment plan. All
// fields are optional; the target end date is derivable when absent.
type TreatmentPlan struct {
	RTWPlanStartDate      *time.Time
	RTWPlanTargetEndDate  *time.Time
	ExpectedDurationWeeks int
	GeneratedAt           *time.Time
}

// Flag models a field that can be absent, explicitly true, explicitly false,
// or present with an uninterpretable value. Absence is distinct from false.
type Flag int

const (
	FlagUnset Flag = iota
	FlagTrue
	FlagFalse
	FlagAmbiguous
)

// ClinicalStatus is the interpreted form of a case's clinical-status blob.
// Every field is optional in the source data; missing fields stay at their
// zero values rather than being conflated with explicit negatives.
type ClinicalStatus struct {
	RTWPlanStatus       RTWPlanStatus
	FunctionalCapacity  bool
	CentrelinkClearance Flag
	TreatmentPlan       *TreatmentPlan
}

// ParseClinicalStatus interprets the opaque clinical-status JSON blob.
// Malformed input degrades to the zero value; evaluation must never fail on
// a case's clinical data.
func ParseClinicalStatus(raw []byte) ClinicalStatus {
	var cs ClinicalStatus
	if len(raw) == 0 {
		return cs
	}

	var blob map[string]any
	if err := json.Unmarshal(raw, &blob); err != nil {
		return cs
	}

	if v, ok := blob["rtwPlanStatus"]; ok {
		if s, ok := v.(string); ok {
			if status := RTWPlanStatus(s); status.IsValid() {
				cs.RTWPlanStatus = status
			}
		}
	}

	if v, ok := blob["functionalCapacity"]; ok && v != nil {
		cs.FunctionalCapacity = true
	}

	if v, ok := blob["centrelinkClearance"]; ok {
		switch b := v.(type) {
		case bool:
			if b {
				cs.CentrelinkClearance = FlagTrue
			} else {
				cs.CentrelinkClearance = FlagFalse
			}
		default:
			cs.CentrelinkClearance = FlagAmbiguous
		}
	}

	if v, ok := blob["treatmentPlan"]; ok {
		if m, ok := v.(map[string]any); ok {
			cs.TreatmentPlan = parseTreatmentPlan(m)
		}
	}

	return cs
}

func parseTreatmentPlan(m map[string]any) *TreatmentPlan {
	plan := &TreatmentPlan{}

	plan.RTWPlanStartDate = parseOptionalDate(m["rtwPlanStartDate"])
	plan.RTWPlanTargetEndDate = parseOptionalDate(m["rtwPlanTargetEndDate"])
	plan.GeneratedAt = parseOptionalDate(m["generatedAt"])

	if v, ok := m["expectedDurationWeeks"]; ok {
		if f, ok := v.(float64); ok && f > 0 {
			plan.ExpectedDurationWeeks = int(f)
		}
	}

	return plan
}

// parseOptionalDate accepts RFC 3339 timestamps or plain dates; anything else
// is treated as absent.
func parseOptionalDate(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	return nil
}
