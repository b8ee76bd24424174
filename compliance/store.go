package compliance

import "time"

// CaseStore reads case snapshots. The engine never writes cases.
type CaseStore interface {
	// Get returns the case snapshot, or an error wrapping ErrCaseNotFound.
	Get(id string) (*WorkerCase, error)

	// ListIDs returns every case id, for batch sweeps.
	ListIDs() ([]string, error)
}

// CertificateStore reads certificates of capacity.
type CertificateStore interface {
	// LatestForCase returns the certificate with the latest end date for the
	// case, or nil when none exists.
	LatestForCase(caseID string) (*MedicalCertificate, error)
}

// RuleStore manages the compliance rule catalog.
type RuleStore interface {
	// Add a new rule to the catalog
	Add(rule *ComplianceRule) error

	// Get a rule by its code
	Get(code string) (*ComplianceRule, error)

	// ListActive returns active rules in stable catalog order
	ListActive() ([]*ComplianceRule, error)

	// Update an existing rule
	Update(rule *ComplianceRule) error

	// Delete a rule by its code
	Delete(code string) error
}

// CheckStore appends compliance audit rows. Rows are immutable: there is no
// update or delete.
type CheckStore interface {
	// Insert appends one check row.
	Insert(check *CaseComplianceCheck) error

	// LatestForCase returns, per rule code, the row with the greatest
	// CheckedAt for the case.
	LatestForCase(caseID string) ([]*CaseComplianceCheck, error)
}

// ActionStore is the sink for remediation work items.
type ActionStore interface {
	// Upsert opens a work item for (caseID, actionType), or refreshes the due
	// date and notes of the existing one. Returns the item's id.
	Upsert(caseID, actionType string, dueDate time.Time, notes string) (string, error)
}
