package compliance

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresCaseStore implements CaseStore backed by PostgreSQL.
type PostgresCaseStore struct {
	db *sql.DB
}

// NewPostgresCaseStore creates a new PostgreSQL-backed CaseStore.
func NewPostgresCaseStore(db *sql.DB) *PostgresCaseStore {
	return &PostgresCaseStore{db: db}
}

// Get retrieves a case snapshot by id.
func (s *PostgresCaseStore) Get(id string) (*WorkerCase, error) {
	var c WorkerCase
	var clinical sql.NullString
	err := s.db.QueryRow(`
		SELECT id, worker_name, company_name, date_of_injury, current_status,
		       work_status, clinical_status, updated_at
		FROM worker_cases
		WHERE id = $1
	`, id).Scan(
		&c.ID,
		&c.WorkerName,
		&c.CompanyName,
		&c.DateOfInjury,
		&c.CurrentStatus,
		&c.WorkStatus,
		&clinical,
		&c.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("case %s: %w", id, ErrCaseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}

	if clinical.Valid {
		c.ClinicalStatusJSON = []byte(clinical.String)
	}
	return &c, nil
}

// ListIDs returns all case ids, oldest case first.
func (s *PostgresCaseStore) ListIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM worker_cases ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan case id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cases: %w", err)
	}
	return ids, nil
}

// PostgresCertificateStore implements CertificateStore backed by PostgreSQL.
type PostgresCertificateStore struct {
	db *sql.DB
}

// NewPostgresCertificateStore creates a new PostgreSQL-backed CertificateStore.
func NewPostgresCertificateStore(db *sql.DB) *PostgresCertificateStore {
	return &PostgresCertificateStore{db: db}
}

// LatestForCase returns the certificate with the latest end date, or nil when
// the case has none on file.
func (s *PostgresCertificateStore) LatestForCase(caseID string) (*MedicalCertificate, error) {
	var cert MedicalCertificate
	err := s.db.QueryRow(`
		SELECT id, case_id, start_date, end_date
		FROM medical_certificates
		WHERE case_id = $1
		ORDER BY end_date DESC
		LIMIT 1
	`, caseID).Scan(&cert.ID, &cert.CaseID, &cert.StartDate, &cert.EndDate)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest certificate: %w", err)
	}
	return &cert, nil
}

// PostgresRuleStore implements RuleStore backed by PostgreSQL.
type PostgresRuleStore struct {
	db *sql.DB
}

// NewPostgresRuleStore creates a new PostgreSQL-backed RuleStore.
func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

// Add inserts a new rule into the catalog.
func (s *PostgresRuleStore) Add(rule *ComplianceRule) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM compliance_rules WHERE rule_code = $1)
	`, rule.Code).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if exists {
		return fmt.Errorf("rule with code %s already exists", rule.Code)
	}

	refs, err := json.Marshal(rule.DocumentReferences)
	if err != nil {
		return fmt.Errorf("failed to encode document references: %w", err)
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO compliance_rules (rule_code, name, severity, recommended_action,
		                              document_references, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rule.Code, rule.Name, rule.Severity, rule.RecommendedAction,
		refs, rule.Active, rule.CreatedAt, rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// Get retrieves a rule by code.
func (s *PostgresRuleStore) Get(code string) (*ComplianceRule, error) {
	var rule ComplianceRule
	var refs []byte
	err := s.db.QueryRow(`
		SELECT rule_code, name, severity, recommended_action, document_references,
		       active, created_at, updated_at
		FROM compliance_rules
		WHERE rule_code = $1
	`, code).Scan(
		&rule.Code,
		&rule.Name,
		&rule.Severity,
		&rule.RecommendedAction,
		&refs,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s not found", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	if err := json.Unmarshal(refs, &rule.DocumentReferences); err != nil {
		return nil, fmt.Errorf("failed to decode document references: %w", err)
	}
	return &rule, nil
}

// ListActive returns all active rules in catalog order.
func (s *PostgresRuleStore) ListActive() ([]*ComplianceRule, error) {
	rows, err := s.db.Query(`
		SELECT rule_code, name, severity, recommended_action, document_references,
		       active, created_at, updated_at
		FROM compliance_rules
		WHERE active = true
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	defer rows.Close()

	var rulesList []*ComplianceRule
	for rows.Next() {
		var r ComplianceRule
		var refs []byte
		if err := rows.Scan(&r.Code, &r.Name, &r.Severity, &r.RecommendedAction,
			&refs, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		if err := json.Unmarshal(refs, &r.DocumentReferences); err != nil {
			return nil, fmt.Errorf("failed to decode document references: %w", err)
		}
		rulesList = append(rulesList, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rulesList, nil
}

// Update modifies an existing rule.
func (s *PostgresRuleStore) Update(rule *ComplianceRule) error {
	refs, err := json.Marshal(rule.DocumentReferences)
	if err != nil {
		return fmt.Errorf("failed to encode document references: %w", err)
	}

	rule.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE compliance_rules
		SET name = $1, severity = $2, recommended_action = $3,
		    document_references = $4, active = $5, updated_at = $6
		WHERE rule_code = $7
	`, rule.Name, rule.Severity, rule.RecommendedAction, refs, rule.Active,
		rule.UpdatedAt, rule.Code)

	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s not found", rule.Code)
	}
	return nil
}

// Delete removes a rule from the catalog.
func (s *PostgresRuleStore) Delete(code string) error {
	result, err := s.db.Exec(`DELETE FROM compliance_rules WHERE rule_code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %s not found", code)
	}
	return nil
}

// PostgresCheckStore implements CheckStore backed by PostgreSQL. The table is
// append-only; this store never issues UPDATE or DELETE.
type PostgresCheckStore struct {
	db *sql.DB
}

// NewPostgresCheckStore creates a new PostgreSQL-backed CheckStore.
func NewPostgresCheckStore(db *sql.DB) *PostgresCheckStore {
	return &PostgresCheckStore{db: db}
}

// Insert appends one audit row.
func (s *PostgresCheckStore) Insert(check *CaseComplianceCheck) error {
	if check.ID == "" {
		check.ID = uuid.NewString()
	}

	var actionID any
	if check.ActionID != "" {
		actionID = check.ActionID
	}

	_, err := s.db.Exec(`
		INSERT INTO case_compliance_checks (id, case_id, rule_code, status, checked_at,
		                                    finding, recommendation, action_id, action_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, check.ID, check.CaseID, check.RuleCode, check.Status, check.CheckedAt,
		check.Finding, check.Recommendation, actionID, check.ActionCreated)

	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}
	return nil
}

// LatestForCase returns the most recent row per rule code for the case.
func (s *PostgresCheckStore) LatestForCase(caseID string) ([]*CaseComplianceCheck, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT ON (rule_code)
		       id, case_id, rule_code, status, checked_at, finding,
		       recommendation, action_id, action_created
		FROM case_compliance_checks
		WHERE case_id = $1
		ORDER BY rule_code, checked_at DESC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest checks: %w", err)
	}
	defer rows.Close()

	var checks []*CaseComplianceCheck
	for rows.Next() {
		var c CaseComplianceCheck
		var actionID sql.NullString
		if err := rows.Scan(&c.ID, &c.CaseID, &c.RuleCode, &c.Status, &c.CheckedAt,
			&c.Finding, &c.Recommendation, &actionID, &c.ActionCreated); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		c.ActionID = actionID.String
		checks = append(checks, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checks: %w", err)
	}
	return checks, nil
}

// PostgresActionStore implements ActionStore backed by PostgreSQL, deduping
// open work items on (case_id, action_type).
type PostgresActionStore struct {
	db *sql.DB
}

// NewPostgresActionStore creates a new PostgreSQL-backed ActionStore.
func NewPostgresActionStore(db *sql.DB) *PostgresActionStore {
	return &PostgresActionStore{db: db}
}

// Upsert opens a work item or refreshes the existing one's due date and
// notes, returning the item's id either way.
func (s *PostgresActionStore) Upsert(caseID, actionType string, dueDate time.Time, notes string) (string, error) {
	var id string
	err := s.db.QueryRow(`
		INSERT INTO case_actions (id, case_id, action_type, due_date, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'open', NOW(), NOW())
		ON CONFLICT (case_id, action_type)
		DO UPDATE SET due_date = EXCLUDED.due_date, notes = EXCLUDED.notes,
		              status = 'open', updated_at = NOW()
		RETURNING id
	`, uuid.NewString(), caseID, actionType, dueDate, notes).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to upsert action: %w", err)
	}
	return id, nil
}
