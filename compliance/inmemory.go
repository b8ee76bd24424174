package compliance

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryCaseStore implements CaseStore using an in-memory map. Thread-safe
// with RWMutex.
type InMemoryCaseStore struct {
	cases map[string]*WorkerCase
	order []string
	mu    sync.RWMutex
}

// NewInMemoryCaseStore creates a new in-memory case store.
func NewInMemoryCaseStore() *InMemoryCaseStore {
	return &InMemoryCaseStore{cases: make(map[string]*WorkerCase)}
}

// Put inserts or replaces a case snapshot.
func (s *InMemoryCaseStore) Put(c *WorkerCase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.cases[c.ID] = c
}

// Get retrieves a case by id.
func (s *InMemoryCaseStore) Get(id string) (*WorkerCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.cases[id]
	if !exists {
		return nil, fmt.Errorf("case %s: %w", id, ErrCaseNotFound)
	}
	return c, nil
}

// ListIDs returns all case ids in insertion order.
func (s *InMemoryCaseStore) ListIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids, nil
}

// InMemoryCertificateStore implements CertificateStore using an in-memory
// slice per case.
type InMemoryCertificateStore struct {
	certificates map[string][]*MedicalCertificate
	mu           sync.RWMutex
}

// NewInMemoryCertificateStore creates a new in-memory certificate store.
func NewInMemoryCertificateStore() *InMemoryCertificateStore {
	return &InMemoryCertificateStore{certificates: make(map[string][]*MedicalCertificate)}
}

// Add records a certificate for a case.
func (s *InMemoryCertificateStore) Add(cert *MedicalCertificate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	s.certificates[cert.CaseID] = append(s.certificates[cert.CaseID], cert)
}

// LatestForCase returns the certificate with the latest end date, or nil when
// the case has none.
func (s *InMemoryCertificateStore) LatestForCase(caseID string) (*MedicalCertificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *MedicalCertificate
	for _, cert := range s.certificates[caseID] {
		if latest == nil || cert.EndDate.After(latest.EndDate) {
			latest = cert
		}
	}
	return latest, nil
}

// InMemoryRuleStore implements RuleStore using an in-memory map. Catalog
// order is insertion order, so ListActive is deterministic.
type InMemoryRuleStore struct {
	rules map[string]*ComplianceRule
	order []string
	mu    sync.RWMutex
}

// NewInMemoryRuleStore creates a new in-memory rule store.
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{rules: make(map[string]*ComplianceRule)}
}

// Add adds a new rule to the catalog, enforcing unique codes.
func (s *InMemoryRuleStore) Add(rule *ComplianceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.Code]; exists {
		return fmt.Errorf("rule with code %s already exists", rule.Code)
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	s.rules[rule.Code] = rule
	s.order = append(s.order, rule.Code)
	return nil
}

// Get retrieves a rule by code.
func (s *InMemoryRuleStore) Get(code string) (*ComplianceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[code]
	if !exists {
		return nil, fmt.Errorf("rule %s not found", code)
	}
	return rule, nil
}

// ListActive returns all active rules in catalog order.
func (s *InMemoryRuleStore) ListActive() ([]*ComplianceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*ComplianceRule
	for _, code := range s.order {
		if rule := s.rules[code]; rule.Active {
			active = append(active, rule)
		}
	}
	return active, nil
}

// Update updates an existing rule, preserving CreatedAt and catalog position.
func (s *InMemoryRuleStore) Update(rule *ComplianceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.Code]
	if !exists {
		return fmt.Errorf("rule %s not found", rule.Code)
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	s.rules[rule.Code] = rule
	return nil
}

// Delete removes a rule from the catalog.
func (s *InMemoryRuleStore) Delete(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[code]; !exists {
		return fmt.Errorf("rule %s not found", code)
	}

	delete(s.rules, code)
	for i, c := range s.order {
		if c == code {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// InMemoryCheckStore implements CheckStore as an append-only slice.
type InMemoryCheckStore struct {
	checks []*CaseComplianceCheck
	mu     sync.RWMutex
}

// NewInMemoryCheckStore creates a new in-memory check store.
func NewInMemoryCheckStore() *InMemoryCheckStore {
	return &InMemoryCheckStore{}
}

// Insert appends one check row.
func (s *InMemoryCheckStore) Insert(check *CaseComplianceCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checks = append(s.checks, check)
	return nil
}

// LatestForCase returns the most recent row per rule code for the case.
func (s *InMemoryCheckStore) LatestForCase(caseID string) ([]*CaseComplianceCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]*CaseComplianceCheck)
	var order []string
	for _, check := range s.checks {
		if check.CaseID != caseID {
			continue
		}
		prev, seen := latest[check.RuleCode]
		if !seen {
			order = append(order, check.RuleCode)
		}
		if !seen || check.CheckedAt.After(prev.CheckedAt) {
			latest[check.RuleCode] = check
		}
	}

	results := make([]*CaseComplianceCheck, 0, len(order))
	for _, code := range order {
		results = append(results, latest[code])
	}
	return results, nil
}

// All returns every persisted row, oldest first.
func (s *InMemoryCheckStore) All() []*CaseComplianceCheck {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*CaseComplianceCheck, len(s.checks))
	copy(rows, s.checks)
	return rows
}

// TrackedAction is an open work item in the in-memory action tracker.
type TrackedAction struct {
	ID         string
	CaseID     string
	ActionType string
	DueDate    time.Time
	Notes      string
	Updates    int
}

// InMemoryActionStore implements ActionStore with upsert-by-(case, type)
// semantics.
type InMemoryActionStore struct {
	actions map[string]*TrackedAction
	mu      sync.RWMutex
}

// NewInMemoryActionStore creates a new in-memory action store.
func NewInMemoryActionStore() *InMemoryActionStore {
	return &InMemoryActionStore{actions: make(map[string]*TrackedAction)}
}

// Upsert opens or refreshes the work item for (caseID, actionType).
func (s *InMemoryActionStore) Upsert(caseID, actionType string, dueDate time.Time, notes string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := caseID + "/" + actionType
	if existing, ok := s.actions[key]; ok {
		existing.DueDate = dueDate
		existing.Notes = notes
		existing.Updates++
		return existing.ID, nil
	}

	action := &TrackedAction{
		ID:         uuid.NewString(),
		CaseID:     caseID,
		ActionType: actionType,
		DueDate:    dueDate,
		Notes:      notes,
	}
	s.actions[key] = action
	return action.ID, nil
}

// OpenForCase returns the open work items for a case.
func (s *InMemoryActionStore) OpenForCase(caseID string) []*TrackedAction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []*TrackedAction
	for _, action := range s.actions {
		if action.CaseID == caseID {
			open = append(open, action)
		}
	}
	return open
}
