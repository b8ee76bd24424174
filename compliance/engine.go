package compliance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/caseflow/compliance/internal/logger"
	"github.com/caseflow/compliance/internal/metrics"
)

// ErrCaseNotFound is returned when the case under evaluation does not exist.
// It is the engine's only hard identity failure.
var ErrCaseNotFound = errors.New("case not found")

// Engine orchestrates one compliance run per case: snapshot the active rule
// catalog, evaluate each rule in catalog order, open remediation actions for
// breaches, and append one audit row per rule.
type Engine struct {
	cases        CaseStore
	certificates CertificateStore
	rules        RuleStore
	checks       CheckStore
	actions      ActionStore
	cache        RulesCache
	collector    *metrics.Collector
	now          func() time.Time
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithClock overrides the engine's clock. Tests use this to pin the run
// timestamp.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches a Prometheus collector to the engine.
func WithMetrics(c *metrics.Collector) EngineOption {
	return func(e *Engine) { e.collector = c }
}

// WithRulesCache replaces the default in-memory rule catalog cache.
func WithRulesCache(c RulesCache) EngineOption {
	return func(e *Engine) { e.cache = c }
}

// NewEngine wires an engine from its store collaborators.
func NewEngine(cases CaseStore, certificates CertificateStore, rules RuleStore,
	checks CheckStore, actions ActionStore, opts ...EngineOption) *Engine {
	e := &Engine{
		cases:        cases,
		certificates: certificates,
		rules:        rules,
		checks:       checks,
		actions:      actions,
		cache:        NewInMemoryRulesCache(DefaultCacheConfig()),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InvalidateRules drops the cached rule catalog, forcing the next run to
// re-read the store. Callers invoke this after catalog mutations.
func (e *Engine) InvalidateRules() {
	e.cache.Invalidate()
}

// EvaluateCase runs every active rule against one case and returns the
// aggregate report. All audit rows written by a single run share one
// CheckedAt timestamp captured at run start. Case-not-found and check
// persistence failures propagate; a remediation action failure only degrades
// the affected row to actionCreated=false.
func (e *Engine) EvaluateCase(caseID string) (*CaseComplianceReport, error) {
	started := time.Now()

	c, err := e.cases.Get(caseID)
	if err != nil {
		return nil, fmt.Errorf("load case %s: %w", caseID, err)
	}

	activeRules := e.cache.Get()
	if activeRules == nil {
		activeRules, err = e.rules.ListActive()
		if err != nil {
			return nil, fmt.Errorf("load rule catalog: %w", err)
		}
		e.cache.Set(activeRules)
	}

	cert, err := e.certificates.LatestForCase(caseID)
	if err != nil {
		return nil, fmt.Errorf("load latest certificate for case %s: %w", caseID, err)
	}

	checkedAt := e.now().UTC()
	cc := &CaseContext{
		Case:              c,
		Clinical:          ParseClinicalStatus(c.ClinicalStatusJSON),
		LatestCertificate: cert,
		LastReviewedAt:    c.UpdatedAt,
		Now:               checkedAt,
	}

	report := &CaseComplianceReport{
		CaseID:      c.ID,
		WorkerName:  c.WorkerName,
		CompanyName: c.CompanyName,
		Checks:      make([]ComplianceCheckResult, 0, len(activeRules)),
		CheckedAt:   checkedAt,
	}

	var compliantCount, warningCount int
	for _, rule := range activeRules {
		result := EvaluatorFor(rule.Code)(cc, rule)
		report.Checks = append(report.Checks, result)
		e.collector.RecordCheck(result.Status.String())

		switch result.Status {
		case StatusCompliant:
			compliantCount++
		case StatusWarning:
			warningCount++
		case StatusNonCompliant:
			switch rule.Severity {
			case SeverityCritical:
				report.CriticalIssues++
			case SeverityHigh:
				report.HighIssues++
			case SeverityMedium:
				report.MediumIssues++
			default:
				report.LowIssues++
			}
		}

		var actionID string
		if result.Status == StatusNonCompliant && result.Recommendation != "" {
			actionID = e.createComplianceAction(c.ID, rule.Code, result.Finding, result.Recommendation)
		}

		check := &CaseComplianceCheck{
			ID:             uuid.NewString(),
			CaseID:         c.ID,
			RuleCode:       rule.Code,
			Status:         result.Status,
			CheckedAt:      checkedAt,
			Finding:        result.Finding,
			Recommendation: result.Recommendation,
			ActionID:       actionID,
			ActionCreated:  actionID != "",
		}
		if err := e.checks.Insert(check); err != nil {
			return nil, fmt.Errorf("persist check for case %s rule %s: %w", c.ID, rule.Code, err)
		}
	}

	if report.CriticalIssues > 0 || report.HighIssues > 0 {
		report.OverallStatus = StatusNonCompliant
	} else if warningCount > 0 || report.MediumIssues > 0 {
		report.OverallStatus = StatusWarning
	} else {
		report.OverallStatus = StatusCompliant
	}

	if len(activeRules) == 0 {
		report.ComplianceScore = 100
	} else {
		report.ComplianceScore = int(math.Round(100 * float64(compliantCount) / float64(len(activeRules))))
	}

	e.collector.RecordEvaluation(time.Since(started), report.ComplianceScore)
	logger.Info("case compliance evaluated",
		"case_id", c.ID,
		"overall_status", report.OverallStatus.String(),
		"score", report.ComplianceScore,
		"rules", len(activeRules),
		"critical", report.CriticalIssues,
		"high", report.HighIssues)

	return report, nil
}
