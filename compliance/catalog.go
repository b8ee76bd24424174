package compliance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML document shape for a rule catalog.
type catalogFile struct {
	Rules []catalogRule `yaml:"rules"`
}

type catalogRule struct {
	Code              string              `yaml:"code"`
	Name              string              `yaml:"name"`
	Severity          string              `yaml:"severity"`
	RecommendedAction string              `yaml:"recommended_action"`
	References        []DocumentReference `yaml:"references"`
	Active            *bool               `yaml:"active"`
}

// LoadCatalog reads and validates a rule catalog from a YAML file. Rules
// default to active unless the file says otherwise.
func LoadCatalog(path string) ([]*ComplianceRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	rules := make([]*ComplianceRule, 0, len(file.Rules))
	for _, cr := range file.Rules {
		active := true
		if cr.Active != nil {
			active = *cr.Active
		}
		rules = append(rules, &ComplianceRule{
			Code:               cr.Code,
			Name:               cr.Name,
			Severity:           Severity(cr.Severity),
			RecommendedAction:  cr.RecommendedAction,
			DocumentReferences: cr.References,
			Active:             active,
		})
	}

	if err := ValidateCatalog(rules); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return rules, nil
}

// SeedCatalog writes a catalog into a rule store, updating rules that already
// exist. Catalog order is preserved by insertion order.
func SeedCatalog(store RuleStore, rules []*ComplianceRule) error {
	for _, rule := range rules {
		if err := store.Add(rule); err != nil {
			if updateErr := store.Update(rule); updateErr != nil {
				return fmt.Errorf("failed to seed rule %s: %w", rule.Code, updateErr)
			}
		}
	}
	return nil
}

// DefaultCatalog returns the seven-rule regulatory catalog the engine ships
// with. Administrators normally maintain the catalog in the database; this is
// the seed set and the fixture used by tests.
func DefaultCatalog() []*ComplianceRule {
	return []*ComplianceRule{
		{
			Code:              RuleCertCurrent,
			Name:              "Certificate of capacity is current",
			Severity:          SeverityCritical,
			RecommendedAction: "Obtain a current certificate of capacity from the treating practitioner",
			DocumentReferences: []DocumentReference{
				{Source: "Workers Compensation and Injury Management Act", Section: "s. 80"},
				{Source: "Claims Management Guideline", Section: "4.2"},
			},
			Active: true,
		},
		{
			Code:              RuleRTWPlan10Wk,
			Name:              "Return to work plan established by week 10",
			Severity:          SeverityHigh,
			RecommendedAction: "Establish a return to work plan with the worker and employer",
			DocumentReferences: []DocumentReference{
				{Source: "Workers Compensation and Injury Management Act", Section: "s. 156"},
			},
			Active: true,
		},
		{
			Code:              RuleFileReview8Wk,
			Name:              "Case file reviewed every 8 weeks",
			Severity:          SeverityMedium,
			RecommendedAction: "Complete a full case file review and record the outcome",
			DocumentReferences: []DocumentReference{
				{Source: "Claims Management Guideline", Section: "2.5"},
			},
			Active: true,
		},
		{
			Code:              RulePaymentStepdown,
			Name:              "Payment step-down applied after week 13",
			Severity:          SeverityMedium,
			RecommendedAction: "Verify the step-down rate has been applied and the worker notified",
			DocumentReferences: []DocumentReference{
				{Source: "Workers Compensation and Injury Management Act", Section: "Sch. 1 cl. 7"},
			},
			Active: true,
		},
		{
			Code:              RuleCentrelinkClearance,
			Name:              "Centrelink clearance obtained",
			Severity:          SeverityHigh,
			RecommendedAction: "Request a Centrelink clearance before releasing further payments",
			DocumentReferences: []DocumentReference{
				{Source: "Social Security Act", Section: "s. 1184"},
			},
			Active: true,
		},
		{
			Code:              RuleSuitableDuties,
			Name:              "Suitable duties offered to worker with capacity",
			Severity:          SeverityHigh,
			RecommendedAction: "Work with the employer to identify duties matching the certified capacity",
			DocumentReferences: []DocumentReference{
				{Source: "Workers Compensation and Injury Management Act", Section: "s. 84AA"},
			},
			Active: true,
		},
		{
			Code:              RuleRTWObligations,
			Name:              "Parties cooperating in the return to work process",
			Severity:          SeverityMedium,
			RecommendedAction: "Contact the worker and employer to re-engage the return to work process",
			DocumentReferences: []DocumentReference{
				{Source: "Injury Management Code of Practice", Section: "3.1"},
			},
			Active: true,
		},
	}
}
