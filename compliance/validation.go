package compliance

import (
	"fmt"
	"regexp"
	"strings"
)

// ruleCodePattern: uppercase symbolic keys like CERT_CURRENT or RTW_PLAN_10WK.
var ruleCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

const (
	maxRuleCodeLength = 64
	maxRuleNameLength = 200
)

// ValidateRule validates a single catalog entry.
// Returns an error if validation fails, nil if the rule is valid.
func ValidateRule(rule *ComplianceRule) error {
	if rule.Code == "" {
		return fmt.Errorf("rule code cannot be empty")
	}
	if len(rule.Code) > maxRuleCodeLength {
		return fmt.Errorf("rule code %q exceeds %d characters", rule.Code, maxRuleCodeLength)
	}
	if !ruleCodePattern.MatchString(rule.Code) {
		return fmt.Errorf("invalid rule code %q: must be uppercase letters, digits and underscores, starting with a letter", rule.Code)
	}

	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("rule %s must have a name", rule.Code)
	}
	if len(rule.Name) > maxRuleNameLength {
		return fmt.Errorf("rule %s name exceeds %d characters", rule.Code, maxRuleNameLength)
	}

	if !rule.Severity.IsValid() {
		return fmt.Errorf("rule %s has invalid severity %q (must be one of: low, medium, high, critical)", rule.Code, rule.Severity)
	}

	for i, ref := range rule.DocumentReferences {
		if strings.TrimSpace(ref.Source) == "" {
			return fmt.Errorf("rule %s document reference %d has empty source", rule.Code, i)
		}
	}

	return nil
}

// ValidateCatalog validates a full catalog, including duplicate rule codes.
func ValidateCatalog(rules []*ComplianceRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("catalog cannot be empty, must contain at least one rule")
	}

	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			return err
		}
		if seen[rule.Code] {
			return fmt.Errorf("duplicate rule code %q in catalog", rule.Code)
		}
		seen[rule.Code] = true
	}

	return nil
}
