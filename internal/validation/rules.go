package validation

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules carries the tunable thresholds for math validation and the review
// policy. Zero values fall back to the defaults, so a rules file only needs
// to state what it changes.
type Rules struct {
	// AmountTolerance is the allowed rounding slack, in currency units, when
	// comparing calculated against stated amounts.
	AmountTolerance float64 `yaml:"amountTolerance"`
	// AutoApproveThreshold is the minimum blended confidence for
	// AUTO_APPROVED.
	AutoApproveThreshold float64 `yaml:"autoApproveThreshold"`
	// VerifyThreshold is the minimum blended confidence for
	// APPROVED_WITH_VERIFICATION.
	VerifyThreshold float64 `yaml:"verifyThreshold"`
}

// DefaultRules returns the accounting defaults: one cent of rounding slack,
// auto-approve at 0.95, approve-with-verification at 0.85.
func DefaultRules() Rules {
	return Rules{
		AmountTolerance:      0.01,
		AutoApproveThreshold: 0.95,
		VerifyThreshold:      0.85,
	}
}

// LoadRules reads a YAML rules file, filling unset fields with defaults.
func LoadRules(filePath string) (Rules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return DefaultRules(), err
	}
	defer file.Close()

	return LoadRulesFromReader(file)
}

// LoadRulesFromReader parses rules from an io.Reader.
func LoadRulesFromReader(r io.Reader) (Rules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return DefaultRules(), err
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return DefaultRules(), err
	}

	defaults := DefaultRules()
	if rules.AmountTolerance == 0 {
		rules.AmountTolerance = defaults.AmountTolerance
	}
	if rules.AutoApproveThreshold == 0 {
		rules.AutoApproveThreshold = defaults.AutoApproveThreshold
	}
	if rules.VerifyThreshold == 0 {
		rules.VerifyThreshold = defaults.VerifyThreshold
	}
	return rules, nil
}
