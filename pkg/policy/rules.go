package policy

import (
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v2"
)

// Rule is a custom bottleneck condition evaluated against a sample's metric
// map, e.g. "reads_per_sec + writes_per_sec > 500".
type Rule struct {
	// Name is the unique identifier for this rule
	Name string `yaml:"name"`

	// Condition is a boolean expression over metric names
	Condition string `yaml:"condition"`

	// Message is logged when the condition holds; defaults to the condition
	Message string `yaml:"message,omitempty"`
}

// RuleSet holds compiled custom rules loaded from a YAML file. Rules run in
// addition to the static threshold table, never instead of it.
type RuleSet struct {
	rules    []Rule
	programs map[string]*vm.Program
}

// LoadRules reads and compiles a rules file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules compiles rules from YAML bytes (useful for testing).
func ParseRules(data []byte) (*RuleSet, error) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules: %w", err)
	}

	rs := &RuleSet{
		rules:    doc.Rules,
		programs: make(map[string]*vm.Program, len(doc.Rules)),
	}
	for i, r := range doc.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule at index %d has no name", i)
		}
		if r.Condition == "" {
			return nil, fmt.Errorf("rule %s has no condition", r.Name)
		}

		program, err := expr.Compile(r.Condition, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("rule %s has invalid condition: %w", r.Name, err)
		}
		rs.programs[r.Name] = program
	}
	return rs, nil
}

// Len returns the number of loaded rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Evaluate runs every rule against the metric environment and returns the
// messages of the rules that fired, in declaration order. An evaluation error
// in one rule does not stop the others.
func (rs *RuleSet) Evaluate(env map[string]interface{}) (fired []string, errs []error) {
	if rs == nil {
		return nil, nil
	}
	for _, r := range rs.rules {
		out, err := expr.Run(rs.programs[r.Name], env)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", r.Name, err))
			continue
		}
		if out.(bool) {
			msg := r.Message
			if msg == "" {
				msg = r.Condition
			}
			fired = append(fired, fmt.Sprintf("%s: %s", r.Name, msg))
		}
	}
	return fired, errs
}
