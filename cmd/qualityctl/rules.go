package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/rules"
)

// errInvalidRules is returned when a rule file holds at least one invalid rule.
var errInvalidRules = errors.New("rule file has invalid rules")

// ruleFile is the YAML layout accepted by "rules validate".
type ruleFile struct {
	Rules []domain.QualityRule `yaml:"rules"`
}

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate quality rules",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate <rules.yml>",
			Short: "Validate a YAML rule file against the field registry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read rule file: %w", err)
				}
				return validateRuleFile(cmd.OutOrStdout(), data)
			},
		},
		&cobra.Command{
			Use:   "defaults",
			Short: "Print the default rule pack as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer func() { _ = enc.Close() }()
				return enc.Encode(ruleFile{Rules: rules.DefaultRules()})
			},
		},
		&cobra.Command{
			Use:   "fields",
			Short: "List the fields rule conditions may reference",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				for _, f := range rules.NewFieldRegistry().Fields() {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), f); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)
	return cmd
}

func validateRuleFile(w io.Writer, data []byte) error {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse rule file: %w", err)
	}
	if len(file.Rules) == 0 {
		return fmt.Errorf("%w: no rules found", errInvalidRules)
	}

	registry := rules.NewFieldRegistry()
	invalid := 0
	for i := range file.Rules {
		rule := &file.Rules[i]
		if rule.RuleType == "" {
			rule.RuleType = domain.RuleTypeCondition
		}
		if err := rules.ValidateRule(rule, registry); err != nil {
			invalid++
			_, _ = fmt.Fprintf(w, "INVALID\t%s\n", err)
			continue
		}
		_, _ = fmt.Fprintf(w, "OK\t%s\n", rule.Name)
	}

	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidRules, invalid, len(file.Rules))
	}
	return nil
}
