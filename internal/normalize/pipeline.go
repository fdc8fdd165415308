// Package normalize turns raw scraped text into typed, analysis-ready values.
package normalize

import (
	"fmt"

	"go-glassdoor-harvester/internal/record"
	"go-glassdoor-harvester/internal/schema"

	"go.uber.org/zap"
)

// Step is one pure transform over a whole record.
type Step struct {
	Name  string
	Apply func(rec *record.Record, log *zap.Logger) error
}

// Pipeline runs its steps strictly in order. The company name step expects
// the rating to still be text.
type Pipeline struct {
	steps []Step
	log   *zap.Logger
}

func New(log *zap.Logger, steps ...Step) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{steps: steps, log: log}
}

// Default is the Glassdoor pipeline.
func Default(log *zap.Logger) *Pipeline {
	return New(log,
		NAStep(),
		SuffixStep(schema.FieldEmployees, "Employees"),
		SuffixStep(schema.FieldRevenue, "(USD)"),
		CompanyNameStep(schema.FieldCompanyName, schema.FieldRating),
		NumericStep(),
		BoolStep(schema.FieldEasyApply),
		CompensationStep(schema.FieldSalary),
	)
}

func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Run normalizes rec in place.
func (p *Pipeline) Run(rec *record.Record) error {
	for _, s := range p.steps {
		if err := s.Apply(rec, p.log); err != nil {
			return fmt.Errorf("normalize step %q: %w", s.Name, err)
		}
	}
	return nil
}
