package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go-glassdoor-harvester/internal/record"
	"go-glassdoor-harvester/internal/schema"

	"go.uber.org/zap"
)

const (
	employerProvidedMarker = "Employer Provided Salary"
	estimateMarker         = "Glassdoor est"
)

// "$200K - $300K", "CA$51K - CA$81K", "€45,000 - €60,000"
var payRangeRegex = regexp.MustCompile(`[A-Z]{0,3}\p{Sc}\s?\d[\d,]*[Kk]? - [A-Z]{0,3}\p{Sc}\s?\d[\d,]*[Kk]?`)

// Compensation is a decomposed salary string.
type Compensation struct {
	Low      record.Value
	High     record.Value
	Currency record.Value
	Provided record.Value
}

func (c Compensation) fields() []record.Field {
	return []record.Field{
		{Name: schema.FieldSalaryLow, Value: c.Low},
		{Name: schema.FieldSalaryHigh, Value: c.High},
		{Name: schema.FieldCurrency, Value: c.Currency},
		{Name: schema.FieldSalaryProvided, Value: c.Provided},
	}
}

// ParseCompensation decomposes a salary string. Amounts and currency are NA
// when no range is present; provenance is derived from the marker phrases
// regardless.
func ParseCompensation(salary string) Compensation {
	c := Compensation{Provided: provenance(salary)}

	payRange := payRangeRegex.FindString(salary)
	if payRange == "" {
		return c
	}
	low, high, ok := strings.Cut(payRange, " - ")
	if !ok {
		return c
	}
	lowAmount, err := parseAmount(low)
	if err != nil {
		return c
	}
	highAmount, err := parseAmount(high)
	if err != nil {
		return c
	}

	c.Low = record.Int(lowAmount)
	c.High = record.Int(highAmount)
	if i := strings.IndexAny(payRange, "0123456789"); i > 0 {
		if currency := strings.TrimSpace(payRange[:i]); currency != "" {
			c.Currency = record.Text(currency)
		}
	}
	return c
}

func provenance(salary string) record.Value {
	switch {
	case strings.Contains(salary, employerProvidedMarker):
		return record.Bool(true)
	case strings.Contains(salary, estimateMarker):
		return record.Bool(false)
	}
	return record.NA
}

func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	multiplier := int64(1)
	if strings.HasSuffix(s, "K") || strings.HasSuffix(s, "k") {
		multiplier = 1000
	}

	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return n * multiplier, nil
}

// CompensationStep replaces field with its four decomposed columns at the
// same position.
func CompensationStep(field string) Step {
	return Step{Name: "compensation", Apply: func(rec *record.Record, log *zap.Logger) error {
		v, ok := rec.Get(field)
		if !ok {
			return fmt.Errorf("field %q missing", field)
		}

		var c Compensation
		if !v.IsNA() {
			c = ParseCompensation(v.Str())
			if c.Low.IsNA() {
				log.Debug("no pay range in salary", zap.String("salary", v.Str()))
			}
		}
		return rec.Replace(field, c.fields())
	}}
}
