package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go-glassdoor-harvester/internal/record"

	"go.uber.org/zap"
)

// NotApplicable is the site's own phrase for a missing company attribute.
const NotApplicable = "Unknown / Non-Applicable"

var ErrPercentOutOfRange = errors.New("percent outside [0, 100]")

var (
	positiveNumberRegex = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	percentRegex        = regexp.MustCompile(`^(-?\d+(?:[.,]\d+)?)\s*%$`)
	whitespaceRegex     = regexp.MustCompile(`\s+`)
)

// IsNA reports whether a raw value means "not observed".
func IsNA(v record.Value) bool {
	switch v.Kind() {
	case record.KindNA:
		return true
	case record.KindList:
		return len(v.Strings()) == 0
	case record.KindText:
		s := strings.TrimSpace(v.Str())
		return s == "" || s == "N/A" || s == NotApplicable
	}
	return false
}

func NAStep() Step {
	return Step{Name: "na", Apply: func(rec *record.Record, _ *zap.Logger) error {
		rec.Each(func(_ string, v record.Value) record.Value {
			if IsNA(v) {
				return record.NA
			}
			return v
		})
		return nil
	}}
}

// SuffixStep removes token from field, e.g. "51 to 200 Employees" -> "51 to 200".
func SuffixStep(field, token string) Step {
	return Step{Name: "strip " + field, Apply: func(rec *record.Record, _ *zap.Logger) error {
		v, ok := rec.Get(field)
		if !ok || v.Kind() != record.KindText {
			return nil
		}
		stripped := strings.TrimSpace(strings.ReplaceAll(v.Str(), token, ""))
		if stripped == "" {
			rec.Set(field, record.NA)
			return nil
		}
		rec.Set(field, record.Text(stripped))
		return nil
	}}
}

// CompanyNameStep drops line breaks from the company name and the rating the
// site renders next to it.
func CompanyNameStep(nameField, ratingField string) Step {
	return Step{Name: "company name", Apply: func(rec *record.Record, _ *zap.Logger) error {
		v, ok := rec.Get(nameField)
		if !ok || v.Kind() != record.KindText {
			return nil
		}
		name := strings.NewReplacer("\n", " ", "\t", " ", "\r", " ").Replace(v.Str())

		if rating, ok := rec.Get(ratingField); ok && rating.Kind() == record.KindText {
			r := strings.TrimSpace(rating.Str())
			if r != "" {
				name = strings.ReplaceAll(name, strings.ReplaceAll(r, ",", "."), "")
				name = strings.ReplaceAll(name, strings.ReplaceAll(r, ".", ","), "")
			}
		}

		name = strings.TrimSpace(whitespaceRegex.ReplaceAllString(name, " "))
		if name == "" {
			rec.Set(nameField, record.NA)
			return nil
		}
		rec.Set(nameField, record.Text(name))
		return nil
	}}
}

// ParseNumber parses a positive number written with either decimal separator
// and returns it in dot-decimal form.
func ParseNumber(s string) (record.Value, bool) {
	s = strings.TrimSpace(s)
	if !positiveNumberRegex.MatchString(s) {
		return record.NA, false
	}
	v, err := record.Number(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return record.NA, false
	}
	return v, true
}

// ParsePercent turns "92%" or "12,5 %" into a fraction in [0, 1]. Values
// outside [0, 100] percent are rejected with ErrPercentOutOfRange.
func ParsePercent(s string) (float64, error) {
	m := percentRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("not a percent: %q", s)
	}
	p, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, err
	}
	if p < 0 || p > 100 {
		return 0, fmt.Errorf("%w: %q", ErrPercentOutOfRange, s)
	}
	return p / 100, nil
}

func NumericStep() Step {
	return Step{Name: "numeric", Apply: func(rec *record.Record, log *zap.Logger) error {
		rec.Each(func(name string, v record.Value) record.Value {
			if v.Kind() != record.KindText {
				return v
			}
			if n, ok := ParseNumber(v.Str()); ok {
				return n
			}
			if !percentRegex.MatchString(strings.TrimSpace(v.Str())) {
				return v
			}
			f, err := ParsePercent(v.Str())
			if err != nil {
				log.Warn("⚠️ percent value rejected", zap.String("field", name), zap.Error(err))
				return v
			}
			return record.Fraction(f)
		})
		return nil
	}}
}

// BoolStep marks field true when a value was observed for it.
func BoolStep(field string) Step {
	return Step{Name: "bool " + field, Apply: func(rec *record.Record, _ *zap.Logger) error {
		v, ok := rec.Get(field)
		if !ok || v.Kind() == record.KindBool {
			return nil
		}
		rec.Set(field, record.Bool(!v.IsNA()))
		return nil
	}}
}
