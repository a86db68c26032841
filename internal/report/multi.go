package report

import (
	"errors"

	"primesum/internal/driver"
)

// Multi fans records out to several reporters. Every member is called even
// when an earlier one fails; the errors are joined.
type Multi []driver.Reporter

func (m Multi) Start(s driver.Summary) error {
	var errs []error
	for _, r := range m {
		if sr, ok := r.(driver.StartReporter); ok {
			errs = append(errs, sr.Start(s))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Report(rec driver.Record) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Report(rec))
	}
	return errors.Join(errs...)
}

func (m Multi) Summary(s driver.Summary) error {
	var errs []error
	for _, r := range m {
		if sr, ok := r.(driver.SummaryReporter); ok {
			errs = append(errs, sr.Summary(s))
		}
	}
	return errors.Join(errs...)
}
