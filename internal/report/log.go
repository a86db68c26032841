package report

import (
	"go.uber.org/zap"

	"primesum/internal/driver"
)

// Log reports records as structured log entries.
type Log struct {
	logger *zap.Logger
}

// NewLog returns a reporter that writes to logger.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) Report(rec driver.Record) error {
	fields := []zap.Field{
		zap.Int64("base", rec.Base),
		zap.Int64("range_start", rec.RangeTested.Start),
		zap.Int64("range_end", rec.RangeTested.End),
		zap.Float64("elapsed_seconds", rec.ElapsedSeconds),
		zap.String("outcome", string(rec.Outcome.Kind)),
		zap.Int("violations", len(rec.Outcome.Violations)),
	}
	if len(rec.Outcome.Violations) > 0 {
		v := rec.Outcome.Violations[0]
		fields = append(fields, zap.Int64("first_prime", v.Prime), zap.Int64("first_digit_sum", v.DigitSum))
	}
	l.logger.Info("base result", fields...)
	return nil
}
