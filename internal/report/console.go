// Package report implements the reporting collaborators the driver hands
// per-base records to: a styled console view, JSON lines, structured logs,
// and a fan-out that isolates failures between them.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"primesum/internal/driver"
)

// maxTableRows bounds the summary table; larger sweeps list only the bases
// that produced violations.
const maxTableRows = 50

const rule = "--------------------------------------------------"

// Console prints human-readable progress to a writer.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	styles Styles
}

// NewConsole returns a console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, styles: NewStyles(w)}
}

// errWriter remembers the first write error so callers can print a block
// of lines and check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Start prints the run banner.
func (c *Console) Start(s driver.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ew := &errWriter{w: c.w}
	ew.printf("%s\n", c.styles.Title.Render("🚀 Starting conjecture test"))
	ew.printf(" -> Prime range: from %d to %d\n", s.Range.Start, s.Range.End)
	ew.printf(" -> Bases: %s\n", describeBases(s.Bases))
	ew.printf(" -> Policy: %s\n\n", s.Policy)
	return ew.err
}

// Report prints one base's outcome.
func (c *Console) Report(rec driver.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ew := &errWriter{w: c.w}
	for _, v := range rec.Outcome.Violations {
		ew.printf("%s\n", c.styles.Muted.Render(rule))
		ew.printf("%s\n", c.styles.Error.Render(fmt.Sprintf("❗ VIOLATION FOUND IN BASE %d", v.Base)))
		ew.printf("Prime (p)          : %d\n", v.Prime)
		ew.printf("Digit Sum (S_%d)%s: %d\n", v.Base, pad(v.Base), v.DigitSum)
		ew.printf(" -> S_%d(%d) = %d is NOT 1, NOT prime, and NOT a semiprime.\n", v.Base, v.Prime, v.DigitSum)
		ew.printf("%s\n", c.styles.Muted.Render(rule))
	}

	if rec.Outcome.Kind == driver.NoViolation {
		ew.printf("%s\n", c.styles.Success.Render(fmt.Sprintf(
			"✅ No violations found for base %d in range %d to %d.",
			rec.Base, rec.RangeTested.Start, rec.RangeTested.End)))
	} else {
		ew.printf("%s\n", c.styles.Error.Render(fmt.Sprintf(
			"❌ Found %d violation(s) in base %d.", len(rec.Outcome.Violations), rec.Base)))
	}
	ew.printf("%s\n", c.styles.Muted.Render(fmt.Sprintf(
		"   (Verification for base %d took %.2fs, %d primes)", rec.Base, rec.ElapsedSeconds, rec.Primes)))
	return ew.err
}

// Summary prints the closing totals and a per-base table.
func (c *Console) Summary(s driver.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ew := &errWriter{w: c.w}
	ew.printf("\n%s\n", c.styles.Title.Render(fmt.Sprintf(
		"🏁 Test complete in %.2f seconds.", s.Elapsed.Seconds())))
	ew.printf("Total bases with violations: %d of %d\n", s.BasesWithViolations, s.BasesTested)

	var tbl summaryTable
	listAll := len(s.Records) <= maxTableRows
	for _, rec := range s.Records {
		if !listAll && rec.Outcome.Kind == driver.NoViolation {
			continue
		}
		tbl.add(rec)
	}
	if view := tbl.render(c.styles); view != "" {
		ew.printf("\n%s", view)
	}
	return ew.err
}

func pad(base int64) string {
	width := len("Prime (p)          ") - len(fmt.Sprintf("Digit Sum (S_%d)", base))
	if width < 1 {
		width = 1
	}
	return strings.Repeat(" ", width)
}

func describeBases(bases []int64) string {
	if len(bases) <= 10 {
		parts := make([]string, len(bases))
		for i, b := range bases {
			parts[i] = strconv.FormatInt(b, 10)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%d bases from %d to %d", len(bases), bases[0], bases[len(bases)-1])
}
