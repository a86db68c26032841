package report

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"primesum/internal/driver"
)

var summaryColumns = []struct {
	header  string
	numeric bool
}{
	{"base", true},
	{"outcome", false},
	{"violations", true},
	{"first prime", true},
	{"elapsed", true},
}

// summaryTable collects one row per base for the closing summary.
type summaryTable struct {
	rows [][]string
}

func (t *summaryTable) add(rec driver.Record) {
	first := "-"
	if len(rec.Outcome.Violations) > 0 {
		first = strconv.FormatInt(rec.Outcome.Violations[0].Prime, 10)
	}
	t.rows = append(t.rows, []string{
		strconv.FormatInt(rec.Base, 10),
		string(rec.Outcome.Kind),
		strconv.Itoa(len(rec.Outcome.Violations)),
		first,
		fmt.Sprintf("%.2fs", rec.ElapsedSeconds),
	})
}

// render draws the rows with a header rule and column separators only.
// Numeric columns are right-aligned. An empty table renders as "".
func (t *summaryTable) render(styles Styles) string {
	if len(t.rows) == 0 {
		return ""
	}

	headers := make([]string, len(summaryColumns))
	for i, col := range summaryColumns {
		headers[i] = col.header
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Muted).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers(headers...).
		Rows(t.rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := styles.Body
			if row == table.HeaderRow {
				s = styles.Bold
			}
			s = s.Padding(0, 1)
			if col < len(summaryColumns) && summaryColumns[col].numeric {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
	return tbl.Render() + "\n"
}
