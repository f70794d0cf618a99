package shared

import (
	"bufio"
	"io"
	"iter"
	"regexp"
	"strings"
	"time"
)

// Column is one CSV column. Quoted columns are always wrapped in double quotes.
type Column[R any] struct {
	Header string
	Value  func(R) string
	Quoted bool
}

// DocField is one "Label: value" line of a record document.
type DocField[R any] struct {
	Label string
	Value func(R) string
}

// WriteCSV writes the header row and one row per record, rows separated by
// "\n". Quoted values have embedded quotes doubled.
func WriteCSV[R any](w io.Writer, columns []Column[R], records iter.Seq[R]) error {
	bw := bufio.NewWriter(w)
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}
	if _, err := bw.WriteString(strings.Join(headers, ",")); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for r := range records {
		for i, col := range columns {
			v := col.Value(r)
			if col.Quoted {
				v = quoteField(v)
			}
			row[i] = v
		}
		if _, err := bw.WriteString("\n" + strings.Join(row, ",")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func quoteField(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// WriteDocument writes the plain-text document of one record.
func WriteDocument[R any](w io.Writer, fields []DocField[R], r R) error {
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = f.Label + ": " + f.Value(r)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// whitespaceRun covers Unicode spaces and BOM as well as ASCII whitespace.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)

// DocumentFilename derives the download name of a record document.
func DocumentFilename(name string) string {
	return whitespaceRun.ReplaceAllString(name, "_") + "_details.doc"
}

// CSVFilename derives the download name of a section export.
func CSVFilename(section string, now time.Time) string {
	return section + "_" + now.Format("2006-01-02") + ".csv"
}
