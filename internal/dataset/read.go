package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoHeader is wrapped in a ParseError when the input has no header row.
var ErrNoHeader = errors.New("no header row")

// RawTable is parsed but uncleaned tabular input. Records are padded to the
// header width.
type RawTable struct {
	Name    string
	Header  []string
	Records [][]string
}

// Load reads a CSV/TSV/XLSX file from disk and returns the cleaned Dataset.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return LoadReader(f, filepath.Base(path))
}

// LoadReader parses r according to the extension of name and cleans the result.
func LoadReader(r io.Reader, name string) (*Dataset, error) {
	var (
		raw *RawTable
		err error
	)
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		raw, err = ReadXLSX(r, name, "")
	} else {
		raw, err = ReadCSV(r, name)
	}
	if err != nil {
		return nil, err
	}
	return Clean(raw), nil
}

// ReadCSV parses delimited text. The delimiter is picked from the header line
// among ',', ';' and tab; ragged rows are padded or cut to the header width.
func ReadCSV(r io.Reader, name string) (*RawTable, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	delim := sniffDelimiter(br, name)

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Source: name, Err: ErrNoHeader}
		}
		return nil, csvParseError(name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t := &RawTable{Name: name, Header: header}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, csvParseError(name, err)
		}
		t.Records = append(t.Records, fitWidth(rec, len(header)))
	}
	return t, nil
}

// ReadXLSX reads one sheet of a workbook; an empty sheet name selects the first.
func ReadXLSX(r io.Reader, name, sheet string) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Source: name, Err: err}
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &ParseError{Source: name, Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Source: name, Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Source: name, Err: ErrNoHeader}
	}
	t := &RawTable{Name: name, Header: rows[0]}
	for _, rec := range rows[1:] {
		t.Records = append(t.Records, fitWidth(rec, len(t.Header)))
	}
	return t, nil
}

func csvParseError(name string, err error) *ParseError {
	pe := &ParseError{Source: name, Err: err}
	var cerr *csv.ParseError
	if errors.As(err, &cerr) {
		pe.Line = cerr.Line
	}
	return pe
}

func fitWidth(rec []string, n int) []string {
	out := make([]string, n)
	copy(out, rec)
	return out
}

// sniffDelimiter inspects the first line without consuming it. A .tsv name
// forces tab, matching the analyzer's filename heuristic.
func sniffDelimiter(br *bufio.Reader, name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	peek, _ := br.Peek(br.Size())
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
