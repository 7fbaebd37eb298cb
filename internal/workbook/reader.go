// Package workbook reads the first sheet of an uploaded spreadsheet as a header row
// followed by a forward-only sequence of raw records.
package workbook

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/rpattn/munimport/internal/domain"
)

var (
	// ErrUnreadableFile is returned when the payload is not a supported spreadsheet.
	ErrUnreadableFile = errors.New("unreadable spreadsheet")
	// ErrConsumed is returned by Next once the sequence has been exhausted.
	ErrConsumed = errors.New("sheet records already consumed")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
	zipSignature  = []byte{'P', 'K', 0x03, 0x04}
	oleSignature  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// rowSource yields raw string cells row by row and io.EOF at the end.
type rowSource interface {
	next() ([]string, error)
	close() error
}

// Sheet is the first worksheet of a workbook.
type Sheet struct {
	Name string

	headers  []string
	keys     []string
	src      rowSource
	numeric  bool
	consumed bool
}

// Open parses payload according to the file extension, sniffing the content when the
// extension is missing or unknown.
func Open(fileName string, payload []byte) (*Sheet, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrUnreadableFile)
	}

	var (
		src     rowSource
		name    string
		numeric bool
		err     error
	)
	switch format := detectFormat(fileName, payload); format {
	case "xlsx":
		src, name, err = openExcel(payload)
		numeric = true
	case "xls":
		src, name, err = openLegacyExcel(payload)
	case "csv":
		src, name, err = openCSV(fileName, payload)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrUnreadableFile, filepath.Ext(fileName))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	sheet := &Sheet{Name: name, src: src, numeric: numeric}
	if err := sheet.readHeader(); err != nil {
		_ = src.close()
		return nil, err
	}
	return sheet, nil
}

// Headers returns the header labels exactly as they appeared, blanks included.
func (s *Sheet) Headers() []string {
	return append([]string(nil), s.headers...)
}

// Keys returns the record keys derived from the headers: blank labels become
// column_<n> and repeated labels get a _<k> suffix.
func (s *Sheet) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Next returns the next non-empty record, io.EOF after the last one and ErrConsumed
// on any call after that.
func (s *Sheet) Next() (domain.RawRecord, error) {
	if s.consumed {
		return nil, ErrConsumed
	}
	for {
		row, err := s.src.next()
		if errors.Is(err, io.EOF) {
			s.consumed = true
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		if isBlankRow(row) {
			continue
		}
		return s.record(row), nil
	}
}

// ReadAll drains the remaining records.
func (s *Sheet) ReadAll() ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	for {
		rec, err := s.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Close releases the underlying workbook.
func (s *Sheet) Close() error {
	if s.src == nil {
		return nil
	}
	return s.src.close()
}

func (s *Sheet) readHeader() error {
	for {
		row, err := s.src.next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: no header row found", ErrUnreadableFile)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		if isBlankRow(row) {
			continue
		}
		s.headers = make([]string, len(row))
		for i, cell := range row {
			s.headers[i] = strings.TrimSpace(cell)
		}
		s.keys = recordKeys(s.headers)
		return nil
	}
}

func (s *Sheet) record(row []string) domain.RawRecord {
	rec := make(domain.RawRecord, len(s.keys))
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		key := positionalKey(i)
		if i < len(s.keys) {
			key = s.keys[i]
		}
		rec[key] = s.cellValue(cell)
	}
	return rec
}

func (s *Sheet) cellValue(cell string) any {
	if !s.numeric {
		return cell
	}
	if hasLeadingZero(cell) {
		return cell
	}
	if f, ok := numericCell(cell); ok {
		return f
	}
	return cell
}

// numericCell accepts finite decimal numbers only, so text such as "Infinity",
// "NaN" or "0x1F" stays a string.
func numericCell(cell string) (float64, bool) {
	switch c := cell[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '.':
	default:
		return 0, false
	}
	if strings.ContainsAny(cell, "xXpP_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func recordKeys(headers []string) []string {
	keys := make([]string, len(headers))
	seen := make(map[string]int)
	for idx, label := range headers {
		base := label
		if base == "" {
			base = positionalKey(idx)
		}
		name := base
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1
		keys[idx] = name
	}
	return keys
}

func positionalKey(idx int) string {
	return fmt.Sprintf("column_%d", idx+1)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// hasLeadingZero keeps codes such as "00123" as text.
func hasLeadingZero(cell string) bool {
	return len(cell) > 1 && cell[0] == '0' && cell[1] != '.'
}

func detectFormat(fileName string, payload []byte) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".xls":
		if bytes.HasPrefix(payload, zipSignature) {
			return "xlsx"
		}
		return "xls"
	case ".csv", ".txt":
		return "csv"
	}
	switch {
	case bytes.HasPrefix(payload, zipSignature):
		return "xlsx"
	case bytes.HasPrefix(payload, oleSignature):
		return "xls"
	}
	return ""
}

type excelRows struct {
	file *excelize.File
	rows *excelize.Rows
}

func openExcel(payload []byte) (rowSource, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open xlsx: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, "", errors.New("excel file has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return &excelRows{file: f, rows: rows}, sheets[0], nil
}

func (e *excelRows) next() ([]string, error) {
	if !e.rows.Next() {
		if err := e.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return e.rows.Columns(excelize.Options{RawCellValue: true})
}

func (e *excelRows) close() error {
	rowsErr := e.rows.Close()
	fileErr := e.file.Close()
	return errors.Join(rowsErr, fileErr)
}

type sliceRows struct {
	rows [][]string
	pos  int
}

func (s *sliceRows) next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

func (s *sliceRows) close() error { return nil }

func openLegacyExcel(payload []byte) (rowSource, string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open xls: %w", err)
	}
	sheets := wb.GetSheets()
	if len(sheets) == 0 {
		return nil, "", errors.New("xls file has no sheets")
	}
	sheet := sheets[0]
	var rows [][]string
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, cell := range row.GetCols() {
			cells = append(cells, cell.GetString())
		}
		rows = append(rows, cells)
	}
	return &sliceRows{rows: rows}, sheet.GetName(), nil
}

type csvRows struct {
	reader *csv.Reader
}

func (c *csvRows) next() ([]string, error) {
	return c.reader.Read()
}

func (c *csvRows) close() error { return nil }

func openCSV(fileName string, payload []byte) (rowSource, string, error) {
	payload = bytes.TrimPrefix(payload, byteOrderMark)

	var src io.Reader = bytes.NewReader(payload)
	if !utf8.Valid(payload) {
		// Hebrew Excel installs export CSV in Windows-1255.
		src = transform.NewReader(src, charmap.Windows1255.NewDecoder())
	}

	reader := csv.NewReader(bufio.NewReader(src))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return &csvRows{reader: reader}, name, nil
}
