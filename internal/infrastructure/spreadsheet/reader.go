// Package spreadsheet reads and writes the tabular files of the order
// table: CSV uploads of serial numbers and CSV/XLSX exports.
package spreadsheet

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/orderdesk/backend/internal/domain/order"
)

var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoSerials is returned when no data row carries a serial number
	ErrNoSerials = errors.New("CSV file contains no serial numbers")
)

// serialColumns are the header names, lowercased, that hold serial numbers.
var serialColumns = []string{"serialnumber", "serial number", "serial_number", "serial", "sn"}

// Parser reads CSV rows with BOM stripping and UTF-8 validation.
type Parser struct {
	delimiter rune
	headers   []string
	headerMap map[string]int
	line      int
	reader    *csv.Reader
}

// ParserOption is a functional option for Parser configuration
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// NewParser creates a parser from r. The content must be non-empty UTF-8.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		delimiter: ',',
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	buf := bufio.NewReader(r)
	bom, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	const checkSize = 4096
	head, err := buf.Peek(checkSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(strings.TrimSpace(string(head))) == 0 {
		return nil, ErrEmptyFile
	}
	if !validPrefix(head, len(head) == checkSize) {
		return nil, ErrInvalidEncoding
	}

	p.reader = csv.NewReader(buf)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// validPrefix reports whether b is UTF-8, allowing a rune cut off at the end
// of a truncated peek.
func validPrefix(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !truncated {
		return false
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}

// ParseHeader reads the header row
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	p.line++
	p.setHeader(record)
	return nil
}

func (p *Parser) setHeader(record []string) {
	p.headers = make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		p.headers[i] = h
		key := strings.ToLower(h)
		if _, seen := p.headerMap[key]; !seen {
			p.headerMap[key] = i
		}
	}
}

// looksLikeHeader reports whether the first row of an upload is a header:
// it names a serial column, or it has several cells and none carries a digit.
func looksLikeHeader(record []string) bool {
	for _, cell := range record {
		if isSerialColumn(cell) {
			return true
		}
	}
	if len(record) < 2 {
		return false
	}
	for _, cell := range record {
		if strings.ContainsAny(cell, "0123456789") {
			return false
		}
	}
	return true
}

func isSerialColumn(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range serialColumns {
		if name == c {
			return true
		}
	}
	return false
}

// Headers returns the header row
func (p *Parser) Headers() []string {
	return p.headers
}

// ColumnIndex returns the index of a header, ignoring case
func (p *Parser) ColumnIndex(name string) (int, bool) {
	idx, ok := p.headerMap[strings.ToLower(strings.TrimSpace(name))]
	return idx, ok
}

// ReadRow returns the next record, or io.EOF
func (p *Parser) ReadRow() ([]string, error) {
	record, err := p.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("line %d: %w", p.line+1, err)
	}
	p.line++
	return record, nil
}

// Line returns the number of lines read so far
func (p *Parser) Line() int {
	return p.line
}

// ReadSerials extracts serial numbers from an uploaded CSV. The first row is
// treated as a header only when it looks like one; serials come from the
// first serial-like column, or column 0 when none is named. Blank cells are
// skipped and duplicates dropped.
func ReadSerials(r io.Reader) ([]string, error) {
	p, err := NewParser(r)
	if err != nil {
		return nil, err
	}
	first, err := p.ReadRow()
	if err == io.EOF {
		return nil, ErrNoSerials
	}
	if err != nil {
		return nil, err
	}

	col := 0
	var values []string
	if looksLikeHeader(first) {
		p.setHeader(first)
		for _, name := range serialColumns {
			if idx, ok := p.ColumnIndex(name); ok {
				col = idx
				break
			}
		}
	} else {
		values = append(values, first[0])
	}

	for {
		record, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col < len(record) {
			values = append(values, record[col])
		}
	}

	serials := order.DedupeSerials(values)
	if len(serials) == 0 {
		return nil, ErrNoSerials
	}
	return serials, nil
}
