package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"sheetmatch/internal/state"
)

// ReadCSV parses a CSV table whose first record is the header. The
// delimiter is sniffed from the header line (comma or semicolon).
// Malformed records are skipped and counted.
func ReadCSV(r io.Reader) (*state.DataFrame, error) {
	br := bufio.NewReader(r)
	comma, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	df := &state.DataFrame{Headers: cleanHeaders(headers)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				df.Malformed++
				continue
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if blankRecord(record) {
			continue
		}

		row := make([]any, len(record))
		for i, v := range record {
			row[i] = cell(v)
		}
		df.Rows = append(df.Rows, row)
	}

	return df, nil
}

func sniffDelimiter(br *bufio.Reader) (rune, error) {
	line, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, err
	}
	header := string(line)
	if i := strings.IndexAny(header, "\r\n"); i >= 0 {
		header = header[:i]
	}
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';', nil
	}
	return ',', nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
