package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadJSONL reads one JSON object per line into a table. Blank lines
// are skipped.
func LoadJSONL(r io.Reader) (*Table, error) {
	var rows []Row

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row Row
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("dataset: jsonl line %d: %w", lineNo, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read jsonl: %w", err)
	}
	return FromRows(rows), nil
}

// SaveJSONL writes the table as one JSON object per line.
func (t *Table) SaveJSONL(w io.Writer) error {
	enc := json.NewEncoder(w)
	for i, row := range t.rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("dataset: write jsonl row %d: %w", i, err)
		}
	}
	return nil
}

// LoadCSV reads a headered CSV into a table of string cells.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read csv header: %w", err)
	}

	t := NewTable(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read csv: %w", err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		t.Append(row)
	}
	return t, nil
}

// SaveCSV writes the table as headered CSV. Non-string cells go
// through fmt.Sprint.
func (t *Table) SaveCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("dataset: write csv header: %w", err)
	}
	record := make([]string, len(t.columns))
	for i, row := range t.rows {
		for j, col := range t.columns {
			v := row[col]
			if v == nil {
				record[j] = ""
				continue
			}
			if s, ok := v.(string); ok {
				record[j] = s
				continue
			}
			record[j] = fmt.Sprint(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("dataset: write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadFile loads a table from path, picking the format by extension
// (.jsonl or .csv).
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".jsonl"):
		return LoadJSONL(f)
	case strings.HasSuffix(path, ".csv"):
		return LoadCSV(f)
	default:
		return nil, fmt.Errorf("dataset: unsupported file format %s (want .jsonl or .csv)", path)
	}
}

// SaveFile writes the table to path, picking the format by extension.
func (t *Table) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".jsonl"):
		return t.SaveJSONL(f)
	case strings.HasSuffix(path, ".csv"):
		return t.SaveCSV(f)
	default:
		return fmt.Errorf("dataset: unsupported file format %s (want .jsonl or .csv)", path)
	}
}
