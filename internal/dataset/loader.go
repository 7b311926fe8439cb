package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Source describes where a table lives.
type Source struct {
	Path string

	// Table selects the table inside a SQLite database. It may be empty
	// when the database holds exactly one table.
	Table string

	// Delimiter forces the CSV separator. Zero sniffs it from the header.
	Delimiter rune
}

// Loader reads a Source into a Table.
type Loader struct {
	source Source
}

// NewLoader creates a new dataset loader
func NewLoader(source Source) *Loader {
	return &Loader{
		source: source,
	}
}

// Load reads every row of the source.
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	return l.load(ctx, 0)
}

// LoadSample reads at most limit rows (useful for inspection). A
// non-positive limit reads everything.
func (l *Loader) LoadSample(ctx context.Context, limit int) (*Table, error) {
	return l.load(ctx, limit)
}

func (l *Loader) load(ctx context.Context, limit int) (*Table, error) {
	format, err := DetectFormat(l.source.Path)
	if err != nil {
		return nil, err
	}

	var t *Table
	switch format {
	case FormatCSV:
		t, err = l.loadCSV(limit)
	case FormatJSONL:
		t, err = l.loadJSONL(limit)
	case FormatParquet:
		t, err = l.loadParquet(limit)
	case FormatSQLite:
		t, err = l.loadSQLite(ctx, limit)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Dataset loaded", "path", l.source.Path, "format", format, "rows", t.Len(), "columns", len(t.Columns))

	return t, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// loadCSV loads a delimited text file, sniffing the delimiter from the header line
func (l *Loader) loadCSV(limit int) (*Table, error) {
	file, err := os.Open(l.source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	br := bufio.NewReaderSize(file, 64*1024)
	if bom, _ := br.Peek(len(utf8BOM)); bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	delimiter := l.source.Delimiter
	if delimiter == 0 {
		head, _ := br.Peek(64 * 1024)
		delimiter = SniffDelimiter(head)
		slog.Debug("Sniffed CSV delimiter", "path", l.source.Path, "delimiter", string(delimiter))
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset file %s is empty", l.source.Path)
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t := &Table{Columns: header}
	for limit <= 0 || t.Len() < limit {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// SniffDelimiter picks the candidate delimiter occurring most often outside
// quotes in the first line of head. Ties and empty input fall back to ','.
func SniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range string(head) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}

	return best
}

// loadJSONL loads records from a JSONL file, keeping keys in first-seen order
func (l *Loader) loadJSONL(limit int) (*Table, error) {
	file, err := os.Open(l.source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	// Increase buffer size for large JSON lines
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	t := &Table{}
	index := make(map[string]int)
	literal := make(map[string]bool)
	quoted := make(map[string]bool)

	lineNum := 0
	for scanner.Scan() && (limit <= 0 || t.Len() < limit) {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		keys, values, strs, err := decodeObject(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		row := make([]string, len(t.Columns))
		for i, key := range keys {
			col, ok := index[key]
			if !ok {
				col = len(t.Columns)
				index[key] = col
				t.Columns = append(t.Columns, key)
				row = append(row, "")
			}
			row[col] = values[i]
			if values[i] == "" {
				continue
			}
			if strs[i] {
				quoted[key] = true
			} else {
				literal[key] = true
			}
		}
		t.Rows = append(t.Rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	// a column keeps its literal kind only when no row held a string
	for key := range literal {
		if quoted[key] {
			continue
		}
		if t.Literal == nil {
			t.Literal = make(map[string]bool)
		}
		t.Literal[key] = true
	}

	return t, nil
}

// decodeObject decodes one flat JSON object. Strings are unquoted, null
// becomes "", and nested values keep their JSON text. strs reports which
// values were JSON strings.
func decodeObject(line []byte) (keys, values []string, strs []bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, nil, fmt.Errorf("expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, nil, fmt.Errorf("value of %q: %w", key, err)
		}

		keys = append(keys, key)
		values = append(values, rawToString(raw))
		strs = append(strs, isJSONString(raw))
	}

	return keys, values, strs, nil
}

func rawToString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}

	return string(raw)
}

func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}
