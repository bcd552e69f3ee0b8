// Package dataset serializes generated QA records to disk and reads them back.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/core"
)

// Writer persists a run's records to a single output file.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write serializes records to path in the given format ("json" for a single
// JSON array, "jsonl" for one object per line). The file is written to a
// temporary sibling first and renamed into place so readers never observe a
// partial dataset. An empty record set produces a valid empty dataset.
func (w *Writer) Write(path, format string, records []core.QARecord) error {
	if records == nil {
		records = []core.QARecord{}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	data, err := encode(format, records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".qa-forge-*")
	if err != nil {
		return fmt.Errorf("failed to create temp output file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close dataset file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set dataset permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}

	w.logger.Info("dataset written", "path", path, "format", format, "records", len(records))
	return nil
}

func encode(format string, records []core.QARecord) ([]byte, error) {
	switch format {
	case config.FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal records: %w", err)
		}
		return append(data, '\n'), nil
	case config.FormatJSONL:
		var sb strings.Builder
		for _, rec := range records {
			line, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal record: %w", err)
			}
			sb.Write(line)
			sb.WriteByte('\n')
		}
		return []byte(sb.String()), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// Load reads a dataset file in either format and returns its records. The
// format is detected from the content, not the extension.
func Load(path string) ([]core.QARecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	first, err := firstNonSpace(reader)
	if err != nil {
		// Empty file counts as an empty JSONL dataset.
		return []core.QARecord{}, nil
	}

	if first == '[' {
		var records []core.QARecord
		if err := json.NewDecoder(reader).Decode(&records); err != nil {
			return nil, fmt.Errorf("invalid JSON dataset %s: %w", path, err)
		}
		return records, nil
	}

	var records []core.QARecord
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec core.QARecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSONL line in %s: %w", path, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	return records, nil
}

// firstNonSpace peeks past leading whitespace without consuming the first
// significant byte.
func firstNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\n', '\r':
			if _, err := r.ReadByte(); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}
