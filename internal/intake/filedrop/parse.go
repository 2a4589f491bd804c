package filedrop

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// supported reports whether the watcher ingests files with this name.
func supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".ndjson", ".jsonl", ".csv":
		return true
	}
	return false
}

// parseFile splits a batch file into one JSON object per record.
func parseFile(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(f)
	case ".ndjson", ".jsonl":
		return parseNDJSON(f)
	case ".csv":
		return parseCSV(f)
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// parseJSON accepts one object or an array of objects.
func parseJSON(r io.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	if data[0] == '{' {
		if !json.Valid(data) {
			return nil, errors.New("invalid JSON object")
		}
		return []json.RawMessage{data}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("want a JSON object or an array of objects: %w", err)
	}
	for i, item := range items {
		if !isObject(item) {
			return nil, fmt.Errorf("element %d is not a JSON object", i)
		}
	}
	return items, nil
}

// parseNDJSON accepts one object per line; blank lines are skipped.
func parseNDJSON(r io.Reader) ([]json.RawMessage, error) {
	var out []json.RawMessage
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		if !isObject(text) || !json.Valid(text) {
			return nil, fmt.Errorf("line %d is not a JSON object", line)
		}
		out = append(out, append(json.RawMessage(nil), text...))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseCSV turns each row into an object keyed by the header row. Cells that parse as numbers
// become JSON numbers; everything else stays a string.
func parseCSV(r io.Reader) ([]json.RawMessage, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var out []json.RawMessage
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		obj, err := rowObject(header, row)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func rowObject(header, row []string) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range header {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(cellValue(row[i]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func cellValue(cell string) []byte {
	cell = strings.TrimSpace(cell)
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return []byte(cell)
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !strings.ContainsAny(cell, "xXpPnN_") {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b, _ := json.Marshal(cell)
	return b
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}
