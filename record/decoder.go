package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Policy decides what happens to a malformed line of a record object.
type Policy int

const (
	// Lenient skips malformed lines and reports them as warnings.
	Lenient Policy = iota
	// Strict fails on the first malformed line.
	Strict
)

var ErrUnknownPolicy = fmt.Errorf("unknown decode policy")

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

func (p Policy) String() string {
	switch p {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// DecodeWarning describes a line of a record object that could not be used.
type DecodeWarning struct {
	Key  string
	Line int
	Err  error
}

func (w *DecodeWarning) Error() string {
	return fmt.Sprintf("malformed record in %s at line %d: %v", w.Key, w.Line, w.Err)
}

func (w *DecodeWarning) Unwrap() error {
	return w.Err
}

// Decoder turns JSON-lines record objects into records.
type Decoder struct {
	policy Policy
	logger *slog.Logger
}

func NewDecoder(policy Policy, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}

	return &Decoder{
		policy: policy,
		logger: logger,
	}
}

func (d *Decoder) Policy() Policy {
	return d.policy
}

// Decode reads one record object. key is only used for reporting. With the
// Strict policy the first malformed line is returned as a *DecodeWarning error.
func (d *Decoder) Decode(key string, r io.Reader) ([]Record, []DecodeWarning, error) {
	reader := bufio.NewReader(r)

	var records []Record
	var warnings []DecodeWarning

	lineNo := 0
	for {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, nil, fmt.Errorf("failed to read %s: %w", key, readErr)
		}

		if len(line) > 0 {
			lineNo++
			rec, ok, err := decodeLine(line)
			if err != nil {
				warning := DecodeWarning{Key: key, Line: lineNo, Err: err}
				if d.policy == Strict {
					return nil, nil, &warning
				}

				d.logger.Warn("Skipping malformed record", "key", key, "line", lineNo, "error", err)
				warnings = append(warnings, warning)
			} else if ok {
				records = append(records, rec)
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
	}

	d.logger.Debug("Decoded record object", "key", key, "records", len(records), "warnings", len(warnings))
	return records, warnings, nil
}

func decodeLine(line []byte) (Record, bool, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Record{}, false, nil
	}

	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return Record{}, false, err
	}

	if err := rec.Validate(); err != nil {
		return Record{}, false, err
	}

	return rec, true, nil
}
