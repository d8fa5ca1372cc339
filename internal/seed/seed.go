// Package seed reads initial datastore contents from YAML or JSON files.
//
// A seed file maps model names to lists of records:
//
//	User:
//	  - id: "123"
//	    name: unit-test
//	  - id: "234"
//	    name: unit-test-2
//
// The file is read under a shared lock on "<path>.lock", so a writer holding
// the exclusive lock never hands out a half-written seed.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ormkit/internal/datastore"
)

// ErrUnsupportedFormat is returned for files that are not .yaml, .yml or .json.
var ErrUnsupportedFormat = errors.New("unsupported seed file format")

const (
	lockTimeout    = 3 * time.Second
	lockRetryDelay = 100 * time.Millisecond
)

// LoadFile decodes the seed file at path.
func LoadFile(ctx context.Context, path string) (datastore.Seed, error) {
	format := strings.ToLower(filepath.Ext(path))
	if format != ".yaml" && format != ".yml" && format != ".json" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := readLocked(ctx, path)
	if err != nil {
		return nil, err
	}

	if format == ".json" {
		return Decode(data, unmarshalJSON)
	}
	return Decode(data, yaml.Unmarshal)
}

func readLocked(ctx context.Context, path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("seed file: %w", err)
	}

	lock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryRLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire seed lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire seed lock for %s", path)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return data, nil
}

// unmarshalJSON decodes numbers as json.Number so integers survive beyond
// float64 precision.
func unmarshalJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// normalize turns json.Number values into int when integral and float64
// otherwise, matching what yaml.v3 produces for the same input.
func normalize(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case map[string]any:
		for k, e := range n {
			n[k] = normalize(e)
		}
		return n
	case []any:
		for i, e := range n {
			n[i] = normalize(e)
		}
		return n
	default:
		return v
	}
}

// Decode parses seed data with unmarshal (yaml.Unmarshal or json.Unmarshal).
// Empty input yields an empty seed.
func Decode(data []byte, unmarshal func([]byte, any) error) (datastore.Seed, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return datastore.Seed{}, nil
	}

	var raw map[string][]map[string]any
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := make(datastore.Seed, len(raw))
	for name, records := range raw {
		recs := make([]datastore.Record, 0, len(records))
		for i, rec := range records {
			if rec == nil {
				return nil, fmt.Errorf("decode seed: %s[%d] is empty", name, i)
			}
			for k, v := range rec {
				rec[k] = normalize(v)
			}
			recs = append(recs, datastore.Record(rec))
		}
		out[name] = recs
	}
	return out, nil
}
