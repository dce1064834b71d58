package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vjranagit/detector-stability/pkg/telemetry"
)

// DatasetFile is the well-known name of the telemetry table
const DatasetFile = "env_telemetry.csv"

// DatasetStore persists a telemetry dataset
type DatasetStore interface {
	// Save writes the dataset and returns its location
	Save(ctx context.Context, ds *telemetry.Dataset) (string, error)

	// Load reads the dataset back
	Load(ctx context.Context) (*telemetry.Dataset, error)

	// Exists reports whether a dataset is present
	Exists() bool

	// Path returns the store location
	Path() string
}

// csvStore implements DatasetStore as a CSV file
type csvStore struct {
	path string
}

// NewCSVStore creates a dataset store rooted at dir
func NewCSVStore(dir string) DatasetStore {
	return &csvStore{path: filepath.Join(dir, DatasetFile)}
}

// Path implements DatasetStore.Path
func (s *csvStore) Path() string {
	return s.path
}

// Exists implements DatasetStore.Exists
func (s *csvStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save implements DatasetStore.Save. The file is written to a temporary
// sibling and renamed into place.
func (s *csvStore) Save(ctx context.Context, ds *telemetry.Dataset) (string, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), DatasetFile+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	if err := writeCSV(ctx, buf, ds); err != nil {
		tmp.Close()
		return "", err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to flush dataset: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close dataset: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return "", fmt.Errorf("failed to move dataset into place: %w", err)
	}

	return s.path, nil
}

// Load implements DatasetStore.Load
func (s *csvStore) Load(ctx context.Context) (*telemetry.Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &telemetry.MissingDatasetError{Path: s.path}
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := readCSV(ctx, bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return ds, nil
}

// writeCSV writes the header and one record per row. Floats use the shortest
// representation that parses back to the same bits.
func writeCSV(ctx context.Context, w io.Writer, ds *telemetry.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(telemetry.DefaultSchema.Columns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, 1+telemetry.NumChannels)
	for i, r := range ds.Rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		record[0] = strconv.FormatInt(r.TimeIndex, 10)
		for j, v := range r.Values {
			record[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func readCSV(ctx context.Context, r io.Reader) (*telemetry.Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := telemetry.DefaultSchema.ValidateColumns(header); err != nil {
		return nil, err
	}

	ds := &telemetry.Dataset{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var row telemetry.Row
		row.TimeIndex, err = strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad time index: %w", line, err)
		}
		for j := range row.Values {
			row.Values[j], err = strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s: %w", line, telemetry.DefaultSchema[j], err)
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
