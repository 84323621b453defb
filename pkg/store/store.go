package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"resource-sampler/pkg/schema"
)

// ErrNoHeader is returned when the store file exists but does not start with
// the expected header row.
var ErrNoHeader = errors.New("store has no valid header")

// Store is the append-only sample history file. Rows are only ever appended,
// never rewritten or reordered; the header is written once when the file is
// created. Writers serialize on an advisory lock next to the store file so
// overlapping collector invocations cannot interleave rows.
type Store struct {
	path string
	lock *flock.Flock
}

// New returns a Store for the given path. The file itself is created lazily
// on the first Append.
func New(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the store file has been created.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Append persists one sample. It takes the writer lock, creates the file with
// its header if needed, and writes the entire row with a single write on an
// O_APPEND descriptor so readers never observe a partial row.
func (s *Store) Append(sample schema.Sample) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire store lock: %w", err)
	}
	defer s.lock.Unlock()

	f, err := os.OpenFile(filepath.Clean(s.path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat store: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(schema.Columns); err != nil {
			return err
		}
	}
	if err := w.Write(sample.MarshalRecord()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append sample: %w", err)
	}
	return nil
}

// Reader is a lazy forward-only iterator over the store's samples. It holds no
// lock: rows already written never change, and a store that grows while being
// read simply yields the extra rows.
type Reader struct {
	f   *os.File
	csv *csv.Reader
}

// Open validates the header and positions the reader at the first data row.
func (s *Store) Open() (*Reader, error) {
	f, err := os.Open(filepath.Clean(s.path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(schema.Columns)

	header, err := r.Read()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, col := range schema.Columns {
		if header[i] != col {
			f.Close()
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrNoHeader, i, header[i], col)
		}
	}

	return &Reader{f: f, csv: r}, nil
}

// Next returns the next sample. The second return value is false once the end
// of the store is reached.
func (r *Reader) Next() (schema.Sample, bool, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return schema.Sample{}, false, nil
	}
	if err != nil {
		return schema.Sample{}, false, fmt.Errorf("failed to read row: %w", err)
	}

	sample, err := schema.UnmarshalRecord(record)
	if err != nil {
		return schema.Sample{}, false, err
	}
	return sample, true, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// ReadAll drains a fresh reader into memory, in stored (chronological) order.
func (s *Store) ReadAll() ([]schema.Sample, error) {
	r, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var samples []schema.Sample
	for {
		sample, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return samples, nil
		}
		samples = append(samples, sample)
	}
}

// Count returns the number of data rows currently in the store.
func (s *Store) Count() (int, error) {
	r, err := s.Open()
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n := 0
	for {
		_, ok, err := r.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}
