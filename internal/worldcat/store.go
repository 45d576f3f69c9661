package worldcat

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/MarkBruyneel/WorldCat/pkg/errors"
)

// MinResponseSize is the byte threshold below which a persisted response is
// treated as "no record found" for its identifier. Zero-hit responses are a
// few bytes of JSON envelope; anything with records is far larger.
const MinResponseSize = 50

// Store persists raw API responses, one <identifier>.json file per lookup,
// written verbatim before any parsing so a crashed run can be replayed.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) a raw-response working directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the working directory path.
func (s *Store) Dir() string { return s.dir }

// Path returns the response file path for an identifier.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Put writes a raw response for an identifier. The body lands in a
// temporary file first and is renamed into place, so a partial write is
// never mistaken for a complete response.
func (s *Store) Put(id string, body []byte) error {
	tmp, err := os.CreateTemp(s.dir, id+".json.tmp*")
	if err != nil {
		return errors.WrapIO("create", s.dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()        //nolint:errcheck // write error dominates
		os.Remove(tmpName) //nolint:errcheck // best effort
		return errors.WrapIO("write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best effort
		return errors.WrapIO("close", tmpName, err)
	}

	if err := os.Rename(tmpName, s.Path(id)); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best effort
		return errors.WrapIO("rename", s.Path(id), err)
	}
	return nil
}

// Get reads the raw response stored for an identifier.
func (s *Store) Get(id string) ([]byte, error) {
	body, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, errors.WrapIO("read", s.Path(id), err)
	}
	return body, nil
}

// List returns the identifiers with a response file in the working
// directory, in directory order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.WrapIO("list", s.dir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

// NotFound returns the identifiers whose response file is smaller than
// MinResponseSize — the catalog answered, but with no records.
func (s *Store) NotFound() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.WrapIO("list", s.dir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.WrapIO("stat", e.Name(), err)
		}
		if info.Size() < MinResponseSize {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return ids, nil
}

// Found returns the identifiers whose response file holds records, i.e. is
// at least MinResponseSize bytes.
func (s *Store) Found() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.WrapIO("list", s.dir, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.WrapIO("stat", e.Name(), err)
		}
		if info.Size() >= MinResponseSize {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return ids, nil
}

// Archive moves every response file from the previous run into a dated
// backup subdirectory (<prefix><date>/) and returns how many were moved.
// Runs at the start of each run, before new fetches begin.
func (s *Store) Archive(prefix, date string) (int, error) {
	dest := filepath.Join(s.dir, prefix+date)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, errors.WrapIO("create", dest, err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.WrapIO("list", s.dir, err)
	}

	moved := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		from := filepath.Join(s.dir, e.Name())
		to := filepath.Join(dest, e.Name())
		if err := os.Rename(from, to); err != nil {
			return moved, errors.WrapIO("rename", from, err)
		}
		moved++
	}
	return moved, nil
}
