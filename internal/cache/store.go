package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoEntry means there is no usable cache file for a calculation
	ErrNoEntry = errors.New("no cache entry")
	// ErrStale means the cache file was computed from other parameters
	ErrStale = errors.New("stale cache entry")
)

// Kind names a calculation
type Kind string

const (
	KindCMC     Kind = "CMC"
	KindDGE     Kind = "DGE"
	KindDME     Kind = "DME"
	KindArboles Kind = "ARBOLES"
	KindSPH     Kind = "SPH"
	KindFUND    Kind = "FUND"
	KindCosteo  Kind = "COSTEO"
)

// Kinds lists every calculation in pipeline order
var Kinds = []Kind{KindCMC, KindDGE, KindDME, KindArboles, KindSPH, KindFUND, KindCosteo}

// Dependencies lists what each calculation consumes
var Dependencies = map[Kind][]Kind{
	KindCMC:     nil,
	KindDGE:     {KindCMC},
	KindDME:     {KindCMC, KindDGE},
	KindArboles: {KindDME},
	KindSPH:     {KindDME},
	KindFUND:    {KindSPH, KindDME},
	KindCosteo:  {KindSPH, KindFUND},
}

// ParseKind accepts a calculation name in any case
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == strings.ToUpper(s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown calculation %q", s)
}

// Order returns the transitive dependencies of k, each before its consumers,
// ending with k itself
func Order(k Kind) []Kind {
	var out []Kind
	seen := map[Kind]bool{}
	var visit func(Kind)
	visit = func(k Kind) {
		if seen[k] {
			return
		}
		seen[k] = true
		for _, d := range Dependencies[k] {
			visit(d)
		}
		out = append(out, k)
	}
	visit(k)
	return out
}

// Entry is one cache file
type Entry struct {
	RunID     string          `json:"id_ejecucion"`
	Structure string          `json:"estructura"`
	Kind      Kind            `json:"calculo"`
	Hash      string          `json:"hash_parametros"`
	Date      time.Time       `json:"fecha_calculo"`
	Results   json.RawMessage `json:"resultados"`
}

// Decode unmarshals the results payload into out
func (e *Entry) Decode(out any) error {
	if err := json.Unmarshal(e.Results, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNoEntry, e.Structure, e.Kind, err)
	}
	return nil
}

// Store keeps calculation results as JSON files in one directory
type Store struct {
	dir string
	now func() time.Time
}

// NewStore opens (creating if needed) a cache directory
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file of a structure calculation
func (s *Store) Path(structure string, k Kind) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.calculo%s.json", structure, k))
}

// Save writes the results atomically: a temp file in the same directory is
// synced and then renamed over the entry
func (s *Store) Save(structure string, k Kind, hash string, results any) (*Entry, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("encode %s results: %w", k, err)
	}
	e := &Entry{
		RunID:     uuid.NewString(),
		Structure: structure,
		Kind:      k,
		Hash:      hash,
		Date:      s.now().UTC(),
		Results:   payload,
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*.json")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), s.Path(structure, k)); err != nil {
		return nil, err
	}
	return e, nil
}

// Load reads an entry. Missing or unreadable files are ErrNoEntry.
func (s *Store) Load(structure string, k Kind) (*Entry, error) {
	data, err := os.ReadFile(s.Path(structure, k))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", ErrNoEntry, structure, k)
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || len(e.Results) == 0 {
		return nil, fmt.Errorf("%w: %s %s: corrupt file", ErrNoEntry, structure, k)
	}
	return &e, nil
}

// Fresh loads an entry and checks it was computed from hash
func (s *Store) Fresh(structure string, k Kind, hash string) (*Entry, error) {
	e, err := s.Load(structure, k)
	if err != nil {
		return nil, err
	}
	if e.Hash != hash {
		return nil, fmt.Errorf("%w: %s %s computed from %s", ErrStale, structure, k, e.Hash)
	}
	return e, nil
}

// Remove deletes an entry; a missing entry is not an error
func (s *Store) Remove(structure string, k Kind) error {
	err := os.Remove(s.Path(structure, k))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
