// Package vectorstore owns the on-disk vector indices and their metadata.
// Every (tenant, job, kind) key maps to one FAISS-compatible flat index file
// and one JSON array of records, kept position-aligned.
package vectorstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/spigell/cv-align/internal/vecmath"
)

var (
	// ErrNotFound is returned when a read-only request targets a missing index.
	ErrNotFound = errors.New("document not found")
	// ErrDimensionMismatch is returned when a vector does not fit the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidKey is returned for keys that cannot be mapped to storage.
	ErrInvalidKey = errors.New("invalid key")
)

// Manager resolves keys to storage and performs the load-modify-persist
// sequences on them. Store, Replace, Overwrite and Vectors serialize on the
// key; the lower-level methods expect the caller to do so.
type Manager struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger
	locks  *keyedMutex
}

// New creates a manager rooted at root, creating the layout directories.
func New(fsys afero.Fs, root string, logger *zap.Logger) (*Manager, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, dir := range []string{indicesDir, metadataDir} {
		if err := fsys.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	return &Manager{
		fs:     fsys,
		root:   root,
		logger: logger,
		locks:  newKeyedMutex(),
	}, nil
}

// Root returns the store root directory.
func (m *Manager) Root() string { return m.root }

// Resolve maps a key to its index and metadata paths.
func (m *Manager) Resolve(key Key) (Location, error) {
	return resolve(m.root, key)
}

// Exists reports whether an index is persisted for key.
func (m *Manager) Exists(key Key) (bool, error) {
	loc, err := m.Resolve(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(m.fs, loc.IndexPath)
}

// Load reads a persisted index. A missing index yields ErrNotFound.
func (m *Manager) Load(loc Location) (*FlatIndex, error) {
	data, err := afero.ReadFile(m.fs, loc.IndexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loc.IndexPath)
		}
		return nil, fmt.Errorf("read index %s: %w", loc.IndexPath, err)
	}

	idx := &FlatIndex{}
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("load index %s: %w", loc.IndexPath, err)
	}

	return idx, nil
}

// LoadOrCreate loads the index at loc and checks its dimension, or returns a
// new empty index of dimension dim when nothing is persisted yet.
func (m *Manager) LoadOrCreate(loc Location, dim int) (*FlatIndex, error) {
	idx, err := m.Load(loc)
	if errors.Is(err, ErrNotFound) {
		return NewFlatIndex(dim)
	}
	if err != nil {
		return nil, err
	}

	if idx.Dim() != dim {
		return nil, fmt.Errorf("%w: index dim %d != embedding dim %d", ErrDimensionMismatch, idx.Dim(), dim)
	}

	return idx, nil
}

// Append normalizes and appends vectors to idx, then persists it. All vectors
// are checked before the first one is added.
func (m *Manager) Append(loc Location, idx *FlatIndex, vectors ...[]float32) error {
	if err := checkDims(idx.Dim(), vectors); err != nil {
		return err
	}

	for _, vec := range vectors {
		if err := idx.Add(vecmath.Normalize(vec)); err != nil {
			return err
		}
	}

	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}

	return m.writeAtomic(loc.IndexPath, data)
}

// ReadMetadata returns the records stored at loc, or an empty list when the
// metadata file does not exist.
func (m *Manager) ReadMetadata(loc Location) ([]Record, error) {
	data, err := afero.ReadFile(m.fs, loc.MetadataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("read metadata %s: %w", loc.MetadataPath, err)
	}

	records := []Record{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", loc.MetadataPath, err)
	}

	return records, nil
}

// AppendMetadata appends records to the list at loc and rewrites the file.
func (m *Manager) AppendMetadata(loc Location, records ...Record) error {
	existing, err := m.ReadMetadata(loc)
	if err != nil {
		return err
	}

	data, err := encodeRecords(append(existing, records...))
	if err != nil {
		return err
	}

	return m.writeAtomic(loc.MetadataPath, data)
}

// Overwrite deletes the index and metadata of key. Missing files are fine.
func (m *Manager) Overwrite(key Key) error {
	loc, err := m.Resolve(key)
	if err != nil {
		return err
	}

	unlock := m.locks.Lock(key.String())
	defer unlock()

	return m.remove(loc)
}

// Store appends entries to key in one locked sequence. Nothing is written when
// any entry has the wrong dimension.
func (m *Manager) Store(key Key, entries ...Entry) (*Stats, error) {
	loc, err := m.Resolve(key)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(key.String())
	defer unlock()

	return m.store(key, loc, entries)
}

// Replace swaps the single query vector of key for entry.
func (m *Manager) Replace(key Key, entry Entry) (*Stats, error) {
	if key.Kind != KindQuery {
		return nil, fmt.Errorf("%w: only %s documents can be replaced", ErrInvalidKey, KindQuery.Name())
	}

	loc, err := m.Resolve(key)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(key.String())
	defer unlock()

	if len(entry.Vector) == 0 {
		return nil, errors.New("empty vector")
	}

	if err := m.remove(loc); err != nil {
		return nil, err
	}

	return m.store(key, loc, []Entry{entry})
}

// Vectors returns a snapshot of the vectors and records of key. A missing
// index yields ErrNotFound.
func (m *Manager) Vectors(key Key) (*Snapshot, error) {
	loc, err := m.Resolve(key)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(key.String())
	defer unlock()

	idx, err := m.Load(loc)
	if err != nil {
		return nil, err
	}

	records, err := m.ReadMetadata(loc)
	if err != nil {
		return nil, err
	}
	records, err = m.align(key, records, idx.Len())
	if err != nil {
		return nil, err
	}

	return &Snapshot{Key: key, Vectors: idx.RetrieveAll(), Records: records}, nil
}

func (m *Manager) store(key Key, loc Location, entries []Entry) (*Stats, error) {
	if len(entries) == 0 {
		return nil, errors.New("no entries to store")
	}

	idx, err := m.LoadOrCreate(loc, len(entries[0].Vector))
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(entries))
	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		vectors = append(vectors, entry.Vector)
		records = append(records, entry.Record)
	}

	if err := checkDims(idx.Dim(), vectors); err != nil {
		return nil, err
	}

	existing, err := m.ReadMetadata(loc)
	if err != nil {
		return nil, err
	}
	existing, err = m.align(key, existing, idx.Len())
	if err != nil {
		return nil, err
	}

	for _, vec := range vectors {
		if err := idx.Add(vecmath.Normalize(vec)); err != nil {
			return nil, err
		}
	}

	indexData, err := idx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	metaData, err := encodeRecords(append(existing, records...))
	if err != nil {
		return nil, err
	}

	// Both files are staged before either is renamed into place. Metadata is
	// committed first: if the index rename fails the extra records are
	// trimmed by align on the next access.
	indexTmp, err := m.stage(loc.IndexPath, indexData)
	if err != nil {
		return nil, err
	}
	metaTmp, err := m.stage(loc.MetadataPath, metaData)
	if err != nil {
		_ = m.fs.Remove(indexTmp)
		return nil, err
	}
	if err := m.fs.Rename(metaTmp, loc.MetadataPath); err != nil {
		_ = m.fs.Remove(indexTmp)
		_ = m.fs.Remove(metaTmp)
		return nil, fmt.Errorf("commit metadata %s: %w", loc.MetadataPath, err)
	}
	if err := m.fs.Rename(indexTmp, loc.IndexPath); err != nil {
		_ = m.fs.Remove(indexTmp)
		return nil, fmt.Errorf("commit index %s: %w", loc.IndexPath, err)
	}

	m.logger.Debug("stored vectors",
		zap.String("key", key.String()),
		zap.Int("added", len(entries)),
		zap.Int("total_vectors", idx.Len()),
	)

	return &Stats{
		IndexPath:    loc.IndexPath,
		MetadataPath: loc.MetadataPath,
		TotalVectors: idx.Len(),
	}, nil
}

// align drops metadata records left behind by an interrupted store. An index
// holding more vectors than records cannot be repaired and is an error.
func (m *Manager) align(key Key, records []Record, vectors int) ([]Record, error) {
	switch {
	case len(records) == vectors:
		return records, nil
	case len(records) > vectors:
		m.logger.Warn("dropping metadata records without vectors",
			zap.String("key", key.String()),
			zap.Int("records", len(records)),
			zap.Int("vectors", vectors),
		)
		return records[:vectors], nil
	default:
		return nil, fmt.Errorf("%s: index holds %d vectors but metadata holds %d records", key, vectors, len(records))
	}
}

func (m *Manager) remove(loc Location) error {
	for _, path := range []string{loc.IndexPath, loc.MetadataPath} {
		if err := m.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}

func (m *Manager) writeAtomic(path string, data []byte) error {
	tmp, err := m.stage(path, data)
	if err != nil {
		return err
	}
	if err := m.fs.Rename(tmp, path); err != nil {
		_ = m.fs.Remove(tmp)
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}

func (m *Manager) stage(path string, data []byte) (string, error) {
	f, err := afero.TempFile(m.fs, filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", path, err)
	}

	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = m.fs.Remove(name)
		return "", fmt.Errorf("stage %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = m.fs.Remove(name)
		return "", fmt.Errorf("stage %s: %w", path, err)
	}

	return name, nil
}

func checkDims(dim int, vectors [][]float32) error {
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("%w: vector %d has dim %d, index dim is %d", ErrDimensionMismatch, i, len(vec), dim)
		}
	}
	return nil
}

func encodeRecords(records []Record) ([]byte, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}
