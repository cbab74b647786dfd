// ABOUTME: Directory-backed Store writing vectors.bin and chunks.json side by side
// ABOUTME: Both artifacts carry the same generation id so a torn pair is detected
package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	// VectorsFileName holds the raw vectors in insertion order
	VectorsFileName = "vectors.bin"
	// ChunksFileName holds the parallel chunk-text list
	ChunksFileName = "chunks.json"

	fileFormatVersion = 1
	vectorsHeaderSize = 4 + 4 + 4 + 4 + 16
)

var vectorsMagic = [4]byte{'R', 'G', 'V', 'I'}

type chunksFile struct {
	Version    int       `json:"version"`
	Generation uuid.UUID `json:"generation"`
	DocumentID string    `json:"document_id"`
	Dimension  int       `json:"dimension"`
	Chunks     []string  `json:"chunks"`
}

// FileStore persists a snapshot as two files in one directory
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes both artifacts, each through a temp file and rename
func (s *FileStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vectorData, err := encodeVectorsFile(snap)
	if err != nil {
		return err
	}

	texts := snap.Texts
	if texts == nil {
		texts = []string{}
	}
	chunkData, err := json.MarshalIndent(chunksFile{
		Version:    fileFormatVersion,
		Generation: snap.Generation,
		DocumentID: snap.DocumentID,
		Dimension:  snap.Dimension,
		Chunks:     texts,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunk list: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(s.dir, VectorsFileName), vectorData); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, ChunksFileName), chunkData)
}

// Load reads both artifacts and cross-checks them
func (s *FileStore) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vectorData, vecErr := os.ReadFile(filepath.Join(s.dir, VectorsFileName))
	chunkData, chunkErr := os.ReadFile(filepath.Join(s.dir, ChunksFileName))

	switch {
	case os.IsNotExist(vecErr) && os.IsNotExist(chunkErr):
		return nil, ErrSnapshotNotFound
	case vecErr != nil:
		return nil, fmt.Errorf("reading %s: %w", VectorsFileName, vecErr)
	case chunkErr != nil:
		return nil, fmt.Errorf("reading %s: %w", ChunksFileName, chunkErr)
	}

	snap, err := decodeVectorsFile(vectorData)
	if err != nil {
		return nil, err
	}

	var cf chunksFile
	if err := json.Unmarshal(chunkData, &cf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ChunksFileName, err)
	}
	if cf.Version != fileFormatVersion {
		return nil, fmt.Errorf("%s has format version %d, want %d", ChunksFileName, cf.Version, fileFormatVersion)
	}
	if cf.Generation != snap.Generation {
		return nil, fmt.Errorf("artifacts are from different writes (%s vs %s)", snap.Generation, cf.Generation)
	}
	if cf.Dimension != snap.Dimension {
		return nil, fmt.Errorf("artifacts disagree on dimension (%d vs %d)", snap.Dimension, cf.Dimension)
	}
	if len(cf.Chunks) != len(snap.Vectors) {
		return nil, fmt.Errorf("artifacts disagree on entry count (%d vectors, %d chunks)", len(snap.Vectors), len(cf.Chunks))
	}

	snap.DocumentID = cf.DocumentID
	snap.Texts = cf.Chunks
	return snap, nil
}

// Clear removes both artifacts
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{VectorsFileName, ChunksFileName} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
	}
	return nil
}

// Close is a no-op; every write is flushed by Save
func (s *FileStore) Close() error {
	return nil
}

// encodeVectorsFile lays out: magic, version, dimension, count (uint32 each),
// generation (16 bytes), then count*dimension float32 values
func encodeVectorsFile(snap *Snapshot) ([]byte, error) {
	for i, v := range snap.Vectors {
		if len(v) != snap.Dimension {
			return nil, fmt.Errorf("vector %d has %d components, want %d", i, len(v), snap.Dimension)
		}
	}

	out := make([]byte, vectorsHeaderSize, vectorsHeaderSize+len(snap.Vectors)*snap.Dimension*4)
	copy(out[0:4], vectorsMagic[:])
	binary.LittleEndian.PutUint32(out[4:8], fileFormatVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(snap.Dimension))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(snap.Vectors)))
	copy(out[16:32], snap.Generation[:])

	for _, v := range snap.Vectors {
		out = append(out, EncodeVector(v)...)
	}
	return out, nil
}

func decodeVectorsFile(data []byte) (*Snapshot, error) {
	if len(data) < vectorsHeaderSize {
		return nil, errors.New("vectors file truncated: header incomplete")
	}
	if [4]byte(data[0:4]) != vectorsMagic {
		return nil, errors.New("vectors file has wrong magic")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != fileFormatVersion {
		return nil, fmt.Errorf("vectors file has format version %d, want %d", v, fileFormatVersion)
	}

	dim := binary.LittleEndian.Uint32(data[8:12])
	count := binary.LittleEndian.Uint32(data[12:16])
	var gen uuid.UUID
	copy(gen[:], data[16:32])

	// header fields are untrusted; the body length must account for them
	// exactly before anything is allocated
	body := data[vectorsHeaderSize:]
	if err := checkVectorsBody(uint64(len(body)), dim, count); err != nil {
		return nil, err
	}

	stride := int(dim) * 4
	vectors := make([][]float32, count)
	for i := range vectors {
		v, err := DecodeVector(body[i*stride : (i+1)*stride])
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}

	return &Snapshot{
		Generation: gen,
		Dimension:  int(dim),
		Vectors:    vectors,
	}, nil
}

func checkVectorsBody(size uint64, dim, count uint32) error {
	if dim == 0 {
		if count != 0 || size != 0 {
			return fmt.Errorf("vectors file declares dimension 0 with %d vectors and %d data bytes", count, size)
		}
		return nil
	}
	rowBytes := uint64(dim) * 4
	if size%rowBytes != 0 || size/rowBytes != uint64(count) {
		return fmt.Errorf("vectors file truncated: %d data bytes for %d vectors of dimension %d", size, count, dim)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
