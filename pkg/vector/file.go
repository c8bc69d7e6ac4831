package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
)

const (
	fileMagic   = "WKARTIDX"
	fileVersion = uint32(1)

	// IDsSuffix names the identifier sidecar written next to the vector file.
	IDsSuffix = ".ids.json"

	maxMetaLen    = 1 << 20
	maxDimensions = 1 << 16

	// magic, version, meta length, then vector count and dimensions
	fixedHeaderLen = len(fileMagic) + 4*4
)

// FileStore persists an index as two co-located files: a little-endian
// binary vector file and a JSON identifier list at path+IDsSuffix.
type FileStore struct {
	path string
}

// NewFileStore returns a store rooted at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path is the vector file location.
func (s *FileStore) Path() string { return s.path }

// Save writes both files through temporary files and renames, so a reader
// never sees a half-written file.
func (s *FileStore) Save(_ context.Context, idx *Index) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	if err := writeAtomic(s.path+IDsSuffix, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(idx.ids)
	}); err != nil {
		return fmt.Errorf("writing identifier map: %w", err)
	}

	if err := writeAtomic(s.path, func(w io.Writer) error {
		return encodeVectors(w, idx)
	}); err != nil {
		return fmt.Errorf("writing vector file: %w", err)
	}

	return nil
}

// Load reads and checks both files.
func (s *FileStore) Load(_ context.Context) (*Index, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w: %s", ErrIndexLoad, ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexLoad, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexLoad, err)
	}

	meta, vectors, err := decodeVectors(bufio.NewReader(f), info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIndexLoad, s.path, err)
	}

	raw, err := os.ReadFile(s.path + IDsSuffix)
	if err != nil {
		return nil, fmt.Errorf("%w: reading identifier map: %w", ErrIndexLoad, err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: decoding identifier map: %w", ErrIndexLoad, err)
	}

	return FromParts(meta, ids, vectors)
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func encodeVectors(w io.Writer, idx *Index) error {
	metaJSON, err := json.Marshal(idx.meta)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(fileMagic); err != nil {
		return err
	}

	header := []uint32{fileVersion, uint32(len(metaJSON))}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return err
	}
	if _, err := bw.Write(metaJSON); err != nil {
		return err
	}

	counts := []uint32{uint32(idx.Len()), uint32(idx.Dimensions())}
	if err := binary.Write(bw, binary.LittleEndian, counts); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, idx.vectors); err != nil {
		return err
	}
	return bw.Flush()
}

// decodeVectors reads a vector file of the given size. Counts in the header
// are checked against size before anything is allocated for them.
func decodeVectors(r io.Reader, size int64) (Meta, [][]float32, error) {
	var meta Meta

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return meta, nil, fmt.Errorf("reading header: %w", err)
	}
	if string(magic) != fileMagic {
		return meta, nil, errors.New("not a wikiart index file")
	}

	var header [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return meta, nil, fmt.Errorf("reading header: %w", err)
	}
	if header[0] != fileVersion {
		return meta, nil, fmt.Errorf("unsupported index version %d", header[0])
	}
	if header[1] > maxMetaLen {
		return meta, nil, fmt.Errorf("metadata length %d out of range", header[1])
	}

	metaJSON := make([]byte, header[1])
	if _, err := io.ReadFull(r, metaJSON); err != nil {
		return meta, nil, fmt.Errorf("reading metadata: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return meta, nil, fmt.Errorf("decoding metadata: %w", err)
	}

	var counts [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &counts); err != nil {
		return meta, nil, fmt.Errorf("reading counts: %w", err)
	}
	n, dims := int(counts[0]), int(counts[1])
	if dims == 0 {
		return meta, nil, fmt.Errorf("%w: zero-dimension vectors", ErrDimensionMismatch)
	}
	if dims > maxDimensions {
		return meta, nil, fmt.Errorf("%w: %d dimensions out of range", ErrDimensionMismatch, dims)
	}
	if dims != meta.Dimensions {
		return meta, nil, fmt.Errorf("%w: header says %d, metadata %d", ErrDimensionMismatch, dims, meta.Dimensions)
	}

	payload := size - int64(fixedHeaderLen) - int64(header[1])
	if int64(n)*int64(dims)*4 != payload {
		return meta, nil, fmt.Errorf("%w: header claims %d vectors of %d dimensions, file holds %d bytes of vector data",
			ErrCountMismatch, n, dims, payload)
	}

	vectors := make([][]float32, n)
	buf := make([]byte, 4*dims)
	for i := range vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return meta, nil, fmt.Errorf("reading vector %d: %w", i, err)
		}
		v := make([]float32, dims)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		vectors[i] = v
	}

	if _, err := r.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		return meta, nil, errors.New("trailing data after vectors")
	}

	return meta, vectors, nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ Store = (*FileStore)(nil)
