package telemetry

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 3

var (
	// ErrSnapshotVersion is returned for a snapshot of another format version.
	ErrSnapshotVersion = errors.New("telemetry: unsupported snapshot version")
	// ErrSnapshotShape is returned when field lengths disagree with N.
	ErrSnapshotShape = errors.New("telemetry: snapshot fields do not match grid size")
)

// Snapshot holds the state needed to resume a run: the current density and
// velocity grids including their ghost border, row-major, components
// interleaved. The grids are stored as little-endian float32 bytes so NaN
// and Inf cells survive the trip.
type Snapshot struct {
	Version int
	N       int
	Tick    int64
	SimTime float64

	Density  []float32
	Velocity []float32

	Bookmark *Bookmark
}

type snapshotFile struct {
	Version  int       `json:"version"`
	N        int       `json:"n"`
	Tick     int64     `json:"tick"`
	SimTime  float64   `json:"sim_time"`
	Density  []byte    `json:"density"`
	Velocity []byte    `json:"velocity"`
	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

func packFloats(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for k, x := range v {
		binary.LittleEndian.PutUint32(b[4*k:], math.Float32bits(x))
	}
	return b
}

func unpackFloats(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a float32 array", ErrSnapshotShape, len(b))
	}
	v := make([]float32, len(b)/4)
	for k := range v {
		v[k] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*k:]))
	}
	return v, nil
}

// MarshalJSON encodes the grids as base64 float32 bytes.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotFile{
		Version:  s.Version,
		N:        s.N,
		Tick:     s.Tick,
		SimTime:  s.SimTime,
		Density:  packFloats(s.Density),
		Velocity: packFloats(s.Velocity),
		Bookmark: s.Bookmark,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var f snapshotFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	density, err := unpackFloats(f.Density)
	if err != nil {
		return err
	}
	velocity, err := unpackFloats(f.Velocity)
	if err != nil {
		return err
	}
	*s = Snapshot{
		Version:  f.Version,
		N:        f.N,
		Tick:     f.Tick,
		SimTime:  f.SimTime,
		Density:  density,
		Velocity: velocity,
		Bookmark: f.Bookmark,
	}
	return nil
}

// FileName is snapshot_<tick>[_<bookmark>].json.gz.
func (s *Snapshot) FileName() string {
	if s.Bookmark != nil {
		return fmt.Sprintf("snapshot_%d_%s.json.gz", s.Tick, s.Bookmark.Type)
	}
	return fmt.Sprintf("snapshot_%d.json.gz", s.Tick)
}

// Check reports whether the field lengths fit an (N+2)^2 grid.
func (s *Snapshot) Check() error {
	cells := (s.N + 2) * (s.N + 2)
	if s.N < 1 || len(s.Density) != cells || len(s.Velocity) != 2*cells {
		return fmt.Errorf("%w: n=%d density=%d velocity=%d", ErrSnapshotShape, s.N, len(s.Density), len(s.Velocity))
	}
	return nil
}

// SaveSnapshot writes s as gzipped JSON into dir and returns the path.
func SaveSnapshot(s *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, s.FileName())

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	zw := gzip.NewWriter(f)
	encErr := json.NewEncoder(zw).Encode(s)
	zipErr := zw.Close()
	closeErr := f.Close()
	if err := errors.Join(encErr, zipErr, closeErr); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot. Plain JSON is
// accepted too.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		if errors.Is(err, ErrSnapshotShape) {
			return nil, err
		}
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return &s, nil
}
