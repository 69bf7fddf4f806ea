/*
	Package format reads and writes the binary container for built hypertree
	grids.

	Layout (all little-endian):
	  - 8-byte magic "HTGrid00"
	  - fixed-size file header: format version, topology, mask flag, tree and
	    leaf counts, payload size
	  - payload: a checksummed, optionally compressed block (htg serialization
	    framing) holding the coordinate arrays, each tree's node arena, the
	    leaf depth scalars, and the material blank bits when present.
*/
package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/janelia-flyem/htg/htg"
	"github.com/janelia-flyem/htg/hypertree"
)

// Magic identifies a hypertree grid file.
var Magic = [8]byte{'H', 'T', 'G', 'r', 'i', 'd', '0', '0'}

// FormatVersion is bumped on any incompatible layout change.
const FormatVersion uint32 = 1

// ByteOrder is the byte order of every value in the file.
var ByteOrder = binary.LittleEndian

// Header describes a stored grid without its payload.
type Header struct {
	Version     uint32
	Topology    htg.Topology
	MaskEnabled bool
	NumTrees    uint64
	NumLeaves   uint64
}

// fileHeader is the fixed-size on-disk form of Header.
type fileHeader struct {
	Version      uint32
	Dimension    int32
	BranchFactor int32
	GridSizeX    int32
	GridSizeY    int32
	GridSizeZ    int32
	MaskEnabled  uint8
	_            [3]byte
	NumTrees     uint64
	NumLeaves    uint64
	PayloadSize  uint64
}

// Write serializes a grid to w using the given payload compression.
func Write(w io.Writer, grid *hypertree.Grid, compression htg.Compression) error {
	raw, err := encodePayload(grid)
	if err != nil {
		return err
	}
	payload, err := htg.SerializeData(raw, compression, htg.CRC32)
	if err != nil {
		return fmt.Errorf("serializing grid payload: %v", err)
	}

	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	fh := fileHeader{
		Version:      FormatVersion,
		Dimension:    int32(grid.Topology.Dimension),
		BranchFactor: int32(grid.Topology.BranchFactor),
		GridSizeX:    int32(grid.Topology.GridSize[0]),
		GridSizeY:    int32(grid.Topology.GridSize[1]),
		GridSizeZ:    int32(grid.Topology.GridSize[2]),
		NumTrees:     uint64(grid.NumTrees()),
		NumLeaves:    uint64(grid.NumLeaves()),
		PayloadSize:  uint64(len(payload)),
	}
	if grid.MaskEnabled() {
		fh.MaskEnabled = 1
	}
	if err := binary.Write(w, ByteOrder, &fh); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// WriteFile serializes a grid to the named file.
func WriteFile(path string, grid *hypertree.Grid, compression htg.Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, grid, compression)
}

// ReadHeader reads the magic and header from r, leaving r positioned at the
// payload.
func ReadHeader(r io.Reader) (Header, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return Header{}, err
	}
	if magic != Magic {
		return Header{}, fmt.Errorf("bad magic %q: not a hypertree grid file", magic)
	}
	var fh fileHeader
	if err := binary.Read(r, ByteOrder, &fh); err != nil {
		return Header{}, err
	}
	if fh.Version != FormatVersion {
		return Header{}, fmt.Errorf("unsupported format version %d, expected %d", fh.Version, FormatVersion)
	}
	h := Header{
		Version: fh.Version,
		Topology: htg.Topology{
			Dimension:    int(fh.Dimension),
			BranchFactor: int(fh.BranchFactor),
			GridSize:     [3]int{int(fh.GridSizeX), int(fh.GridSizeY), int(fh.GridSizeZ)},
		},
		MaskEnabled: fh.MaskEnabled != 0,
		NumTrees:    fh.NumTrees,
		NumLeaves:   fh.NumLeaves,
	}
	if err := h.Topology.Validate(); err != nil {
		return Header{}, fmt.Errorf("stored topology invalid: %v", err)
	}
	return h, nil
}

// Read deserializes a complete grid from r.
func Read(r io.Reader) (*hypertree.Grid, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw, _, err := htg.DeserializeData(payload, true)
	if err != nil {
		return nil, fmt.Errorf("deserializing grid payload: %v", err)
	}
	return decodePayload(h, raw)
}

// ReadFile deserializes a complete grid from the named file.
func ReadFile(path string) (*hypertree.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func encodePayload(grid *hypertree.Grid) ([]byte, error) {
	var buf bytes.Buffer

	for _, coords := range [][]float64{grid.XCoordinates, grid.YCoordinates, grid.ZCoordinates} {
		if err := binary.Write(&buf, ByteOrder, uint32(len(coords))); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, ByteOrder, coords); err != nil {
			return nil, err
		}
	}

	for _, tree := range grid.Trees {
		nodes := tree.Nodes()
		if err := binary.Write(&buf, ByteOrder, uint32(len(nodes))); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, ByteOrder, nodes); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, ByteOrder, grid.Scalars); err != nil {
		return nil, err
	}

	if grid.MaskEnabled() {
		words := make([]uint64, (grid.NumLeaves()+63)/64)
		for id := 0; id < grid.NumLeaves(); id++ {
			if grid.Material.GetBit(id) {
				words[id>>6] |= 1 << (id & 63)
			}
		}
		if err := binary.Write(&buf, ByteOrder, words); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func decodePayload(h Header, raw []byte) (*hypertree.Grid, error) {
	buf := bytes.NewReader(raw)
	blockSize := h.Topology.BlockSize()

	grid := &hypertree.Grid{
		Topology:  h.Topology,
		BlockSize: blockSize,
		Trees:     make([]*hypertree.Tree, 0, h.NumTrees),
	}

	coords := make([][]float64, 3)
	for axis := 0; axis < 3; axis++ {
		var n uint32
		if err := binary.Read(buf, ByteOrder, &n); err != nil {
			return nil, err
		}
		if int(n) != h.Topology.GridSize[axis]+1 {
			return nil, fmt.Errorf("axis %d has %d coordinates, expected %d",
				axis, n, h.Topology.GridSize[axis]+1)
		}
		coords[axis] = make([]float64, n)
		if err := binary.Read(buf, ByteOrder, coords[axis]); err != nil {
			return nil, err
		}
	}
	grid.XCoordinates, grid.YCoordinates, grid.ZCoordinates = coords[0], coords[1], coords[2]

	for i := uint64(0); i < h.NumTrees; i++ {
		var n uint32
		if err := binary.Read(buf, ByteOrder, &n); err != nil {
			return nil, err
		}
		nodes := make([]hypertree.Node, n)
		if err := binary.Read(buf, ByteOrder, nodes); err != nil {
			return nil, err
		}
		tree, err := hypertree.RebuildTree(blockSize, nodes)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %v", i, err)
		}
		grid.Trees = append(grid.Trees, tree)
	}

	grid.Scalars = make([]float64, h.NumLeaves)
	if err := binary.Read(buf, ByteOrder, grid.Scalars); err != nil {
		return nil, err
	}

	if h.MaskEnabled {
		words := make([]uint64, (h.NumLeaves+63)/64)
		if err := binary.Read(buf, ByteOrder, words); err != nil {
			return nil, err
		}
		grid.Material = &hypertree.BitArray{}
		for id := 0; id < int(h.NumLeaves); id++ {
			grid.Material.Set(id, words[id>>6]&(1<<(id&63)) != 0)
		}
	}

	if buf.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after grid payload", buf.Len())
	}
	return grid, nil
}
