// Package snapshot encodes grids into a compact binary form.
//
// A snapshot is a zstd frame wrapping a protobuf message:
//
//	message Snapshot {
//	  uint32 version = 1;
//	  repeated Cell cells = 2;
//	}
//
//	message Cell {
//	  sint32 x = 1;
//	  sint32 y = 2;
//	  uint32 handle_index = 3;
//	  uint32 handle_generation = 4;
//	  uint32 rotation = 5;
//	}
//
// Cells are written ordered by y then x so that a grid always encodes to the
// same bytes.
package snapshot

import (
	"cmp"
	"slices"

	"github.com/aukilabs/entitygrid/grid"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the snapshot format version written by Encode.
const Version = 1

// MaxDecodedSize is the largest decompressed snapshot accepted by Decode.
const MaxDecodedSize = 64 << 20

// ErrTypeSnapshotTooLarge is the type of the error returned when a snapshot
// decompresses to more than MaxDecodedSize bytes.
const ErrTypeSnapshotTooLarge = "snapshot_too_large"

const (
	snapshotVersionField protowire.Number = 1
	snapshotCellsField   protowire.Number = 2

	cellXField          protowire.Number = 1
	cellYField          protowire.Number = 2
	cellIndexField      protowire.Number = 3
	cellGenerationField protowire.Number = 4
	cellRotationField   protowire.Number = 5
)

var (
	encoder = newEncoder()
	decoder = newDecoder()
)

func newEncoder() *zstd.Encoder {
	e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(err)
	}
	return e
}

func newDecoder() *zstd.Decoder {
	d, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecodedSize))
	if err != nil {
		panic(err)
	}
	return d
}

type cell struct {
	position grid.Position
	occupant grid.Occupant
}

// Encode returns the snapshot of the given grid.
func Encode(g *grid.Grid) ([]byte, error) {
	cells := make([]cell, 0, g.Len())
	for p, o := range g.All() {
		cells = append(cells, cell{position: p, occupant: o})
	}

	slices.SortFunc(cells, func(a, b cell) int {
		if c := cmp.Compare(a.position.Y, b.position.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.position.X, b.position.X)
	})

	b := protowire.AppendTag(nil, snapshotVersionField, protowire.VarintType)
	b = protowire.AppendVarint(b, Version)

	var c []byte
	for _, e := range cells {
		if !e.occupant.Rotation.IsValid() {
			return nil, errors.New("cell has an invalid rotation").
				WithTag("position", e.position).
				WithTag("rotation", uint8(e.occupant.Rotation))
		}

		c = appendCell(c[:0], e)
		b = protowire.AppendTag(b, snapshotCellsField, protowire.BytesType)
		b = protowire.AppendBytes(b, c)
	}

	return encoder.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

func appendCell(b []byte, c cell) []byte {
	b = protowire.AppendTag(b, cellXField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(c.position.X)))
	b = protowire.AppendTag(b, cellYField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(c.position.Y)))
	b = protowire.AppendTag(b, cellIndexField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.occupant.Handle.Index))
	b = protowire.AppendTag(b, cellGenerationField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.occupant.Handle.Generation))
	b = protowire.AppendTag(b, cellRotationField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.occupant.Rotation))
	return b
}

// Decode restores the grid encoded in the given snapshot.
func Decode(data []byte) (*grid.Grid, error) {
	b, err := decoder.DecodeAll(data, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || len(b) > MaxDecodedSize {
		return nil, errors.New("snapshot is too large").
			WithType(ErrTypeSnapshotTooLarge).
			WithTag("max_size", MaxDecodedSize)
	}
	if err != nil {
		return nil, errors.New("decompressing snapshot failed").Wrap(err)
	}

	g := grid.New()
	version := uint64(0)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.New("decoding snapshot failed").Wrap(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == snapshotVersionField && typ == protowire.VarintType:
			version, n = protowire.ConsumeVarint(b)

		case num == snapshotCellsField && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				c, err := decodeCell(v)
				if err != nil {
					return nil, err
				}
				g.Insert(c.position, c.occupant.Handle, c.occupant.Rotation)
			}

		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}

		if n < 0 {
			return nil, errors.New("decoding snapshot failed").
				WithTag("field", num).
				Wrap(protowire.ParseError(n))
		}
		b = b[n:]
	}

	if version != Version {
		return nil, errors.New("unsupported snapshot version").
			WithTag("version", version)
	}
	return g, nil
}

func decodeCell(b []byte) (cell, error) {
	var c cell

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return c, errors.New("decoding cell failed").Wrap(protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return c, errors.New("decoding cell failed").
					WithTag("field", num).
					Wrap(protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return c, errors.New("decoding cell failed").
				WithTag("field", num).
				Wrap(protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case cellXField:
			c.position.X = int32(protowire.DecodeZigZag(v))
		case cellYField:
			c.position.Y = int32(protowire.DecodeZigZag(v))
		case cellIndexField:
			c.occupant.Handle.Index = uint32(v)
		case cellGenerationField:
			c.occupant.Handle.Generation = uint32(v)
		case cellRotationField:
			c.occupant.Rotation = grid.Rotation(v)
		}
	}

	if !c.occupant.Rotation.IsValid() {
		return c, errors.New("cell has an invalid rotation").
			WithTag("position", c.position).
			WithTag("rotation", uint8(c.occupant.Rotation))
	}
	return c, nil
}
