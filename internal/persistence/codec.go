package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

// encodeGrid writes a grid as zstd-compressed JSON.
func encodeGrid(g *world.Grid) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(enc).Encode(g); err != nil {
		enc.Close()
		return nil, fmt.Errorf("json encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGrid(data []byte) (*world.Grid, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var g world.Grid
	if err := json.NewDecoder(dec).Decode(&g); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	if g.Size < 0 || len(g.Tiles) != g.Size*g.Size {
		return nil, fmt.Errorf("grid size %d does not match %d tiles", g.Size, len(g.Tiles))
	}
	return &g, nil
}
