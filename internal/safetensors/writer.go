package safetensors

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/samcharles93/expkit/internal/state"
)

// WriteFile writes sd to path as F32 tensors, truncating any existing file.
// Tensors are laid out in sorted key order.
func WriteFile(path string, sd state.StateDict, metadata map[string]string) (err error) {
	names := sd.Keys()

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}
	var off int64
	for _, name := range names {
		t := sd[name]
		n, nerr := state.NumElements(t.Shape)
		if nerr != nil {
			return fmt.Errorf("tensor %s: %w", name, nerr)
		}
		if n != len(t.Data) {
			return fmt.Errorf("tensor %s: %d values for shape %v", name, len(t.Data), t.Shape)
		}
		shape := t.Shape
		if shape == nil {
			shape = []int{}
		}
		size := int64(n * 4)
		header[name] = tensorHeader{
			DType:       "F32",
			Shape:       shape,
			DataOffsets: []int64{off, off + size},
		}
		off += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	//nolint:gosec // checkpoint paths come from the caller
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	var buf [4]byte
	for _, name := range names {
		for _, v := range sd[name].Data {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := w.Write(buf[:]); err != nil {
				return fmt.Errorf("write tensor %s: %w", name, err)
			}
		}
	}
	return w.Flush()
}
