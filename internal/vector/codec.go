package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hyperjump/kura/internal/models"
)

// Binary layout: magic "KVEC", version (uint32), dimension (uint32), count (uint32),
// then count*dimension little-endian float32 values.
const (
	codecMagic   = "KVEC"
	codecVersion = 1
	headerSize   = 16
)

// MarshalBinary encodes the index.
func (f *FlatIndex) MarshalBinary() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	buf := make([]byte, headerSize, headerSize+len(f.vectors)*f.dimension*4)
	copy(buf, codecMagic)
	binary.LittleEndian.PutUint32(buf[4:], codecVersion)
	binary.LittleEndian.PutUint32(buf[8:], uint32(f.dimension))
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(f.vectors)))
	for _, vec := range f.vectors {
		buf = append(buf, float32SliceToBytes(vec)...)
	}
	return buf, nil
}

// UnmarshalBinary replaces the index contents with the decoded data. Malformed input
// yields ErrCorruptState and leaves the index unchanged.
func (f *FlatIndex) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("%w: vector blob too short (%d bytes)", models.ErrCorruptState, len(data))
	}
	if string(data[:4]) != codecMagic {
		return fmt.Errorf("%w: bad vector blob magic", models.ErrCorruptState)
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != codecVersion {
		return fmt.Errorf("%w: unsupported vector blob version %d", models.ErrCorruptState, v)
	}
	dim := int(binary.LittleEndian.Uint32(data[8:]))
	count := int(binary.LittleEndian.Uint32(data[12:]))
	if dim == 0 || count == 0 {
		return fmt.Errorf("%w: vector blob has dimension %d and count %d", models.ErrCorruptState, dim, count)
	}
	payload := data[headerSize:]
	if uint64(len(payload)) != uint64(dim)*uint64(count)*4 {
		return fmt.Errorf("%w: vector blob payload is %d bytes, expected %d",
			models.ErrCorruptState, len(payload), uint64(dim)*uint64(count)*4)
	}
	vectors := make([][]float32, count)
	stride := dim * 4
	for i := range vectors {
		vectors[i] = bytesToFloat32Slice(payload[i*stride : (i+1)*stride])
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dimension = dim
	f.vectors = vectors
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	b := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func bytesToFloat32Slice(b []byte) []float32 {
	n := len(b) / 4
	s := make([]float32, n)
	for i := 0; i < n; i++ {
		s[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return s
}
