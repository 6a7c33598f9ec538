package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/embedviz/codec"
	"github.com/hupe1980/embedviz/internal/hash"
)

// Frame layout (little endian):
//
//	magic     [4]byte  "EVZ1"
//	version   uint8
//	compress  uint8
//	codecLen  uint8
//	codec     [codecLen]byte
//	rawLen    uint32   payload size before compression
//	storedLen uint32
//	checksum  uint32   CRC32C of the stored payload
//	payload   [storedLen]byte
const (
	frameMagic   = "EVZ1"
	frameVersion = 1
	fixedHeader  = 4 + 1 + 1 + 1
	sizesLen     = 4 + 4 + 4
)

// encodeFrame serializes v with c and compresses the result.
func encodeFrame(v any, c codec.Codec, comp Compression) ([]byte, error) {
	raw, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("archive: encode: %w", err)
	}
	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("archive: codec name %q too long", name)
	}

	stored, used, err := compress(raw, comp)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, fixedHeader+len(name)+sizesLen+len(stored))
	buf = append(buf, frameMagic...)
	buf = append(buf, frameVersion, byte(used), byte(len(name)))
	buf = append(buf, name...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(raw)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(stored)))
	buf = binary.LittleEndian.AppendUint32(buf, hash.CRC32C(stored))
	buf = append(buf, stored...)
	return buf, nil
}

// frameHeader describes a decoded frame.
type frameHeader struct {
	Version     uint8
	Compression Compression
	Codec       string
	RawLen      int
	StoredLen   int
}

// decodeFrame validates data and decodes its payload into v.
func decodeFrame(data []byte, v any) (frameHeader, error) {
	var h frameHeader
	if len(data) < fixedHeader || string(data[:4]) != frameMagic {
		return h, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	h.Version = data[4]
	if h.Version != frameVersion {
		return h, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, h.Version)
	}
	h.Compression = Compression(data[5])
	nameLen := int(data[6])

	off := fixedHeader
	if len(data) < off+nameLen+sizesLen {
		return h, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	h.Codec = string(data[off : off+nameLen])
	off += nameLen

	h.RawLen = int(binary.LittleEndian.Uint32(data[off:]))
	h.StoredLen = int(binary.LittleEndian.Uint32(data[off+4:]))
	sum := binary.LittleEndian.Uint32(data[off+8:])
	off += sizesLen

	if len(data)-off != h.StoredLen {
		return h, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(data)-off, h.StoredLen)
	}
	stored := data[off:]
	if hash.CRC32C(stored) != sum {
		return h, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	c, ok := codec.ByName(h.Codec)
	if !ok {
		return h, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, h.Codec)
	}
	raw, err := decompress(stored, h.Compression, h.RawLen)
	if err != nil {
		return h, err
	}
	if err := c.Unmarshal(raw, v); err != nil {
		return h, fmt.Errorf("%w: decode: %v", ErrCorrupt, err)
	}
	return h, nil
}
