package vectorindex

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// FormatVersion identifies the blob encoding written by Encode.
const FormatVersion = "scribe-flat-v1"

var magic = [8]byte{'S', 'C', 'R', 'I', 'D', 'X', '1', '\n'}

// maxMetricLen bounds the metric name in the header.
const maxMetricLen = 32

// Encode serialises the index:
//
//	magic[8] | dim u32 | count u32 | metricLen u8 | metric | count*dim f32 | chunksLen u32 | chunks JSON
//
// All integers and floats are little-endian.
func Encode(x *Index) ([]byte, error) {
	chunks, err := json.Marshal(x.chunks)
	if err != nil {
		return nil, fmt.Errorf("encode chunks: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(magic) + 9 + len(x.metric) + 4*x.dimension*len(x.vectors) + 4 + len(chunks))

	buf.Write(magic[:])
	writeU32(&buf, uint32(x.dimension))
	writeU32(&buf, uint32(len(x.vectors)))
	buf.WriteByte(byte(len(x.metric)))
	buf.WriteString(string(x.metric))

	var f [4]byte
	for _, v := range x.vectors {
		for _, val := range v {
			binary.LittleEndian.PutUint32(f[:], math.Float32bits(val))
			buf.Write(f[:])
		}
	}

	writeU32(&buf, uint32(len(chunks)))
	buf.Write(chunks)
	return buf.Bytes(), nil
}

// Decode parses a blob written by Encode. Any structural problem is reported
// as domain.ErrIndexCorrupt.
func Decode(data []byte, srdID string, version int, builtAt time.Time) (*Index, error) {
	r := bytes.NewReader(data)

	var m [8]byte
	if _, err := io.ReadFull(r, m[:]); err != nil || m != magic {
		return nil, corrupt("bad magic")
	}

	dim, err := readU32(r)
	if err != nil {
		return nil, corrupt("truncated header")
	}
	count, err := readU32(r)
	if err != nil {
		return nil, corrupt("truncated header")
	}
	metricLen, err := r.ReadByte()
	if err != nil || metricLen == 0 || metricLen > maxMetricLen {
		return nil, corrupt("bad metric length")
	}
	metricName := make([]byte, metricLen)
	if _, err := io.ReadFull(r, metricName); err != nil {
		return nil, corrupt("truncated metric")
	}
	metric, err := domain.ParseMetric(string(metricName))
	if err != nil {
		return nil, corrupt("unknown metric " + string(metricName))
	}

	if dim == 0 && count > 0 {
		return nil, corrupt("zero dimension")
	}
	need := uint64(dim) * uint64(count) * 4
	if need > uint64(r.Len()) {
		return nil, corrupt("truncated vectors")
	}
	vectors := make([][]float32, count)
	var f [4]byte
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			_, _ = io.ReadFull(r, f[:])
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(f[:]))
		}
		vectors[i] = v
	}

	chunksLen, err := readU32(r)
	if err != nil || int(chunksLen) != r.Len() {
		return nil, corrupt("bad chunk table length")
	}
	var chunks []domain.Chunk
	if err := json.NewDecoder(r).Decode(&chunks); err != nil {
		return nil, corrupt("chunk table: " + err.Error())
	}
	if len(chunks) != int(count) {
		return nil, corrupt(fmt.Sprintf("%d chunks for %d vectors", len(chunks), count))
	}

	for i := range chunks {
		if chunks[i].Index != i {
			return nil, corrupt(fmt.Sprintf("chunk %d out of sequence", i))
		}
	}

	return &Index{
		srdID:     srdID,
		version:   version,
		metric:    metric,
		dimension: int(dim),
		builtAt:   builtAt,
		chunks:    chunks,
		vectors:   vectors,
	}, nil
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func corrupt(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrIndexCorrupt, reason)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
