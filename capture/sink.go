package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/tokenline/tokenline/errs"
)

// Direction tags which side of the serial link a record came from.
type Direction uint8

const (
	DirTx Direction = 0x1 // DirTx marks a transmitted line.
	DirRx Direction = 0x2 // DirRx marks a received line.
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirTx:
		return "TX"
	case DirRx:
		return "RX"
	default:
		return "Unknown"
	}
}

// Record is one captured line with its direction and tick timestamp.
type Record struct {
	Dir  Direction
	Tick uint32
	Data []byte
}

// Stream layout:
//
//	[magic u16] [codec u8] [payload...]
//
// where the decompressed payload is a sequence of records, each
//
//	[dir u8] [tick u32] [len u32] [data...]
//
// All integers little-endian.
const (
	streamMagic  = 0x544C // "TL"
	headerSize   = 3
	recHeadSize  = 9
	maxRecordLen = 1 << 20
)

// Sink accumulates capture records in memory.
type Sink struct {
	records []Record
}

// NewSink creates an empty capture sink.
func NewSink() *Sink {
	return &Sink{}
}

// Record appends one line. The data is copied, so the caller may reuse its
// buffer.
func (s *Sink) Record(dir Direction, tick uint32, data []byte) {
	s.records = append(s.records, Record{
		Dir:  dir,
		Tick: tick,
		Data: append([]byte(nil), data...),
	})
}

// Len returns the number of captured records.
func (s *Sink) Len() int {
	return len(s.records)
}

// Records returns the captured records in arrival order.
func (s *Sink) Records() []Record {
	return s.records
}

// Encode serializes the capture into a self-describing stream compressed
// with the given codec.
func (s *Sink) Encode(codec CodecType) ([]byte, error) {
	c, err := newCodec(codec)
	if err != nil {
		return nil, err
	}

	size := 0
	for _, rec := range s.records {
		size += recHeadSize + len(rec.Data)
	}

	payload := make([]byte, 0, size)
	for _, rec := range s.records {
		payload = append(payload, byte(rec.Dir))
		payload = binary.LittleEndian.AppendUint32(payload, rec.Tick)
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(rec.Data)))
		payload = append(payload, rec.Data...)
	}

	compressed, err := c.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress capture payload: %w", err)
	}

	out := make([]byte, 0, headerSize+len(compressed))
	out = binary.LittleEndian.AppendUint16(out, streamMagic)
	out = append(out, byte(codec))
	out = append(out, compressed...)

	return out, nil
}

// Replay decodes a capture stream produced by Encode back into records.
func Replay(stream []byte) ([]Record, error) {
	if len(stream) < headerSize {
		return nil, fmt.Errorf("%w: stream shorter than header", errs.ErrCorruptCapture)
	}

	if binary.LittleEndian.Uint16(stream) != streamMagic {
		return nil, fmt.Errorf("%w: bad magic", errs.ErrCorruptCapture)
	}

	c, err := newCodec(CodecType(stream[2]))
	if err != nil {
		return nil, err
	}

	payload, err := c.Decompress(stream[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptCapture, err)
	}

	var records []Record
	for off := 0; off < len(payload); {
		if len(payload)-off < recHeadSize {
			return nil, fmt.Errorf("%w: truncated record header", errs.ErrCorruptCapture)
		}

		dir := Direction(payload[off])
		tickVal := binary.LittleEndian.Uint32(payload[off+1:])
		dataLen := binary.LittleEndian.Uint32(payload[off+5:])
		off += recHeadSize

		if dataLen > maxRecordLen || len(payload)-off < int(dataLen) {
			return nil, fmt.Errorf("%w: truncated record data", errs.ErrCorruptCapture)
		}

		records = append(records, Record{
			Dir:  dir,
			Tick: tickVal,
			Data: append([]byte(nil), payload[off:off+int(dataLen)]...),
		})
		off += int(dataLen)
	}

	return records, nil
}
