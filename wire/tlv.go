package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// tlv is a minimal tag-length-value writer/reader. Every field is written as
// (tag byte, uvarint length, value bytes). This gives peers written in
// different languages a bit-for-bit compatible wire format without requiring
// a shared schema compiler.

type writer struct {
	buf bytes.Buffer
}

func newWriter() *writer { return &writer{} }

func (w *writer) field(tag byte, value []byte) {
	w.buf.WriteByte(tag)
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(value)))
	w.buf.Write(lenBuf[:n])
	w.buf.Write(value)
}

func (w *writer) uint64Field(tag byte, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.field(tag, b[:])
}

func (w *writer) uint8Field(tag byte, v uint8) {
	w.field(tag, []byte{v})
}

func (w *writer) stringField(tag byte, s string) {
	w.field(tag, []byte(s))
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }

type rawField struct {
	tag   byte
	value []byte
}

// readFields parses a flat sequence of TLV fields from data. It does not
// recurse; a nested value parses its own blob separately (an attribute map,
// for example, is a count-prefixed list of pairs read by decodeAttrs).
func readFields(data []byte) ([]rawField, error) {
	var fields []rawField
	for len(data) > 0 {
		tag := data[0]
		data = data[1:]
		length, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, fmt.Errorf("wire: malformed length prefix for tag %d", tag)
		}
		data = data[n:]
		if uint64(len(data)) < length {
			return nil, fmt.Errorf("wire: truncated value for tag %d: need %d, have %d", tag, length, len(data))
		}
		fields = append(fields, rawField{tag: tag, value: data[:length]})
		data = data[length:]
	}
	return fields, nil
}

func fieldMap(fields []rawField) map[byte][]byte {
	m := make(map[byte][]byte, len(fields))
	for _, f := range fields {
		m[f.tag] = f.value
	}
	return m
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("wire: expected 8-byte uint64, got %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func decodeUint8(b []byte) (uint8, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("wire: expected 1-byte uint8, got %d bytes", len(b))
	}
	return b[0], nil
}
