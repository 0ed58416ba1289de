// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package capturepb contains the messages exchanged with the capture service
// and stored in capture files. Messages are encoded in the protobuf wire
// format with google.golang.org/protobuf/encoding/protowire; zero-valued
// scalar fields are omitted and unknown fields are skipped on decode.
package capturepb

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrTruncated is returned when a framed record is cut short.
var ErrTruncated = errors.New("truncated record")

// message is implemented by every type in this package.
type message interface {
	marshalTo(e *encoder)
	unmarshalField(f field) error
}

// encoder appends protobuf fields to a byte slice.
type encoder struct {
	b []byte
}

func (e *encoder) uint64(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) uint32(num protowire.Number, v uint32) {
	e.uint64(num, uint64(v))
}

func (e *encoder) int32(num protowire.Number, v int32) {
	// int32 is sign extended to 64 bits on the wire.
	e.uint64(num, uint64(int64(v)))
}

func (e *encoder) bool(num protowire.Number, v bool) {
	if v {
		e.uint64(num, 1)
	}
}

func (e *encoder) double(num protowire.Number, v float64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.Fixed64Type)
	e.b = protowire.AppendFixed64(e.b, math.Float64bits(v))
}

func (e *encoder) float(num protowire.Number, v float32) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.Fixed32Type)
	e.b = protowire.AppendFixed32(e.b, math.Float32bits(v))
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) packed(num protowire.Number, vs []uint64) {
	if len(vs) == 0 {
		return
	}
	size := 0
	for _, v := range vs {
		size += protowire.SizeVarint(v)
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendVarint(e.b, uint64(size))
	for _, v := range vs {
		e.b = protowire.AppendVarint(e.b, v)
	}
}

// message always writes the field, even for an empty message, so that a
// oneof member survives a round trip.
func (e *encoder) message(num protowire.Number, m message) {
	inner := encoder{}
	m.marshalTo(&inner)
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, inner.b)
}

// field is one decoded (number, value) pair. Varint, fixed32 and fixed64
// values land in scalar; length-delimited values in bytes.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	scalar uint64
	bytes  []byte
}

func (f field) uint32() uint32   { return uint32(f.scalar) }
func (f field) int32() int32     { return int32(f.scalar) }
func (f field) bool() bool       { return f.scalar != 0 }
func (f field) string() string   { return string(f.bytes) }
func (f field) double() float64  { return math.Float64frombits(f.scalar) }
func (f field) float() float32   { return math.Float32frombits(uint32(f.scalar)) }
func (f field) isBytes() bool    { return f.typ == protowire.BytesType }
func (f field) isVarint() bool   { return f.typ == protowire.VarintType }
func (f field) number() int      { return int(f.num) }
func (f field) wireType() string { return fmt.Sprintf("%d", f.typ) }

// uint64s decodes a repeated uint64 field, packed or not.
func (f field) uint64s(dst []uint64) ([]uint64, error) {
	if f.isVarint() {
		return append(dst, f.scalar), nil
	}
	if !f.isBytes() {
		return dst, fmt.Errorf("field %d: unexpected wire type %s for repeated varint", f.number(), f.wireType())
	}
	b := f.bytes
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return dst, protowire.ParseError(n)
		}
		dst = append(dst, v)
		b = b[n:]
	}
	return dst, nil
}

func (f field) message(m message) error {
	if !f.isBytes() {
		return fmt.Errorf("field %d: expected a message, got wire type %s", f.number(), f.wireType())
	}
	return unmarshalMessage(f.bytes, m)
}

func forEachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.scalar, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.scalar, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.scalar = uint64(v)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func marshalMessage(m message) []byte {
	e := encoder{}
	m.marshalTo(&e)
	return e.b
}

func unmarshalMessage(b []byte, m message) error {
	return forEachField(b, m.unmarshalField)
}

// AppendFramed appends the varint length of payload followed by payload.
func AppendFramed(dst []byte, payload []byte) []byte {
	dst = protowire.AppendVarint(dst, uint64(len(payload)))
	return append(dst, payload...)
}

// ConsumeFramed parses one framed record from the front of src and returns
// its payload and the number of bytes consumed.
func ConsumeFramed(src []byte) ([]byte, int, error) {
	size, n := protowire.ConsumeVarint(src)
	if n < 0 {
		return nil, 0, ErrTruncated
	}
	if uint64(len(src)-n) < size {
		return nil, 0, ErrTruncated
	}
	end := n + int(size)
	return src[n:end], end, nil
}
