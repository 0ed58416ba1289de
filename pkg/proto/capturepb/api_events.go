// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package capturepb

// ApiScopeStartAsync opens a manually instrumented scope that may be closed
// on another thread. Start and stop are paired by ID.
type ApiScopeStartAsync struct {
	Pid               uint32
	Tid               uint32
	TimestampNs       uint64
	Name              string
	ID                uint64
	AddressInFunction uint64
	ColorRGBA         uint32
}

// ScopeName implements eventid.ScopeEvent.
func (m *ApiScopeStartAsync) ScopeName() string { return m.Name }

// ScopeGroupID implements eventid.ScopeEvent. Async scopes have no group.
func (m *ApiScopeStartAsync) ScopeGroupID() uint64 { return 0 }

func (m *ApiScopeStartAsync) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.TimestampNs)
	e.string(4, m.Name)
	e.uint64(5, m.ID)
	e.uint64(6, m.AddressInFunction)
	e.uint32(7, m.ColorRGBA)
}

func (m *ApiScopeStartAsync) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.TimestampNs = f.scalar
	case 4:
		m.Name = f.string()
	case 5:
		m.ID = f.scalar
	case 6:
		m.AddressInFunction = f.scalar
	case 7:
		m.ColorRGBA = f.uint32()
	}
	return nil
}

// ApiScopeStopAsync closes the async scope with the same ID.
type ApiScopeStopAsync struct {
	Pid         uint32
	Tid         uint32
	TimestampNs uint64
	ID          uint64
}

func (m *ApiScopeStopAsync) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.TimestampNs)
	e.uint64(4, m.ID)
}

func (m *ApiScopeStopAsync) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.TimestampNs = f.scalar
	case 4:
		m.ID = f.scalar
	}
	return nil
}

// ApiStringEvent attaches a string to the async scope with the same ID.
type ApiStringEvent struct {
	Pid         uint32
	Tid         uint32
	TimestampNs uint64
	ID          uint64
	Name        string
}

func (m *ApiStringEvent) marshalTo(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.TimestampNs)
	e.uint64(4, m.ID)
	e.string(5, m.Name)
}

func (m *ApiStringEvent) unmarshalField(f field) error {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.TimestampNs = f.scalar
	case 4:
		m.ID = f.scalar
	case 5:
		m.Name = f.string()
	}
	return nil
}

// ApiTrack holds the fields shared by every track value. The value itself
// is field 5 of each ApiTrack message.
type ApiTrack struct {
	Pid         uint32
	Tid         uint32
	TimestampNs uint64
	Name        string
}

func (m *ApiTrack) marshalTrack(e *encoder) {
	e.uint32(1, m.Pid)
	e.uint32(2, m.Tid)
	e.uint64(3, m.TimestampNs)
	e.string(4, m.Name)
}

func (m *ApiTrack) unmarshalTrack(f field) {
	switch f.num {
	case 1:
		m.Pid = f.uint32()
	case 2:
		m.Tid = f.uint32()
	case 3:
		m.TimestampNs = f.scalar
	case 4:
		m.Name = f.string()
	}
}

const trackDataField = 5

// ApiTrackInt is a sample of an int32 valued track.
type ApiTrackInt struct {
	ApiTrack
	Data int32
}

func (m *ApiTrackInt) marshalTo(e *encoder) {
	m.marshalTrack(e)
	e.int32(trackDataField, m.Data)
}

func (m *ApiTrackInt) unmarshalField(f field) error {
	if f.num == trackDataField {
		m.Data = f.int32()
		return nil
	}
	m.unmarshalTrack(f)
	return nil
}

// ApiTrackInt64 is a sample of an int64 valued track.
type ApiTrackInt64 struct {
	ApiTrack
	Data int64
}

func (m *ApiTrackInt64) marshalTo(e *encoder) {
	m.marshalTrack(e)
	e.uint64(trackDataField, uint64(m.Data))
}

func (m *ApiTrackInt64) unmarshalField(f field) error {
	if f.num == trackDataField {
		m.Data = int64(f.scalar)
		return nil
	}
	m.unmarshalTrack(f)
	return nil
}

// ApiTrackUint is a sample of a uint32 valued track.
type ApiTrackUint struct {
	ApiTrack
	Data uint32
}

func (m *ApiTrackUint) marshalTo(e *encoder) {
	m.marshalTrack(e)
	e.uint32(trackDataField, m.Data)
}

func (m *ApiTrackUint) unmarshalField(f field) error {
	if f.num == trackDataField {
		m.Data = f.uint32()
		return nil
	}
	m.unmarshalTrack(f)
	return nil
}

// ApiTrackUint64 is a sample of a uint64 valued track.
type ApiTrackUint64 struct {
	ApiTrack
	Data uint64
}

func (m *ApiTrackUint64) marshalTo(e *encoder) {
	m.marshalTrack(e)
	e.uint64(trackDataField, m.Data)
}

func (m *ApiTrackUint64) unmarshalField(f field) error {
	if f.num == trackDataField {
		m.Data = f.scalar
		return nil
	}
	m.unmarshalTrack(f)
	return nil
}

// ApiTrackFloat is a sample of a float32 valued track.
type ApiTrackFloat struct {
	ApiTrack
	Data float32
}

func (m *ApiTrackFloat) marshalTo(e *encoder) {
	m.marshalTrack(e)
	e.float(trackDataField, m.Data)
}

func (m *ApiTrackFloat) unmarshalField(f field) error {
	if f.num == trackDataField {
		m.Data = f.float()
		return nil
	}
	m.unmarshalTrack(f)
	return nil
}

// ApiTrackDouble is a sample of a float64 valued track.
type ApiTrackDouble struct {
	ApiTrack
	Data float64
}

func (m *ApiTrackDouble) marshalTo(e *encoder) {
	m.marshalTrack(e)
	e.double(trackDataField, m.Data)
}

func (m *ApiTrackDouble) unmarshalField(f field) error {
	if f.num == trackDataField {
		m.Data = f.double()
		return nil
	}
	m.unmarshalTrack(f)
	return nil
}
