package kernstate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// SnapshotVersion is incremented on any layout change.
const SnapshotVersion uint32 = 1

var magic = [8]byte{'N', 'E', 'G', 'S', 'T', 'A', 'T', 'E'}

// ErrBadMagic, ErrBadVersion, and ErrHashMismatch classify snapshot
// rejection reasons.
var (
	ErrBadMagic     = fmt.Errorf("kernstate: snapshot magic mismatch")
	ErrBadVersion   = fmt.Errorf("kernstate: unsupported snapshot version")
	ErrHashMismatch = fmt.Errorf("kernstate: content hash mismatch")
	ErrTruncated    = fmt.Errorf("kernstate: snapshot buffer truncated")
)

// contentHash computes the FNV-1a placeholder content hash, pending a
// future XXH3 adoption.
func contentHash(buf []byte) uint64 {
	h := fnv.New64a()
	h.Write(buf)
	return h.Sum64()
}

// Encode serializes s into the binary wire format:
// magic, version, timestamp (ms), content hash, data size, then the
// body (entity count, pose records, scalar field count, scalar bytes).
// The hash is computed over the completed buffer with the hash field
// held at zero, then patched in afterward.
func Encode(s *State) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := binary.Write(&body, binary.LittleEndian, s.Header.EntityCount); err != nil {
		return nil, err
	}
	for _, p := range s.Poses {
		if err := binary.Write(&body, binary.LittleEndian, p); err != nil {
			return nil, err
		}
	}
	if err := binary.Write(&body, binary.LittleEndian, s.Header.ScalarFieldCount); err != nil {
		return nil, err
	}
	if err := binary.Write(&body, binary.LittleEndian, s.Scalars); err != nil {
		return nil, err
	}

	bodyBytes := body.Bytes()

	var buf bytes.Buffer
	buf.Write(magic[:])
	binary.Write(&buf, binary.LittleEndian, SnapshotVersion)
	binary.Write(&buf, binary.LittleEndian, s.Header.TimestampMicros/1000)
	binary.Write(&buf, binary.LittleEndian, uint64(0)) // placeholder hash
	binary.Write(&buf, binary.LittleEndian, uint32(len(bodyBytes)))
	buf.Write(bodyBytes)

	full := buf.Bytes()
	hash := contentHash(full)
	binary.LittleEndian.PutUint64(full[8+4+8:8+4+8+8], hash)

	return full, nil
}

const headerFixedSize = 8 + 4 + 8 + 8 + 4 // magic+version+timestamp+hash+size

// Decode validates and parses a snapshot buffer into a State,
// rejecting it before any mutation occurs if the magic, version,
// bounds, or content hash do not check out.
func Decode(buf []byte) (*State, error) {
	if len(buf) < headerFixedSize {
		return nil, ErrTruncated
	}
	if !bytes.Equal(buf[0:8], magic[:]) {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(buf[8:12])
	if version != SnapshotVersion {
		return nil, ErrBadVersion
	}
	tsMillis := binary.LittleEndian.Uint64(buf[12:20])
	storedHash := binary.LittleEndian.Uint64(buf[20:28])
	dataSize := binary.LittleEndian.Uint32(buf[28:32])

	if uint64(len(buf)) < uint64(headerFixedSize)+uint64(dataSize) {
		return nil, ErrTruncated
	}
	body := buf[headerFixedSize : uint64(headerFixedSize)+uint64(dataSize)]

	verifyBuf := make([]byte, len(buf))
	copy(verifyBuf, buf)
	binary.LittleEndian.PutUint64(verifyBuf[20:28], 0)
	if gotHash := contentHash(verifyBuf); gotHash != storedHash {
		return nil, ErrHashMismatch
	}

	r := bytes.NewReader(body)
	var entityCount uint32
	if err := binary.Read(r, binary.LittleEndian, &entityCount); err != nil {
		return nil, ErrTruncated
	}

	poses := make([]PoseRecord, entityCount)
	for i := range poses {
		if err := binary.Read(r, binary.LittleEndian, &poses[i]); err != nil {
			return nil, ErrTruncated
		}
	}

	var scalarFieldCount uint32
	if err := binary.Read(r, binary.LittleEndian, &scalarFieldCount); err != nil {
		return nil, ErrTruncated
	}
	scalars := make([]float32, uint64(entityCount)*uint64(scalarFieldCount))
	if err := binary.Read(r, binary.LittleEndian, &scalars); err != nil {
		return nil, ErrTruncated
	}

	s := &State{
		Header: Header{
			EntityCount:      entityCount,
			ScalarFieldCount: scalarFieldCount,
			TimestampMicros:  tsMillis * 1000,
		},
		Poses:   poses,
		Scalars: scalars,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// DecodeUnchecked parses a snapshot buffer without verifying the
// content hash, exposed so callers can observe divergence directly in
// the decoded pose array when hash verification is deliberately
// skipped.
func DecodeUnchecked(buf []byte) (*State, error) {
	if len(buf) < headerFixedSize {
		return nil, ErrTruncated
	}
	if !bytes.Equal(buf[0:8], magic[:]) {
		return nil, ErrBadMagic
	}
	dataSize := binary.LittleEndian.Uint32(buf[28:32])
	if uint64(len(buf)) < uint64(headerFixedSize)+uint64(dataSize) {
		return nil, ErrTruncated
	}
	body := buf[headerFixedSize : uint64(headerFixedSize)+uint64(dataSize)]

	r := bytes.NewReader(body)
	var entityCount uint32
	if err := binary.Read(r, binary.LittleEndian, &entityCount); err != nil {
		return nil, ErrTruncated
	}
	poses := make([]PoseRecord, entityCount)
	for i := range poses {
		if err := binary.Read(r, binary.LittleEndian, &poses[i]); err != nil {
			return nil, ErrTruncated
		}
	}
	var scalarFieldCount uint32
	if err := binary.Read(r, binary.LittleEndian, &scalarFieldCount); err != nil {
		return nil, ErrTruncated
	}
	scalars := make([]float32, uint64(entityCount)*uint64(scalarFieldCount))
	if err := binary.Read(r, binary.LittleEndian, &scalars); err != nil {
		return nil, ErrTruncated
	}
	return &State{
		Header: Header{EntityCount: entityCount, ScalarFieldCount: scalarFieldCount},
		Poses:  poses, Scalars: scalars,
	}, nil
}
