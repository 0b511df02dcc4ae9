package storage

import "encoding/binary"

// Little-endian helpers over raw page buffers, grounded on the
// internal/alias/bx helper pattern: thin, allocation-free wrappers around
// encoding/binary so callers never repeat the endianness decision.
var le = binary.LittleEndian

func GetU16(b []byte, offset int) uint16 { return le.Uint16(b[offset:]) }
func PutU16(b []byte, offset int, v uint16) { le.PutUint16(b[offset:], v) }

func GetU32(b []byte, offset int) uint32 { return le.Uint32(b[offset:]) }
func PutU32(b []byte, offset int, v uint32) { le.PutUint32(b[offset:], v) }

func GetU64(b []byte, offset int) uint64 { return le.Uint64(b[offset:]) }
func PutU64(b []byte, offset int, v uint64) { le.PutUint64(b[offset:], v) }

func GetI32(b []byte, offset int) int32 { return int32(GetU32(b, offset)) }
func PutI32(b []byte, offset int, v int32) { PutU32(b, offset, uint32(v)) }
