// Package msgpack implements the MessagePack binary serialization format:
// a packer with minimal-width encoding, a strict prefix-directed unpacker,
// a streaming unpacker for chunked byte sources, and a process-wide
// extension registry for application types.
//
// Timestamps and the pre-2013 wire format are not supported.
package msgpack
