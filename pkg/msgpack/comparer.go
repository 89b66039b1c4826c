package msgpack

import "bytes"

// Equal reports whether two encoded documents are byte-identical. With
// minimal-width encoding, equal values encode to equal bytes.
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// Compare orders encoded documents by raw bytes. Used to give unordered Go
// maps a deterministic serialization order.
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}
