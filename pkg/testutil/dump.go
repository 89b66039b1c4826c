package testutil

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

var conf = spew.ConfigState{
	Indent:         "  ",
	DisableMethods: true,
	SortKeys:       true,
}

// Dump logs a deep rendering of v, keeping nested decoded structures
// readable when a test fails.
func Dump(t testing.TB, v any) {
	t.Helper()
	t.Log(conf.Sdump(v))
}
