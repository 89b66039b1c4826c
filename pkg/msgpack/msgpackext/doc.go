// Package msgpackext extends the codec with Go types beyond the wire
// format's native taxonomy. Importing it for side effects registers the
// codecs:
//
//	import _ "github.com/octohelm/msgpack/pkg/msgpack/msgpackext"
package msgpackext
