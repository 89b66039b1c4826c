package msgpack

import (
	"reflect"
	"strings"
	"sync"
)

var fieldCache sync.Map // map[reflect.Type]structFields

// cachedTypeFields is like typeFields but uses a cache to avoid repeated work.
func cachedTypeFields(t reflect.Type) structFields {
	if f, ok := fieldCache.Load(t); ok {
		return f.(structFields)
	}
	f, _ := fieldCache.LoadOrStore(t, typeFields(t))
	return f.(structFields)
}

// structFields describes how a struct packs into a map family. Structs only
// ever travel outward, so a field list in emission order is all that is
// needed; decoding never targets structs.
type structFields struct {
	list []field
}

type field struct {
	name      string
	index     []int
	tag       bool
	omitEmpty bool
	encoder   encoderFunc
}

func typeFields(t reflect.Type) structFields {
	var all []field
	walkFields(t, nil, nil, &all)

	// Keep walk order (declaration order, embedded structs expanded in
	// place), dropping the fields Go's shadowing rules would hide.
	list := make([]field, 0, len(all))
	for i := range all {
		if dominantIndex(all, all[i].name) == i {
			list = append(list, all[i])
		}
	}

	for i := range list {
		f := &list[i]
		f.encoder = typeEncoder(typeByIndex(t, f.index))
	}

	return structFields{list: list}
}

// walkFields collects every candidate field of t, flattening untagged
// embedded structs. seen holds the types on the current embedding path to
// stop pointer-embedding cycles; a type embedded twice at one level is
// walked twice so that dominantIndex can annihilate the duplicates.
func walkFields(t reflect.Type, index []int, seen []reflect.Type, out *[]field) {
	for _, s := range seen {
		if s == t {
			return
		}
	}
	seen = append(seen, t)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		tag := sf.Tag.Get("msgpack")
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)

		if sf.Anonymous {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && (name == "" || !sf.IsExported()) {
				walkFields(ft, extend(index, i), seen, out)
				continue
			}
			if !sf.IsExported() {
				continue
			}
		} else if !sf.IsExported() {
			continue
		}

		f := field{
			name:      name,
			tag:       name != "",
			index:     extend(index, i),
			omitEmpty: opts.Contains("omitempty"),
		}
		if f.name == "" {
			f.name = sf.Name
		}
		*out = append(*out, f)
	}
}

func extend(index []int, i int) []int {
	p := make([]int, len(index)+1)
	copy(p, index)
	p[len(index)] = i
	return p
}

// dominantIndex resolves Go's rules for promoted fields: the shallowest
// field with a name wins, a tag breaks a tie at equal depth, and an
// unbroken tie hides the name entirely.
func dominantIndex(fields []field, name string) int {
	depth := -1
	for i := range fields {
		if fields[i].name == name && (depth == -1 || len(fields[i].index) < depth) {
			depth = len(fields[i].index)
		}
	}

	winner := -1
	taggedWinner := -1
	n, tagged := 0, 0
	for i := range fields {
		f := &fields[i]
		if f.name != name || len(f.index) != depth {
			continue
		}
		n++
		winner = i
		if f.tag {
			tagged++
			taggedWinner = i
		}
	}

	if n == 1 {
		return winner
	}
	if tagged == 1 {
		return taggedWinner
	}
	return -1
}

func typeByIndex(t reflect.Type, index []int) reflect.Type {
	for _, i := range index {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		t = t.Field(i).Type
	}
	return t
}

// tagOptions is the string following a comma in a struct field's tag, or
// the empty string. It does not include the leading comma.
type tagOptions string

// parseTag splits a struct field's tag into its name and comma-separated
// options.
func parseTag(tag string) (string, tagOptions) {
	tag, opt, _ := strings.Cut(tag, ",")
	return tag, tagOptions(opt)
}

// Contains reports whether a comma-separated list of options contains a
// particular substr flag.
func (o tagOptions) Contains(optionName string) bool {
	if len(o) == 0 {
		return false
	}
	s := string(o)
	for s != "" {
		var name string
		name, s, _ = strings.Cut(s, ",")
		if name == optionName {
			return true
		}
	}
	return false
}
