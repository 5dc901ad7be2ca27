// Package strtable rebuilds the per-file string table that String arguments
// reference by index once a ScriptFile is serialized.
package strtable

import "github.com/zurustar/bsscript/pkg/script"

// Rebuild replaces f.Strings with a fresh table and rewrites the numeric
// view of every String argument to its index in that table.
//
// Scripts, commands and arguments are visited in declaration order. The
// first occurrence of a value decides its index; later occurrences reuse it.
// Identical content therefore always produces the identical table.
func Rebuild(f *script.ScriptFile) {
	strs := make([]string, 0)
	index := make(map[string]int32)

	for _, s := range f.Scripts {
		for _, cmd := range s.Commands {
			for i := range cmd.Arguments {
				arg := &cmd.Arguments[i]
				if !arg.IsString() {
					continue
				}
				v := arg.StringValue()
				idx, ok := index[v]
				if !ok {
					idx = int32(len(strs))
					index[v] = idx
					strs = append(strs, v)
				}
				arg.SetNumberValue(idx)
			}
		}
	}

	f.Strings = strs
}

// RebuildAll rebuilds the table of every file in the batch.
func RebuildAll(files []*script.ScriptFile) {
	for _, f := range files {
		Rebuild(f)
	}
}

// Resolve returns the string referenced by an interned String argument.
// ok is false when the argument is not a String or its index is out of range.
func Resolve(f *script.ScriptFile, arg script.Argument) (string, bool) {
	if !arg.IsString() {
		return "", false
	}
	idx := arg.NumberValue()
	if idx < 0 || int(idx) >= len(f.Strings) {
		return "", false
	}
	return f.Strings[idx], true
}
