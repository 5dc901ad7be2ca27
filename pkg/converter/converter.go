// Package converter maps bundle entries (typetree.Field) to and from the
// script model.
//
// Decoding resolves String arguments through the entry's StrList so the
// model never sees raw indices. Encoding writes every argument's numeric
// view verbatim; callers must rebuild string tables (see package strtable)
// before encoding.
package converter

import (
	"fmt"
	"math"
	"sort"

	"github.com/zurustar/bsscript/pkg/script"
	"github.com/zurustar/bsscript/pkg/strtable"
	"github.com/zurustar/bsscript/pkg/typetree"
)

// Field names of a script-bearing entry.
const (
	FieldName     = "m_Name"
	FieldFileName = "FileName"
	FieldPathID   = "PathID"
	FieldStrList  = "StrList"
	FieldScripts  = "Scripts"
	FieldLabel    = "Label"
	FieldCommands = "Commands"
	FieldArg      = "Arg"
	FieldArgType  = "argType"
	FieldData     = "data"
)

// HasScripts reports whether an entry carries scripts. Entries without a
// Scripts field, or with an empty one, are not script assets.
func HasScripts(root *typetree.Field) bool {
	return root.Get(FieldScripts).Len() > 0
}

// Decode converts one entry into a ScriptFile.
func Decode(pathID int64, root *typetree.Field) (*script.ScriptFile, error) {
	d := &decoder{pathID: pathID}
	return d.decode(root)
}

// DecodeAll decodes every script-bearing entry in ascending path ID order.
// Malformed entries are reported individually and do not stop the batch.
func DecodeAll(entries map[int64]*typetree.Field) ([]*script.ScriptFile, []error) {
	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var files []*script.ScriptFile
	var errs []error
	for _, id := range ids {
		root := entries[id]
		if !HasScripts(root) {
			continue
		}
		f, err := Decode(id, root)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		files = append(files, f)
	}
	return files, errs
}

type decoder struct {
	pathID int64
	// table holds the entry's StrList while arguments are resolved.
	table *script.ScriptFile
}

func (d *decoder) fail(path string, cause error, format string, args ...any) error {
	return &DecodeError{
		PathID: d.pathID,
		Path:   path,
		Err:    fmt.Errorf("%w: %s", cause, fmt.Sprintf(format, args...)),
	}
}

func (d *decoder) decode(root *typetree.Field) (*script.ScriptFile, error) {
	if root == nil {
		return nil, d.fail("", ErrMalformedField, "entry is nil")
	}

	name, err := d.fileName(root)
	if err != nil {
		return nil, err
	}

	strList := root.Get(FieldStrList)
	strs := make([]string, 0, strList.Len())
	for i, item := range childrenOf(strList) {
		s, err := item.AsString()
		if err != nil {
			return nil, d.fail(fmt.Sprintf("%s[%d]", FieldStrList, i), ErrMalformedField, "%v", err)
		}
		strs = append(strs, s)
	}
	d.table = &script.ScriptFile{Strings: strs}

	scriptsField := root.Get(FieldScripts)
	scripts := make([]*script.Script, 0, scriptsField.Len())
	for i, sf := range childrenOf(scriptsField) {
		s, err := d.decodeScript(fmt.Sprintf("%s[%d]", FieldScripts, i), sf)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}

	return &script.ScriptFile{
		FileName: name,
		PathID:   d.pathID,
		Scripts:  scripts,
		Strings:  strs,
	}, nil
}

func (d *decoder) fileName(root *typetree.Field) (string, error) {
	f := root.Get(FieldName)
	path := FieldName
	if f == nil {
		f = root.Get(FieldFileName)
		path = FieldFileName
	}
	if f == nil {
		return "", d.fail(FieldName, ErrMalformedField, "missing")
	}
	name, err := f.AsString()
	if err != nil {
		return "", d.fail(path, ErrMalformedField, "%v", err)
	}
	return name, nil
}

func (d *decoder) decodeScript(path string, sf *typetree.Field) (*script.Script, error) {
	labelField := sf.Get(FieldLabel)
	if labelField == nil {
		return nil, d.fail(path+"."+FieldLabel, ErrMalformedField, "missing")
	}
	label, err := labelField.AsString()
	if err != nil {
		return nil, d.fail(path+"."+FieldLabel, ErrMalformedField, "%v", err)
	}

	cmdsField := sf.Get(FieldCommands)
	cmds := make([]*script.Command, 0, cmdsField.Len())
	for ci, cf := range childrenOf(cmdsField) {
		cpath := fmt.Sprintf("%s.%s[%d]", path, FieldCommands, ci)
		argsField := cf.Get(FieldArg)
		args := make([]script.Argument, 0, argsField.Len())
		for ai, af := range childrenOf(argsField) {
			arg, err := d.decodeArgument(fmt.Sprintf("%s.%s[%d]", cpath, FieldArg, ai), af)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		cmds = append(cmds, &script.Command{Arguments: args})
	}

	return &script.Script{Label: label, Commands: cmds}, nil
}

func (d *decoder) decodeArgument(path string, af *typetree.Field) (script.Argument, error) {
	rawType, err := af.Get(FieldArgType).AsInt()
	if err != nil {
		return script.Argument{}, d.fail(path+"."+FieldArgType, ErrMalformedField, "%v", err)
	}
	typ, err := script.ParseArgumentType(rawType)
	if err != nil {
		return script.Argument{}, d.fail(path+"."+FieldArgType, ErrUnknownArgType, "%d", rawType)
	}

	data, err := af.Get(FieldData).AsInt()
	if err != nil {
		return script.Argument{}, d.fail(path+"."+FieldData, ErrMalformedField, "%v", err)
	}

	if typ == script.String {
		var text string
		ok := data >= math.MinInt32 && data <= math.MaxInt32
		if ok {
			text, ok = strtable.Resolve(d.table, script.NewNumber(script.String, int32(data)))
		}
		if !ok {
			return script.Argument{}, d.fail(path+"."+FieldData, ErrIndexOutOfRange,
				"index %d, table has %d entries", data, len(d.table.Strings))
		}
		return script.NewString(text), nil
	}

	if data < math.MinInt32 || data > math.MaxInt32 {
		return script.Argument{}, d.fail(path+"."+FieldData, ErrMalformedField, "%d overflows int32", data)
	}
	return script.NewNumber(typ, int32(data)), nil
}

func childrenOf(f *typetree.Field) []*typetree.Field {
	if f == nil {
		return nil
	}
	return f.Children
}

// Encode converts a ScriptFile whose string table has already been rebuilt
// into an entry node. It performs no deduplication.
func Encode(f *script.ScriptFile) *typetree.Field {
	scripts := make([]*typetree.Field, 0, len(f.Scripts))
	for _, s := range f.Scripts {
		cmds := make([]*typetree.Field, 0, len(s.Commands))
		for _, c := range s.Commands {
			args := make([]*typetree.Field, 0, len(c.Arguments))
			for _, a := range c.Arguments {
				args = append(args, typetree.NewObject("",
					typetree.NewInt(FieldArgType, int64(a.Type())),
					typetree.NewInt(FieldData, int64(a.NumberValue())),
				))
			}
			cmds = append(cmds, typetree.NewObject("", typetree.NewArray(FieldArg, args...)))
		}
		scripts = append(scripts, typetree.NewObject("",
			typetree.NewString(FieldLabel, s.Label),
			typetree.NewArray(FieldCommands, cmds...),
		))
	}

	strs := make([]*typetree.Field, 0, len(f.Strings))
	for _, s := range f.Strings {
		strs = append(strs, typetree.NewString("", s))
	}

	return typetree.NewObject("",
		typetree.NewInt(FieldPathID, f.PathID),
		typetree.NewString(FieldFileName, f.FileName),
		typetree.NewArray(FieldScripts, scripts...),
		typetree.NewArray(FieldStrList, strs...),
	)
}

// EncodeAll encodes a batch in order.
func EncodeAll(files []*script.ScriptFile) []*typetree.Field {
	out := make([]*typetree.Field, 0, len(files))
	for _, f := range files {
		out = append(out, Encode(f))
	}
	return out
}
