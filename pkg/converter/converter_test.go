package converter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/bsscript/pkg/script"
	"github.com/zurustar/bsscript/pkg/script/scripttest"
	"github.com/zurustar/bsscript/pkg/strtable"
	"github.com/zurustar/bsscript/pkg/typetree"
)

func arg(typ, data int64) *typetree.Field {
	return typetree.NewObject("",
		typetree.NewInt(FieldArgType, typ),
		typetree.NewInt(FieldData, data),
	)
}

func entry(name string, strs []string, scripts ...*typetree.Field) *typetree.Field {
	items := make([]*typetree.Field, 0, len(strs))
	for _, s := range strs {
		items = append(items, typetree.NewString("", s))
	}
	return typetree.NewObject("",
		typetree.NewString(FieldName, name),
		typetree.NewArray(FieldStrList, items...),
		typetree.NewArray(FieldScripts, scripts...),
	)
}

func scriptNode(label string, commands ...[]*typetree.Field) *typetree.Field {
	cmds := make([]*typetree.Field, 0, len(commands))
	for _, args := range commands {
		cmds = append(cmds, typetree.NewObject("", typetree.NewArray(FieldArg, args...)))
	}
	return typetree.NewObject("",
		typetree.NewString(FieldLabel, label),
		typetree.NewArray(FieldCommands, cmds...),
	)
}

func TestDecode_ResolvesStrings(t *testing.T) {
	root := entry("event_01", []string{"Hello", "World"},
		scriptNode("Start",
			[]*typetree.Field{arg(1, 1), arg(0, 3)},
			[]*typetree.Field{},
		),
		scriptNode("Next", []*typetree.Field{arg(1, 0), arg(4, -2)}),
	)

	f, err := Decode(77, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.FileName != "event_01" || f.PathID != 77 {
		t.Errorf("identity = %q/%d", f.FileName, f.PathID)
	}
	if !reflect.DeepEqual(f.Strings, []string{"Hello", "World"}) {
		t.Errorf("Strings = %q", f.Strings)
	}
	if len(f.Scripts) != 2 || f.Scripts[0].Label != "Start" || f.Scripts[1].Label != "Next" {
		t.Fatalf("unexpected scripts: %+v", f.Scripts)
	}

	first := f.Scripts[0].Commands[0].Arguments
	if first[0].Type() != script.String || first[0].StringValue() != "World" {
		t.Errorf("first argument = %v, want String(\"World\")", first[0])
	}
	if first[1].Type() != script.Integer || first[1].NumberValue() != 3 {
		t.Errorf("second argument = %v, want Integer(3)", first[1])
	}
	if n := len(f.Scripts[0].Commands[1].Arguments); n != 0 {
		t.Errorf("empty command has %d arguments", n)
	}
	last := f.Scripts[1].Commands[0].Arguments[1]
	if last.Type() != script.Flag || last.NumberValue() != -2 {
		t.Errorf("flag argument = %v", last)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		root     *typetree.Field
		wantErr  error
		wantPath string
	}{
		{
			name:     "string index out of range",
			root:     entry("e", []string{"a"}, scriptNode("S", []*typetree.Field{arg(1, 1)})),
			wantErr:  ErrIndexOutOfRange,
			wantPath: "Scripts[0].Commands[0].Arg[0].data",
		},
		{
			name:     "negative string index",
			root:     entry("e", []string{"a"}, scriptNode("S", []*typetree.Field{arg(1, -1)})),
			wantErr:  ErrIndexOutOfRange,
			wantPath: "Scripts[0].Commands[0].Arg[0].data",
		},
		{
			// 1<<32 を int32 に丸めると 0 になり "a" を指してしまう
			name:     "string index beyond int32",
			root:     entry("e", []string{"a"}, scriptNode("S", []*typetree.Field{arg(1, 1<<32)})),
			wantErr:  ErrIndexOutOfRange,
			wantPath: "Scripts[0].Commands[0].Arg[0].data",
		},
		{
			name:     "unknown argType",
			root:     entry("e", nil, scriptNode("S", []*typetree.Field{arg(0, 1)}, []*typetree.Field{arg(0, 1), arg(99, 0)})),
			wantErr:  ErrUnknownArgType,
			wantPath: "Scripts[0].Commands[1].Arg[1].argType",
		},
		{
			name: "missing label",
			root: entry("e", nil, typetree.NewObject("",
				typetree.NewArray(FieldCommands),
			)),
			wantErr:  ErrMalformedField,
			wantPath: "Scripts[0].Label",
		},
		{
			name: "missing name",
			root: typetree.NewObject("",
				typetree.NewArray(FieldScripts, scriptNode("S")),
			),
			wantErr:  ErrMalformedField,
			wantPath: FieldName,
		},
		{
			name: "non-string table entry",
			root: typetree.NewObject("",
				typetree.NewString(FieldName, "e"),
				typetree.NewArray(FieldStrList, typetree.NewInt("", 5)),
				typetree.NewArray(FieldScripts, scriptNode("S")),
			),
			wantErr:  ErrMalformedField,
			wantPath: "StrList[0]",
		},
		{
			name:     "data overflows int32",
			root:     entry("e", nil, scriptNode("S", []*typetree.Field{arg(0, 1<<40)})),
			wantErr:  ErrMalformedField,
			wantPath: "Scripts[0].Commands[0].Arg[0].data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(5, tt.root)
			if err == nil {
				t.Fatalf("expected error, got %+v", f)
			}
			if f != nil {
				t.Error("expected nil ScriptFile on error")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error is not a *DecodeError: %T", err)
			}
			if de.PathID != 5 {
				t.Errorf("PathID = %d, want 5", de.PathID)
			}
			if de.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", de.Path, tt.wantPath)
			}
		})
	}
}

func TestHasScripts(t *testing.T) {
	if HasScripts(typetree.NewObject("", typetree.NewString(FieldName, "x"))) {
		t.Error("entry without Scripts should be filtered")
	}
	if HasScripts(entry("x", nil)) {
		t.Error("entry with empty Scripts should be filtered")
	}
	if !HasScripts(entry("x", nil, scriptNode("S"))) {
		t.Error("entry with scripts should be kept")
	}
}

func TestDecodeAll_FiltersAndIsolatesErrors(t *testing.T) {
	entries := map[int64]*typetree.Field{
		30: entry("third", []string{"c"}, scriptNode("C", []*typetree.Field{arg(1, 0)})),
		10: entry("first", nil, scriptNode("A")),
		20: entry("empty", nil),
		25: typetree.NewObject("", typetree.NewString(FieldName, "texture")),
		40: entry("broken", nil, scriptNode("B", []*typetree.Field{arg(1, 0)})),
	}

	files, errs := DecodeAll(entries)

	if len(files) != 2 {
		t.Fatalf("decoded %d files, want 2", len(files))
	}
	if files[0].PathID != 10 || files[1].PathID != 30 {
		t.Errorf("files not in path ID order: %d, %d", files[0].PathID, files[1].PathID)
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	var de *DecodeError
	if !errors.As(errs[0], &de) || de.PathID != 40 {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestEncode_Shape(t *testing.T) {
	f := &script.ScriptFile{
		FileName: "event_01",
		PathID:   9,
		Scripts: []*script.Script{
			{Label: "A", Commands: []*script.Command{
				script.NewCommand(script.NewString("Hello"), script.NewNumber(script.Integer, 3)),
			}},
			{Label: "B", Commands: []*script.Command{
				script.NewCommand(script.NewString("Hello")),
			}},
		},
	}
	strtable.Rebuild(f)

	root := Encode(f)

	if id, _ := root.Get(FieldPathID).AsInt(); id != 9 {
		t.Errorf("PathID = %d", id)
	}
	if name, _ := root.Get(FieldFileName).AsString(); name != "event_01" {
		t.Errorf("FileName = %q", name)
	}
	strList := root.Get(FieldStrList)
	if strList.Len() != 1 {
		t.Fatalf("StrList has %d entries, want 1", strList.Len())
	}
	if s, _ := strList.Children[0].AsString(); s != "Hello" {
		t.Errorf("StrList[0] = %q", s)
	}

	for i, sf := range root.Get(FieldScripts).Children {
		a := sf.Get(FieldCommands).Children[0].Get(FieldArg).Children[0]
		typ, _ := a.Get(FieldArgType).AsInt()
		data, _ := a.Get(FieldData).AsInt()
		if typ != int64(script.String) || data != 0 {
			t.Errorf("script %d: argType=%d data=%d, want String/0", i, typ, data)
		}
	}
}

func TestEncode_DoesNotDeduplicate(t *testing.T) {
	f := &script.ScriptFile{
		FileName: "x",
		Strings:  []string{"dup", "dup"},
		Scripts:  []*script.Script{{Label: "A"}},
	}
	if n := Encode(f).Get(FieldStrList).Len(); n != 2 {
		t.Errorf("StrList has %d entries, want 2 (encode must not deduplicate)", n)
	}
}

// TestProperty_EncodeDecodeRoundTrip verifies decode(encode(rebuild(f))) == f.
func TestProperty_EncodeDecodeRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(rebuild(f))) equals f", prop.ForAll(
		func(f *script.ScriptFile) bool {
			strtable.Rebuild(f)
			got, err := Decode(f.PathID, Encode(f))
			if err != nil {
				return false
			}
			return got.Equal(f) && reflect.DeepEqual(got.Strings, f.Strings)
		},
		scripttest.ScriptFile(),
	))

	properties.TestingRun(t)
}
