package compiler

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/bsscript/pkg/script"
	"github.com/zurustar/bsscript/pkg/script/scripttest"
)

func sampleFile() *script.ScriptFile {
	return &script.ScriptFile{
		FileName: "event_01",
		PathID:   4201,
		Scripts: []*script.Script{
			{Label: "A", Commands: []*script.Command{
				script.NewCommand(script.NewString("Hello"), script.NewNumber(script.Integer, 3)),
			}},
			{Label: "Empty", Commands: []*script.Command{}},
			{Label: "B", Commands: []*script.Command{
				script.NewCommand(script.NewString("Hello")),
				script.NewCommand(),
			}},
		},
	}
}

func TestDecompileFile_Layout(t *testing.T) {
	got := DecompileFile(sampleFile())
	want := `;! bsscript 1
#file "event_01" 4201

[A]
"Hello" 3 ; TextWait

[Empty]

[B]
"Hello" ; Text
() ; End
`
	if got != want {
		t.Errorf("DecompileFile() =\n%s\nwant\n%s", got, want)
	}
}

func TestCompileFile_Roundtrip(t *testing.T) {
	f := sampleFile()
	got, warnings, err := CompileFile(DecompileFile(f), 0, "", false)
	if err != nil {
		t.Fatalf("CompileFile() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings: %v", warnings)
	}
	if !got.Equal(f) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, f)
	}
}

func TestCompileFile_HeaderDefaults(t *testing.T) {
	f, _, err := CompileFile("[A]\n1\n\n[B]\n2\n", 99, "fallback", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.FileName != "fallback" || f.PathID != 99 {
		t.Errorf("identity = %q/%d, want fallback/99", f.FileName, f.PathID)
	}
	if len(f.Scripts) != 2 || f.Scripts[0].Label != "A" || f.Scripts[1].Label != "B" {
		t.Errorf("scripts = %+v", f.Scripts)
	}

	f, _, err = CompileFile("#file \"real\" 7\n[A]\n", 99, "fallback", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.FileName != "real" || f.PathID != 7 {
		t.Errorf("identity = %q/%d, want real/7", f.FileName, f.PathID)
	}
}

func TestFileIdentity(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantID int64
		ok     bool
	}{
		{"header", "#file \"real\" 7\n[A]\n", "real", 7, true},
		{"zero path id", "#file \"intro\" 0\n", "intro", 0, true},
		{"after marker and blanks", ";! bsscript 1\n\n  #file \"m\" -2\n", "m", -2, true},
		{"no header", "[A]\n1\n", "", 0, false},
		{"malformed header", "#file real 7\n", "", 0, false},
		{"header after script", "[A]\n#file \"late\" 1\n", "", 0, false},
		{"empty", "", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, id, ok := FileIdentity(tt.text)
			if name != tt.want || id != tt.wantID || ok != tt.ok {
				t.Errorf("FileIdentity() = %q, %d, %v; want %q, %d, %v", name, id, ok, tt.want, tt.wantID, tt.ok)
			}
		})
	}
}

func TestCompileFile_AbsoluteLineNumbers(t *testing.T) {
	text := ";! bsscript 1\n#file \"x\" 1\n\n[A]\n1\n\n[B]\n2\nbad\n"

	_, _, err := CompileFile(text, 0, "", false)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CompileError, got %v", err)
	}
	if ce.Line != 9 || ce.Text != "bad" {
		t.Errorf("error at line %d (%q), want line 9", ce.Line, ce.Text)
	}
}

func TestCompileFile_IgnoreExceptions(t *testing.T) {
	text := `#file "x" 1

[A]
"ok"
"broken

1
[C]
2
`
	f, warnings, err := CompileFile(text, 0, "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Scripts) != 2 {
		t.Fatalf("got %d scripts, want 2: %+v", len(f.Scripts), f.Scripts)
	}
	if f.Scripts[0].Label != "A" || len(f.Scripts[0].Commands) != 1 {
		t.Errorf("first script = %+v", f.Scripts[0])
	}
	if f.Scripts[1].Label != "C" || len(f.Scripts[1].Commands) != 1 {
		t.Errorf("second script = %+v", f.Scripts[1])
	}
	// the unterminated string and the command before [C]
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
	if warnings[0].Line != 5 || warnings[1].Line != 7 {
		t.Errorf("warning lines = %d, %d, want 5, 7", warnings[0].Line, warnings[1].Line)
	}
}

func TestCompileFile_BadHeader(t *testing.T) {
	tests := []struct {
		name string
		text string
		msg  string
	}{
		{"missing path id", "#file \"x\"\n[A]\n", "file header must be"},
		{"non-numeric path id", "#file \"x\" abc\n[A]\n", "invalid path ID"},
		{"unquoted name", "#file x 1\n[A]\n", "file header must be"},
		{"future version", ";! bsscript 2\n[A]\n", "unsupported format version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CompileFile(tt.text, 0, "", false)
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %v, want to contain %q", err, tt.msg)
			}

			f, warnings, err := CompileFile(tt.text, 3, "fallback", true)
			if err != nil {
				t.Fatalf("ignoreExceptions: unexpected error: %v", err)
			}
			if len(warnings) != 1 {
				t.Errorf("warnings = %v, want 1", warnings)
			}
			if f.FileName != "fallback" || f.PathID != 3 {
				t.Errorf("identity = %q/%d, want fallback/3", f.FileName, f.PathID)
			}
			if len(f.Scripts) != 1 {
				t.Errorf("got %d scripts, want 1", len(f.Scripts))
			}
		})
	}
}

// TestProperty_CompileDecompileRoundTrip checks compile(decompile(s)) == s
// for generated scripts and files.
func TestProperty_CompileDecompileRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("script round trip", prop.ForAll(
		func(s *script.Script) bool {
			got, warnings, err := Compile(Decompile(s), "unused", false)
			return err == nil && len(warnings) == 0 && got.Equal(s)
		},
		scripttest.Script(),
	))

	properties.Property("file round trip", prop.ForAll(
		func(f *script.ScriptFile) bool {
			got, warnings, err := CompileFile(DecompileFile(f), 0, "", false)
			return err == nil && len(warnings) == 0 && got.Equal(f)
		},
		scripttest.ScriptFile(),
	))

	properties.Property("dump is valid UTF-8", prop.ForAll(
		func(f *script.ScriptFile) bool {
			return utf8.ValidString(DecompileFile(f))
		},
		scripttest.ScriptFile(),
	))

	properties.Property("decompile is stable", prop.ForAll(
		func(f *script.ScriptFile) bool {
			text := DecompileFile(f)
			got, _, err := CompileFile(text, 0, "", false)
			return err == nil && DecompileFile(got) == text
		},
		scripttest.ScriptFile(),
	))

	properties.TestingRun(t)
}
