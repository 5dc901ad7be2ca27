// Package scripttest provides gopter generators for the script model.
// It is imported by property tests of the packages that transform scripts.
package scripttest

import (
	"reflect"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"

	"github.com/zurustar/bsscript/pkg/script"
)

// Text generates string payloads, including characters that need escaping
// in the text format, byte sequences that are not valid UTF-8, and a small
// vocabulary so that duplicates are common.
func Text() gopter.Gen {
	return gen.OneGenOf(
		gen.OneConstOf("Hello", "World", "", "こんにちは", "say \"hi\"", `C:\path`, "line1\nline2", "tab\there", "; not a comment", "[bracket]"),
		gen.OneConstOf("\xff\xfe", "a\x80b", "日本\xe8", "\xe3\x81", "\ufffd"),
		gen.AlphaString(),
		gen.AnyString(),
		RawBytes(),
	)
}

// RawBytes generates arbitrary byte strings.
func RawBytes() gopter.Gen {
	return gen.SliceOf(gen.UInt8()).Map(func(b []uint8) string {
		return string(b)
	})
}

// Label generates non-empty script labels.
func Label() gopter.Gen {
	return gen.OneGenOf(
		gen.Identifier(),
		gen.OneConstOf("Start", "Event 1", "分岐]A", "x\\y", "\xfeラベル"),
	)
}

// NumericType generates every non-String ArgumentType.
func NumericType() gopter.Gen {
	return gen.OneConstOf(
		script.Integer, script.Boolean, script.Variable,
		script.Flag, script.Character, script.Enum,
	)
}

// Argument generates arguments of every type.
func Argument() gopter.Gen {
	return gen.OneGenOf(
		Text().Map(func(s string) script.Argument {
			return script.NewString(s)
		}),
		gopter.CombineGens(NumericType(), gen.Int32()).Map(func(v []interface{}) script.Argument {
			return script.NewNumber(v[0].(script.ArgumentType), v[1].(int32))
		}),
	)
}

// Command generates commands with zero to five arguments.
func Command() gopter.Gen {
	return upTo(5, Argument(), reflect.TypeOf(script.Argument{})).Map(func(args []script.Argument) *script.Command {
		return script.NewCommand(args...)
	})
}

// Script generates a labelled script with up to eight commands.
func Script() gopter.Gen {
	return gopter.CombineGens(Label(), upTo(8, Command(), reflect.TypeOf(&script.Command{}))).Map(func(v []interface{}) *script.Script {
		return &script.Script{
			Label:    v[0].(string),
			Commands: v[1].([]*script.Command),
		}
	})
}

// ScriptFile generates a file with up to five scripts and an empty string
// table.
func ScriptFile() gopter.Gen {
	return gopter.CombineGens(
		gen.Identifier(),
		gen.Int64Range(1, 1<<40),
		upTo(5, Script(), reflect.TypeOf(&script.Script{})),
	).Map(func(v []interface{}) *script.ScriptFile {
		return &script.ScriptFile{
			FileName: v[0].(string),
			PathID:   v[1].(int64),
			Scripts:  v[2].([]*script.Script),
		}
	})
}

// upTo generates slices of elem with a length between 0 and max.
func upTo(max int, elem gopter.Gen, typ reflect.Type) gopter.Gen {
	return gen.IntRange(0, max).FlatMap(func(v interface{}) gopter.Gen {
		return gen.SliceOfN(v.(int), elem, typ)
	}, reflect.SliceOf(typ))
}
