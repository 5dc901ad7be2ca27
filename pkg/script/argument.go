// Package script defines the in-memory model of a script bundle entry:
// ScriptFile, Script, Command and Argument.
//
// The model carries no opcode. The meaning of a Command is inferred from the
// shape of its arguments by the compiler package.
package script

import "fmt"

// ArgumentType identifies the payload kind of an Argument.
// Values are fixed by the bundle format; only String is interpreted here.
type ArgumentType int32

const (
	Integer   ArgumentType = 0
	String    ArgumentType = 1
	Boolean   ArgumentType = 2
	Variable  ArgumentType = 3
	Flag      ArgumentType = 4
	Character ArgumentType = 5
	Enum      ArgumentType = 6
)

var argumentTypeNames = map[ArgumentType]string{
	Integer:   "Integer",
	String:    "String",
	Boolean:   "Boolean",
	Variable:  "Variable",
	Flag:      "Flag",
	Character: "Character",
	Enum:      "Enum",
}

// ArgumentTypes returns every known ArgumentType in ascending order.
func ArgumentTypes() []ArgumentType {
	return []ArgumentType{Integer, String, Boolean, Variable, Flag, Character, Enum}
}

// IsValid reports whether t is a member of the enumeration.
func (t ArgumentType) IsValid() bool {
	_, ok := argumentTypeNames[t]
	return ok
}

func (t ArgumentType) String() string {
	if name, ok := argumentTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ArgumentType(%d)", int32(t))
}

// ParseArgumentType validates a raw argType value read from a bundle.
func ParseArgumentType(raw int64) (ArgumentType, error) {
	if raw < 0 || raw > int64(Enum) {
		return 0, fmt.Errorf("unknown argument type %d", raw)
	}
	t := ArgumentType(raw)
	if !t.IsValid() {
		return 0, fmt.Errorf("unknown argument type %d", raw)
	}
	return t, nil
}

// Argument is a tagged value. String arguments own their text while the
// file is being edited; NumberValue holds the string table index only after
// the table has been rebuilt for serialization.
type Argument struct {
	typ    ArgumentType
	text   string
	number int32
}

// NewString creates a String argument.
func NewString(s string) Argument {
	return Argument{typ: String, text: s}
}

// NewNumber creates an argument of a numeric type.
func NewNumber(t ArgumentType, n int32) Argument {
	return Argument{typ: t, number: n}
}

// Type returns the argument's type tag.
func (a Argument) Type() ArgumentType { return a.typ }

// IsString reports whether a is a String argument.
func (a Argument) IsString() bool { return a.typ == String }

// StringValue returns the text of a String argument.
func (a Argument) StringValue() string { return a.text }

// NumberValue returns the numeric payload, or the table index for an
// interned String argument.
func (a Argument) NumberValue() int32 { return a.number }

// SetStringValue replaces the text of a String argument.
func (a *Argument) SetStringValue(s string) { a.text = s }

// SetNumberValue replaces the numeric view.
func (a *Argument) SetNumberValue(n int32) { a.number = n }

// Equal compares two arguments by meaning. For String arguments the text is
// compared and the (possibly stale) index ignored.
func (a Argument) Equal(b Argument) bool {
	if a.typ != b.typ {
		return false
	}
	if a.typ == String {
		return a.text == b.text
	}
	return a.number == b.number
}

func (a Argument) String() string {
	if a.typ == String {
		return fmt.Sprintf("String(%q)", a.text)
	}
	return fmt.Sprintf("%s(%d)", a.typ, a.number)
}
