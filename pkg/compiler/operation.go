package compiler

import (
	"sort"
	"strings"

	"github.com/zurustar/bsscript/pkg/script"
)

// Operation names a command shape. The model stores no opcode, so the
// operation of a command is inferred from the types of its arguments.
type Operation struct {
	Name      string
	Signature string
}

// Signature letters, one per argument.
var signatureLetters = map[script.ArgumentType]byte{
	script.Integer:   'I',
	script.String:    'S',
	script.Boolean:   'B',
	script.Variable:  'V',
	script.Flag:      'F',
	script.Character: 'C',
	script.Enum:      'E',
}

// operations is the closed table of known command shapes.
var operations = map[string]Operation{
	// End terminates the script.
	// Args: []
	"": {Name: "End"},

	// Wait pauses for a number of frames.
	// Args: [frames]
	"I": {Name: "Wait"},

	// Text shows a message box.
	// Args: [text]
	"S": {Name: "Text"},

	// TextWait shows a message and waits.
	// Args: [text, frames]
	"SI": {Name: "TextWait"},

	// Dialogue shows a message with a speaker name.
	// Args: [speaker, text]
	"SS": {Name: "Dialogue"},

	// CharacterText shows a message spoken by a character.
	// Args: [character, text]
	"CS": {Name: "CharacterText"},

	// CharacterPose changes a character's portrait.
	// Args: [character, pose]
	"CE": {Name: "CharacterPose"},

	// SetVariable assigns a constant to a variable slot.
	// Args: [variable, value]
	"VI": {Name: "SetVariable"},

	// CopyVariable copies one variable slot into another.
	// Args: [dst, src]
	"VV": {Name: "CopyVariable"},

	// SetFlag sets or clears a story flag.
	// Args: [flag, value]
	"FB": {Name: "SetFlag"},

	// JumpIfFlag jumps to a label when the flag has the given value.
	// Args: [flag, value, label]
	"FBS": {Name: "JumpIfFlag"},

	// JumpIfEqual jumps to a label when the variable equals the value.
	// Args: [variable, value, label]
	"VIS": {Name: "JumpIfEqual"},

	// PlayEffect plays a sound or screen effect.
	// Args: [effect, param]
	"EI": {Name: "PlayEffect"},
}

func init() {
	for sig, op := range operations {
		op.Signature = sig
		operations[sig] = op
	}
}

// Signature returns the type signature of a command, one letter per
// argument.
func Signature(cmd *script.Command) string {
	var b strings.Builder
	for _, a := range cmd.Arguments {
		if l, ok := signatureLetters[a.Type()]; ok {
			b.WriteByte(l)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// LookupOperation returns the operation for the command's shape.
func LookupOperation(cmd *script.Command) (Operation, bool) {
	op, ok := operations[Signature(cmd)]
	return op, ok
}

// Operations returns the table sorted by signature.
func Operations() []Operation {
	out := make([]Operation, 0, len(operations))
	for _, op := range operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}
