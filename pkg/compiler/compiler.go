// Package compiler translates between scripts and their text form.
//
// Text format, version 1:
//
//	;! bsscript 1
//	#file "event_01" 4201
//
//	[Start]
//	"Hello" 3 ; TextWait
//	v:12 5    ; SetVariable
//	()        ; End
//
//	[Next]
//	"Hello"   ; Text
//
// A script starts with a "[label]" header and holds one command per line.
// Tokens are separated by spaces or tabs. Quoted tokens are String
// arguments; bare tokens are numbers with an optional type tag
// (i, b, v, f, c, e). "()" is a command without arguments. ';' starts a
// comment outside of quotes. A blank line ends the current script.
//
// This package provides:
// - Compile: text of one script to a Script
// - CompileFile: a file dump to a ScriptFile
// - Decompile: a Script to text
// - DecompileFile: a ScriptFile to a file dump
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zurustar/bsscript/pkg/script"
)

// FormatVersion is the version of the text format written by this package.
const FormatVersion = 1

const (
	markerPrefix  = ";! bsscript"
	fileDirective = "#file"
)

// parseState is the state of the line parser.
type parseState int

const (
	stateAwaitingHeader parseState = iota
	stateParsingLabel
	stateParsingCommands
	stateError
)

func (s parseState) String() string {
	switch s {
	case stateAwaitingHeader:
		return "AwaitingHeader"
	case stateParsingLabel:
		return "ParsingLabel"
	case stateParsingCommands:
		return "ParsingCommands"
	case stateError:
		return "Error"
	}
	return fmt.Sprintf("parseState(%d)", int(s))
}

type sourceLine struct {
	num  int
	text string
}

func splitLines(text string) []sourceLine {
	raw := strings.Split(text, "\n")
	lines := make([]sourceLine, len(raw))
	for i, l := range raw {
		lines[i] = sourceLine{num: i + 1, text: strings.TrimSuffix(l, "\r")}
	}
	return lines
}

// segments splits lines into runs separated by blank lines.
func segments(lines []sourceLine) [][]sourceLine {
	var segs [][]sourceLine
	var cur []sourceLine
	for _, ln := range lines {
		if kind, _ := classify(ln.text); kind == lineBlank {
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, ln)
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

// compilation holds the state shared by all scripts of one compile call.
type compilation struct {
	source   string
	ignore   bool
	state    parseState
	warnings []*CompileError
}

func (c *compilation) errorAt(phase, msg string, ln sourceLine, column int) *CompileError {
	return newCompileError(phase, msg, ln.num, column, ln.text, c.source)
}

// report handles a malformed line. Without ignore the error is returned
// and compilation stops; otherwise it becomes a warning and parsing resumes
// in the given state.
func (c *compilation) report(err *CompileError, resume parseState) error {
	c.state = stateError
	if !c.ignore {
		return err
	}
	c.warnings = append(c.warnings, err)
	c.state = resume
	return nil
}

// Compile compiles the text of a single script.
//
// Parameters:
//   - text: script text, optionally starting with a "[label]" header
//   - name: label used when the text has no header
//   - ignoreExceptions: skip malformed lines instead of failing
//
// Returns:
//   - *script.Script: the compiled script, nil on failure
//   - []*CompileError: warnings for lines skipped under ignoreExceptions
//   - error: the first *CompileError when ignoreExceptions is false, or an
//     empty label
func Compile(text, name string, ignoreExceptions bool) (*script.Script, []*CompileError, error) {
	c := &compilation{source: text, ignore: ignoreExceptions}
	s, err := c.compileScript(splitLines(text), name, false)
	if err != nil {
		return nil, c.warnings, err
	}
	return s, c.warnings, nil
}

// CompileFile compiles a file dump produced by DecompileFile.
//
// Parameters:
//   - text: the dump
//   - pathID, name: identity used when the dump has no "#file" header
//   - ignoreExceptions: skip malformed lines instead of failing
//
// Returns:
//   - *script.ScriptFile: the compiled file with an empty string table
//   - []*CompileError: warnings for skipped lines
//   - error: the first *CompileError when ignoreExceptions is false
func CompileFile(text string, pathID int64, name string, ignoreExceptions bool) (*script.ScriptFile, []*CompileError, error) {
	c := &compilation{source: text, ignore: ignoreExceptions}
	f := &script.ScriptFile{
		FileName: name,
		PathID:   pathID,
		Scripts:  []*script.Script{},
	}

	lines := splitLines(text)
	body := lines
	for i, ln := range lines {
		kind, indent := classify(ln.text)
		if kind == lineComment {
			if err := c.checkMarker(ln, indent); err != nil {
				return nil, c.warnings, err
			}
			continue
		}
		if kind == lineBlank {
			continue
		}
		if kind == lineFileHeader {
			fileName, id, cerr := c.parseFileHeader(ln, indent)
			if cerr != nil {
				if err := c.report(cerr, stateAwaitingHeader); err != nil {
					return nil, c.warnings, err
				}
			} else {
				f.FileName, f.PathID = fileName, id
			}
			body = lines[i+1:]
		}
		break
	}

	for _, seg := range segments(body) {
		s, err := c.compileScript(seg, "", true)
		if err != nil {
			return nil, c.warnings, err
		}
		if s != nil {
			f.Scripts = append(f.Scripts, s)
		}
	}
	return f, c.warnings, nil
}

// FileIdentity returns the name and path ID declared by the "#file" header
// that leads text. ok is false when the dump has no well-formed header.
func FileIdentity(text string) (name string, pathID int64, ok bool) {
	c := &compilation{source: text}
	for _, ln := range splitLines(text) {
		kind, indent := classify(ln.text)
		switch kind {
		case lineComment, lineBlank:
			continue
		case lineFileHeader:
			n, id, cerr := c.parseFileHeader(ln, indent)
			if cerr != nil {
				return "", 0, false
			}
			return n, id, true
		}
		return "", 0, false
	}
	return "", 0, false
}

// checkMarker rejects dumps written in a newer format version.
func (c *compilation) checkMarker(ln sourceLine, indent int) error {
	rest := ln.text[indent:]
	if !strings.HasPrefix(rest, markerPrefix) {
		return nil
	}
	v := strings.TrimSpace(rest[len(markerPrefix):])
	if v == strconv.Itoa(FormatVersion) {
		return nil
	}
	cerr := c.errorAt(PhaseParser, fmt.Sprintf("unsupported format version %q", v), ln, indent+1)
	return c.report(cerr, stateAwaitingHeader)
}

func (c *compilation) parseFileHeader(ln sourceLine, indent int) (string, int64, *CompileError) {
	offset := indent + len(fileDirective)
	toks, serr := scanLine(ln.text[offset:])
	if serr != nil {
		return "", 0, c.errorAt(PhaseScanner, serr.msg, ln, offset+serr.column)
	}
	if len(toks) != 2 || toks[0].Type != TokenString || toks[1].Type != TokenBare {
		return "", 0, c.errorAt(PhaseParser, `file header must be: #file "name" <path-id>`, ln, indent+1)
	}
	id, err := strconv.ParseInt(toks[1].Literal, 10, 64)
	if err != nil {
		return "", 0, c.errorAt(PhaseParser, fmt.Sprintf("invalid path ID %q", toks[1].Literal), ln, offset+toks[1].Column)
	}
	return toks[0].Value, id, nil
}

// compileScript parses the lines of one script. With requireHeader,
// commands before a header are errors and a segment without any script
// yields (nil, nil); otherwise a missing header means the script is
// labelled name.
func (c *compilation) compileScript(lines []sourceLine, name string, requireHeader bool) (*script.Script, error) {
	var s *script.Script
	var headerLine sourceLine
	c.state = stateAwaitingHeader

	for _, ln := range lines {
		kind, indent := classify(ln.text)
		switch kind {
		case lineBlank:
			if c.state == stateParsingCommands {
				c.state = stateAwaitingHeader
			}

		case lineComment:

		case lineFileHeader, lineDirective:
			msg := fmt.Sprintf("unknown directive %q", strings.Fields(ln.text[indent:])[0])
			if kind == lineFileHeader {
				msg = "file header is only allowed before the first script"
			}
			if err := c.report(c.errorAt(PhaseParser, msg, ln, indent+1), c.state); err != nil {
				return nil, err
			}

		case lineHeader:
			if s != nil {
				resume := c.state
				if err := c.report(c.errorAt(PhaseParser, "unexpected second script header", ln, indent+1), resume); err != nil {
					return nil, err
				}
				continue
			}
			c.state = stateParsingLabel
			label, serr := scanLabel(ln.text, indent)
			if serr != nil {
				if err := c.report(c.errorAt(PhaseScanner, serr.msg, ln, serr.column), stateAwaitingHeader); err != nil {
					return nil, err
				}
				continue
			}
			s = &script.Script{Label: label, Commands: []*script.Command{}}
			headerLine = ln
			c.state = stateParsingCommands

		case lineCommand:
			if s == nil {
				if requireHeader {
					cerr := c.errorAt(PhaseParser, "command outside of a script, expected [label] header", ln, indent+1)
					if err := c.report(cerr, stateAwaitingHeader); err != nil {
						return nil, err
					}
					continue
				}
				s = &script.Script{Label: name, Commands: []*script.Command{}}
			}
			c.state = stateParsingCommands
			cmd, cerr := c.parseCommand(ln)
			if cerr != nil {
				if err := c.report(cerr, stateParsingCommands); err != nil {
					return nil, err
				}
				continue
			}
			s.Commands = append(s.Commands, cmd)
		}
	}

	if s == nil {
		if requireHeader {
			return nil, nil
		}
		s = &script.Script{Label: name, Commands: []*script.Command{}}
	}
	if s.Label == "" {
		// not recoverable: a script without label cannot be stored
		return nil, newCompileError(PhaseParser, "script label is empty", headerLine.num, 0, headerLine.text, c.source)
	}
	return s, nil
}

func (c *compilation) parseCommand(ln sourceLine) (*script.Command, *CompileError) {
	toks, serr := scanLine(ln.text)
	if serr != nil {
		return nil, c.errorAt(PhaseScanner, serr.msg, ln, serr.column)
	}

	args := make([]script.Argument, 0, len(toks))
	for _, tok := range toks {
		switch tok.Type {
		case TokenEmpty:
			if len(toks) != 1 {
				return nil, c.errorAt(PhaseParser, "() must be the only token of a command", ln, tok.Column)
			}
		case TokenString:
			args = append(args, script.NewString(tok.Value))
		case TokenBare:
			a, err := parseNumber(tok.Literal)
			if err != nil {
				return nil, c.errorAt(PhaseParser, err.Error(), ln, tok.Column)
			}
			args = append(args, a)
		}
	}
	return &script.Command{Arguments: args}, nil
}

// Decompile renders a script as text: the header line followed by one line
// per command.
func Decompile(s *script.Script) string {
	var b strings.Builder
	writeScript(&b, s)
	return b.String()
}

// DecompileFile renders a whole file: format marker, file header, then
// every script separated by a blank line.
func DecompileFile(f *script.ScriptFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", markerPrefix, FormatVersion)
	fmt.Fprintf(&b, "%s %s %d\n", fileDirective, quote(f.FileName), f.PathID)
	for _, s := range f.Scripts {
		b.WriteByte('\n')
		writeScript(&b, s)
	}
	return b.String()
}

func writeScript(b *strings.Builder, s *script.Script) {
	b.WriteString(quoteLabel(s.Label))
	b.WriteByte('\n')
	for _, cmd := range s.Commands {
		b.WriteString(FormatCommand(cmd))
		b.WriteByte('\n')
	}
}

// FormatCommand renders one command line, annotated with the operation
// name when the command's shape is known.
func FormatCommand(cmd *script.Command) string {
	var line string
	if len(cmd.Arguments) == 0 {
		line = "()"
	} else {
		toks := make([]string, len(cmd.Arguments))
		for i, a := range cmd.Arguments {
			if a.IsString() {
				toks[i] = quote(a.StringValue())
			} else {
				toks[i] = formatNumber(a)
			}
		}
		line = strings.Join(toks, " ")
	}
	if op, ok := LookupOperation(cmd); ok {
		line += " ; " + op.Name
	}
	return line
}
