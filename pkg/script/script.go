package script

import (
	"errors"
	"fmt"
)

// ScriptFile はバンドル内の1エントリ分のスクリプトを表す
type ScriptFile struct {
	FileName string    // エントリ名（m_Name）
	PathID   int64     // コンテナが割り当てた識別子
	Scripts  []*Script // 宣言順
	Strings  []string  // 文字列テーブル（編集中は古い可能性がある）
}

// Script はラベル付きのコマンド列
type Script struct {
	Label    string
	Commands []*Command
}

// Command は引数列のみを持つ。操作の種類は引数の形から決まる
type Command struct {
	Arguments []Argument
}

// ErrEmptyLabel is returned by Validate for a script without a label.
var ErrEmptyLabel = errors.New("script label is empty")

// NewCommand creates a Command from the given arguments.
func NewCommand(args ...Argument) *Command {
	return &Command{Arguments: args}
}

// Validate checks the model invariants that encoding relies on.
func (s *Script) Validate() error {
	if s.Label == "" {
		return ErrEmptyLabel
	}
	for ci, cmd := range s.Commands {
		if cmd == nil {
			return fmt.Errorf("script %q: command %d is nil", s.Label, ci)
		}
		for ai, arg := range cmd.Arguments {
			if !arg.Type().IsValid() {
				return fmt.Errorf("script %q: command %d argument %d: unknown argument type %d",
					s.Label, ci, ai, int32(arg.Type()))
			}
		}
	}
	return nil
}

// Validate checks every script of the file.
func (f *ScriptFile) Validate() error {
	for i, s := range f.Scripts {
		if s == nil {
			return fmt.Errorf("%s: script %d is nil", f.FileName, i)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%s: script %d: %w", f.FileName, i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the command.
func (c *Command) Clone() *Command {
	args := make([]Argument, len(c.Arguments))
	copy(args, c.Arguments)
	return &Command{Arguments: args}
}

// Clone returns a deep copy of the script.
func (s *Script) Clone() *Script {
	cmds := make([]*Command, len(s.Commands))
	for i, c := range s.Commands {
		cmds[i] = c.Clone()
	}
	return &Script{Label: s.Label, Commands: cmds}
}

// Clone returns a deep copy of the file, including its string table.
func (f *ScriptFile) Clone() *ScriptFile {
	scripts := make([]*Script, len(f.Scripts))
	for i, s := range f.Scripts {
		scripts[i] = s.Clone()
	}
	strs := make([]string, len(f.Strings))
	copy(strs, f.Strings)
	return &ScriptFile{
		FileName: f.FileName,
		PathID:   f.PathID,
		Scripts:  scripts,
		Strings:  strs,
	}
}

// Equal compares two commands argument by argument.
func (c *Command) Equal(o *Command) bool {
	if len(c.Arguments) != len(o.Arguments) {
		return false
	}
	for i := range c.Arguments {
		if !c.Arguments[i].Equal(o.Arguments[i]) {
			return false
		}
	}
	return true
}

// Equal compares label and commands.
func (s *Script) Equal(o *Script) bool {
	if s.Label != o.Label || len(s.Commands) != len(o.Commands) {
		return false
	}
	for i := range s.Commands {
		if !s.Commands[i].Equal(o.Commands[i]) {
			return false
		}
	}
	return true
}

// Equal compares identity and scripts. The string table is not compared
// because it is only authoritative right after a rebuild.
func (f *ScriptFile) Equal(o *ScriptFile) bool {
	if f.FileName != o.FileName || f.PathID != o.PathID || len(f.Scripts) != len(o.Scripts) {
		return false
	}
	for i := range f.Scripts {
		if !f.Scripts[i].Equal(o.Scripts[i]) {
			return false
		}
	}
	return true
}

// FindScript returns the first script with the given label.
func (f *ScriptFile) FindScript(label string) *Script {
	for _, s := range f.Scripts {
		if s.Label == label {
			return s
		}
	}
	return nil
}

// CommandCount returns the total number of commands across all scripts.
func (f *ScriptFile) CommandCount() int {
	n := 0
	for _, s := range f.Scripts {
		n += len(s.Commands)
	}
	return n
}
