// Package session owns the collection of script files being edited.
//
// A Session loads script-bearing entries from a container.Facade, hands the
// decoded ScriptFiles to its embedder, and writes replacements back. It is
// not safe for concurrent use; callers sharing one must serialize access.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zurustar/bsscript/pkg/compiler"
	"github.com/zurustar/bsscript/pkg/container"
	"github.com/zurustar/bsscript/pkg/converter"
	"github.com/zurustar/bsscript/pkg/script"
	"github.com/zurustar/bsscript/pkg/strtable"
)

// DefaultBundleKey is the collection that holds the game's scripts.
const DefaultBundleKey = "scriptdata"

var (
	// ErrContainerIO marks failures reported by the container facade, as
	// opposed to malformed content.
	ErrContainerIO = errors.New("container I/O failed")

	ErrDuplicatePathID = errors.New("duplicate path ID")
)

// Session is one editing session over a script collection.
type Session struct {
	facade    container.Facade
	log       *slog.Logger
	bundleKey string
	strict    bool

	files      []*script.ScriptFile
	loaded     bool
	decodeErrs []error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for warnings and progress.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBundleKey overrides the collection name.
func WithBundleKey(key string) Option {
	return func(s *Session) {
		if key != "" {
			s.bundleKey = key
		}
	}
}

// WithStrictDecode makes a malformed entry abort LoadScriptFiles instead of
// being skipped with a warning.
func WithStrictDecode(strict bool) Option {
	return func(s *Session) {
		s.strict = strict
	}
}

// New creates a session over facade.
func New(facade container.Facade, opts ...Option) *Session {
	s := &Session{
		facade:    facade,
		log:       slog.Default(),
		bundleKey: DefaultBundleKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BundleKey returns the collection name the session reads and writes.
func (s *Session) BundleKey() string {
	return s.bundleKey
}

// ioError wraps ErrContainerIO together with the facade's own cause when
// it exposes one.
func (s *Session) ioError(op string) error {
	if le, ok := s.facade.(interface{ LastError() error }); ok {
		if cause := le.LastError(); cause != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrContainerIO, cause)
		}
	}
	return fmt.Errorf("%s: %w", op, ErrContainerIO)
}

// SetBasePath points the facade at a new bundle directory.
func (s *Session) SetBasePath(path string) error {
	if !s.facade.SetBasePath(path) {
		return s.ioError("set base path " + path)
	}
	return nil
}

// GetBasePath returns the facade's bundle directory.
func (s *Session) GetBasePath() string {
	return s.facade.GetBasePath()
}

// LoadScriptFiles loads the collection and decodes every script-bearing
// entry, replacing anything held in memory. Malformed entries are logged
// and kept in DecodeErrors; in strict mode the first one is returned and the
// session is left unchanged.
func (s *Session) LoadScriptFiles() error {
	if !s.facade.LoadBundles([]string{s.bundleKey}) {
		return s.ioError("load " + s.bundleKey)
	}

	entries := s.facade.GetEntries(s.bundleKey)
	files, errs := converter.DecodeAll(entries)
	for _, err := range errs {
		s.log.Warn("skipping malformed script file", "error", err)
	}
	if s.strict && len(errs) > 0 {
		return errs[0]
	}

	s.files = files
	s.decodeErrs = errs
	s.loaded = true
	s.log.Info("script files loaded", "bundle", s.bundleKey, "entries", len(entries), "files", len(files), "errors", len(errs))
	return nil
}

// DecodeErrors returns the per-entry failures of the last load.
func (s *Session) DecodeErrors() []error {
	return s.decodeErrs
}

// AreScriptFilesLoaded reports whether the session holds a collection.
func (s *Session) AreScriptFilesLoaded() bool {
	return s.loaded
}

// ScriptFiles returns the collection, loading it on first use. The files
// are owned by the session; edit copies and pass them to SetScriptFiles.
func (s *Session) ScriptFiles() ([]*script.ScriptFile, error) {
	if !s.loaded {
		if err := s.LoadScriptFiles(); err != nil {
			return nil, err
		}
	}
	return s.files, nil
}

// FindScriptFile returns the loaded file with the given path ID.
func (s *Session) FindScriptFile(pathID int64) (*script.ScriptFile, bool) {
	for _, f := range s.files {
		if f.PathID == pathID {
			return f, true
		}
	}
	return nil, false
}

// SetScriptFiles replaces the whole collection. The files are validated
// and copied, their string tables rebuilt, and the encoded entries merged
// into the container. Nothing is written to disk until a Save call.
func (s *Session) SetScriptFiles(files []*script.ScriptFile) error {
	seen := make(map[int64]bool, len(files))
	clones := make([]*script.ScriptFile, 0, len(files))
	for _, f := range files {
		if f == nil {
			return errors.New("nil script file")
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("script file %d (%s): %w", f.PathID, f.FileName, err)
		}
		if seen[f.PathID] {
			return fmt.Errorf("%w: %d", ErrDuplicatePathID, f.PathID)
		}
		seen[f.PathID] = true
		clones = append(clones, f.Clone())
	}

	strtable.RebuildAll(clones)
	s.facade.SetEntries(s.bundleKey, converter.EncodeAll(clones))

	s.files = clones
	s.decodeErrs = nil
	s.loaded = true
	s.log.Info("script files replaced", "bundle", s.bundleKey, "files", len(clones))
	return nil
}

// SaveScriptFiles writes the collection into the directory path.
func (s *Session) SaveScriptFiles(path string) error {
	if !s.facade.SaveBundles([]string{s.bundleKey}, path) {
		return s.ioError("save " + s.bundleKey)
	}
	return nil
}

// SaveScriptFilesInBasePath overwrites the collection in the base path.
func (s *Session) SaveScriptFilesInBasePath() error {
	if !s.facade.SaveBundlesInBasePath([]string{s.bundleKey}) {
		return s.ioError("save " + s.bundleKey)
	}
	return nil
}

// DecompileScript renders one script as text.
func (s *Session) DecompileScript(sc *script.Script) string {
	return compiler.Decompile(sc)
}

// DecompileScriptFile renders a whole file as text.
func (s *Session) DecompileScriptFile(f *script.ScriptFile) string {
	return compiler.DecompileFile(f)
}

// CompileScript compiles script text. Skipped lines are logged as warnings.
func (s *Session) CompileScript(text, name string, ignoreExceptions bool) (*script.Script, []*compiler.CompileError, error) {
	sc, warnings, err := compiler.Compile(text, name, ignoreExceptions)
	s.logWarnings(name, warnings)
	return sc, warnings, err
}

// CompileScriptFile compiles a file dump. Skipped lines are logged as warnings.
func (s *Session) CompileScriptFile(text string, pathID int64, name string, ignoreExceptions bool) (*script.ScriptFile, []*compiler.CompileError, error) {
	f, warnings, err := compiler.CompileFile(text, pathID, name, ignoreExceptions)
	s.logWarnings(name, warnings)
	return f, warnings, err
}

func (s *Session) logWarnings(name string, warnings []*compiler.CompileError) {
	for _, w := range warnings {
		s.log.Warn("skipped line", "script", name, "line", w.Line, "error", w.Message, "text", w.Text)
	}
}
