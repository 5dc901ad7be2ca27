package container

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zurustar/bsscript/pkg/fileutil"
	"github.com/zurustar/bsscript/pkg/typetree"
)

// Entry fields the store itself interprets.
const (
	fieldName     = "m_Name"
	fieldFileName = "FileName"
	fieldPathID   = "PathID"
)

var (
	ErrNoBasePath    = errors.New("base path is not set")
	ErrNotLoaded     = errors.New("bundle is not loaded")
	ErrMissingPathID = errors.New("entry has no PathID")
	ErrNotADirectory = errors.New("not a directory")
)

// bundle is one loaded collection.
type bundle struct {
	name    string // 読み込み時のファイル名（拡張子なし）
	entries map[int64]*typetree.Field
}

// BundleStore is a Facade backed by bundle files on disk.
type BundleStore struct {
	mu       sync.Mutex
	basePath string
	bundles  map[string]*bundle // key: lower-case name
	log      *slog.Logger
	lastErr  error
}

var _ Facade = (*BundleStore)(nil)

// Option configures a BundleStore.
type Option func(*BundleStore)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *BundleStore) {
		if l != nil {
			s.log = l
		}
	}
}

// NewBundleStore creates an empty store with no base path.
func NewBundleStore(opts ...Option) *BundleStore {
	s := &BundleStore{
		bundles: make(map[string]*bundle),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(name string) string {
	return strings.ToLower(name)
}

// fail records err as the last error and logs it. Callers hold s.mu.
func (s *BundleStore) fail(msg string, err error, args ...any) bool {
	s.lastErr = err
	s.log.Error(msg, append(args, "error", err)...)
	return false
}

// LastError returns the cause of the most recent failure, or nil.
func (s *BundleStore) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetBasePath sets the bundle directory. The path must be an existing
// directory. Loaded bundles are kept.
func (s *BundleStore) SetBasePath(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fileutil.IsDir(path) {
		return s.fail("invalid base path", fmt.Errorf("%s: %w", path, ErrNotADirectory), "path", path)
	}
	s.basePath = path
	s.lastErr = nil
	s.log.Debug("base path set", "path", path)
	return true
}

// GetBasePath returns the bundle directory, or "" when unset.
func (s *BundleStore) GetBasePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.basePath
}

// LoadBundles reads <base>/<name>.bundle for every name. Bundles that load
// successfully replace any in-memory copy even when another name fails.
func (s *BundleStore) LoadBundles(names []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.basePath == "" {
		return s.fail("cannot load bundles", ErrNoBasePath)
	}

	ok := true
	for _, name := range names {
		if err := s.load(name); err != nil {
			ok = s.fail("failed to load bundle", err, "bundle", name)
		}
	}
	if ok {
		s.lastErr = nil
	}
	return ok
}

func (s *BundleStore) load(name string) error {
	path, err := fileutil.FindFileCaseInsensitive(s.basePath, name+Ext)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stored, entries, err := ReadBundle(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !strings.EqualFold(stored, name) {
		s.log.Warn("bundle name differs from file name", "file", path, "stored", stored)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s.bundles[key(name)] = &bundle{name: base, entries: entries}
	s.log.Info("bundle loaded", "file", path, "entries", len(entries))
	return nil
}

// IsBundleLoaded reports whether name is held in memory.
func (s *BundleStore) IsBundleLoaded(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bundles[key(name)]
	return ok
}

// GetEntries returns the entries of a loaded bundle, or nil when it is not
// loaded. The map is a copy; the nodes are shared and must not be modified.
func (s *BundleStore) GetEntries(name string) map[int64]*typetree.Field {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bundles[key(name)]
	if !ok {
		s.fail("cannot get entries", ErrNotLoaded, "bundle", name)
		return nil
	}
	out := make(map[int64]*typetree.Field, len(b.entries))
	for id, e := range b.entries {
		out[id] = e
	}
	return out
}

// SetEntries merges nodes into the named bundle. Each node is matched to a
// stored entry by its PathID child. The FileName child is stored as m_Name;
// every other child replaces the member of the same name and members the
// node does not mention are preserved. Nodes with an unknown path ID become
// new entries. A bundle that is not loaded is created empty first.
func (s *BundleStore) SetEntries(name string, nodes []*typetree.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bundles[key(name)]
	if !ok {
		s.log.Warn("bundle not loaded, creating it", "bundle", name)
		b = &bundle{name: name, entries: make(map[int64]*typetree.Field)}
		s.bundles[key(name)] = b
	}

	updated, added := 0, 0
	for i, node := range nodes {
		pathID, err := node.Get(fieldPathID).AsInt()
		if err != nil {
			s.fail("skipping entry", fmt.Errorf("node %d: %w", i, ErrMissingPathID), "bundle", name)
			continue
		}
		existing, found := b.entries[pathID]
		if found {
			updated++
		} else {
			added++
		}
		b.entries[pathID] = mergeEntry(existing, node)
	}
	s.log.Info("entries set", "bundle", name, "updated", updated, "added", added)
}

func mergeEntry(existing, node *typetree.Field) *typetree.Field {
	var out *typetree.Field
	if existing != nil {
		out = existing.Clone()
	} else {
		out = typetree.NewObject("")
	}

	for _, c := range node.Children {
		if c == nil {
			continue
		}
		switch c.Name {
		case fieldPathID:
			// キーとして使うだけで保存しない
		case fieldFileName:
			out.Set(&typetree.Field{Name: fieldName, Value: c.Value})
		default:
			out.Set(c.Clone())
		}
	}
	return out
}

// SaveBundles writes every named bundle into outputPath, creating the
// directory when needed. Files are replaced atomically.
func (s *BundleStore) SaveBundles(names []string, outputPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(names, outputPath)
}

// SaveBundlesInBasePath overwrites the bundles in the base path.
func (s *BundleStore) SaveBundlesInBasePath(names []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.basePath == "" {
		return s.fail("cannot save bundles", ErrNoBasePath)
	}
	return s.save(names, s.basePath)
}

func (s *BundleStore) save(names []string, outputPath string) bool {
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return s.fail("cannot create output directory", err, "path", outputPath)
	}

	ok := true
	for _, name := range names {
		b, loaded := s.bundles[key(name)]
		if !loaded {
			ok = s.fail("cannot save bundle", fmt.Errorf("%s: %w", name, ErrNotLoaded), "bundle", name)
			continue
		}
		path := filepath.Join(outputPath, b.name+Ext)
		if existing, err := fileutil.FindFileCaseInsensitive(outputPath, b.name+Ext); err == nil {
			path = existing
		}
		if err := writeFileAtomic(path, name, b.entries); err != nil {
			ok = s.fail("failed to save bundle", err, "bundle", name, "path", path)
			continue
		}
		s.log.Info("bundle saved", "file", path, "entries", len(b.entries))
	}
	if ok {
		s.lastErr = nil
	}
	return ok
}

func writeFileAtomic(path, name string, entries map[int64]*typetree.Field) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bundle-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := WriteBundle(tmp, name, entries); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
