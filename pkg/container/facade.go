// Package container stores the typed-field trees that hold script data.
//
// The Facade interface is what the session layer talks to. BundleStore is
// the file-backed implementation: every named collection lives in
// <base>/<name>.bundle as a small magic header followed by a zstd frame of
// canonical CBOR.
package container

import "github.com/zurustar/bsscript/pkg/typetree"

// Facade abstracts the asset container. Methods report failure as false
// and log the cause; they never panic on I/O errors.
type Facade interface {
	// SetBasePath sets the directory containing the bundle files.
	SetBasePath(path string) bool
	GetBasePath() string

	// LoadBundles reads the named collections from the base path.
	LoadBundles(names []string) bool
	IsBundleLoaded(name string) bool

	// GetEntries returns the root node of every entry, keyed by path ID.
	GetEntries(name string) map[int64]*typetree.Field
	// SetEntries merges nodes produced by the converter into the collection.
	SetEntries(name string, nodes []*typetree.Field)

	// SaveBundles writes the named collections into outputPath.
	SaveBundles(names []string, outputPath string) bool
	SaveBundlesInBasePath(names []string) bool
}
