package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/zurustar/bsscript/pkg/compiler"
	"github.com/zurustar/bsscript/pkg/fileutil"
	"github.com/zurustar/bsscript/pkg/script"
)

// TextExt is the extension of decompiled script files.
const TextExt = ".bss"

var unsafeNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// exportNamePattern matches "<name>_<pathid>.bss".
var exportNamePattern = regexp.MustCompile(`^(.*)_(-?\d+)$`)

// ExportFileName returns the file name export uses for f.
func ExportFileName(f *script.ScriptFile) string {
	name := unsafeNameChars.ReplaceAllString(f.FileName, "_")
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s_%d%s", name, f.PathID, TextExt)
}

// identityFromFileName recovers the name and path ID encoded by
// ExportFileName. It is only a fallback for files without a #file header;
// ok is false when the name carries no path ID.
func identityFromFileName(path string) (string, int64, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := exportNamePattern.FindStringSubmatch(base)
	if m == nil {
		return base, 0, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return base, 0, false
	}
	return m[1], id, true
}

// List implements cli.Handler.
func (app *Application) List(ctx context.Context, w io.Writer) error {
	sess, err := app.openSession()
	if err != nil {
		return err
	}
	files, err := sess.ScriptFiles()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH_ID\tNAME\tSCRIPTS\tCOMMANDS\tSTRINGS")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", f.PathID, f.FileName, len(f.Scripts), f.CommandCount(), len(f.Strings))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if errs := sess.DecodeErrors(); len(errs) > 0 {
		fmt.Fprintf(w, "%d entries could not be decoded:\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(w, "  %v\n", e)
		}
	}
	return nil
}

// Decompile implements cli.Handler.
func (app *Application) Decompile(ctx context.Context, w io.Writer, pathID int64, label string) error {
	sess, err := app.openSession()
	if err != nil {
		return err
	}
	f, ok := sess.FindScriptFile(pathID)
	if !ok {
		return fmt.Errorf("script file %d not found", pathID)
	}

	if label == "" {
		_, err = io.WriteString(w, sess.DecompileScriptFile(f))
		return err
	}
	s := f.FindScript(label)
	if s == nil {
		return fmt.Errorf("script %q not found in %s (%d)", label, f.FileName, pathID)
	}
	_, err = io.WriteString(w, sess.DecompileScript(s))
	return err
}

// Export implements cli.Handler. Files are decompiled and written
// concurrently.
func (app *Application) Export(ctx context.Context, w io.Writer, dir string) error {
	sess, err := app.openSession()
	if err != nil {
		return err
	}
	files, err := sess.ScriptFiles()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	enc := app.config.TextEncoding()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, ExportFileName(f))
			if err := fileutil.WriteText(path, sess.DecompileScriptFile(f), enc); err != nil {
				return err
			}
			app.log.Debug("Script file exported", "path_id", f.PathID, "file", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(w, "exported %d file(s) to %s\n", len(files), dir)
	return nil
}

type importResult struct {
	path     string
	file     *script.ScriptFile
	warnings []*compiler.CompileError
	err      error

	// identified is set when the path ID came from a #file header or
	// the file name, not from the zero default.
	identified bool
}

// Import implements cli.Handler. Every .bss file under dir is compiled;
// compiled files replace the loaded file with the same path ID or are
// added. Nothing is saved when any file fails.
func (app *Application) Import(ctx context.Context, w io.Writer, dir string) error {
	paths, err := fileutil.FindFilesByExt(dir, TextExt)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s files in %s", TextExt, dir)
	}

	sess, err := app.openSession()
	if err != nil {
		return err
	}

	results := app.compileAll(ctx, paths)
	if err := ctx.Err(); err != nil {
		return err
	}

	var errs []error
	seen := make(map[int64]string)
	imported := make([]*script.ScriptFile, 0, len(results))
	for _, r := range results {
		for _, warn := range r.warnings {
			fmt.Fprintf(w, "%s: warning: %s\n", r.path, warn.Short())
		}
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.path, r.err))
			continue
		}
		if !r.identified {
			errs = append(errs, fmt.Errorf("%s: cannot determine path ID (no #file header)", r.path))
			continue
		}
		if other, dup := seen[r.file.PathID]; dup {
			errs = append(errs, fmt.Errorf("%s: path ID %d already imported from %s", r.path, r.file.PathID, other))
			continue
		}
		seen[r.file.PathID] = r.path
		imported = append(imported, r.file)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	current, err := sess.ScriptFiles()
	if err != nil {
		return err
	}
	merged, replaced := mergeByPathID(current, imported)
	if err := sess.SetScriptFiles(merged); err != nil {
		return err
	}

	dest := app.config.OutDir
	if dest == "" {
		dest = sess.GetBasePath()
		err = sess.SaveScriptFilesInBasePath()
	} else {
		err = sess.SaveScriptFiles(dest)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "imported %d file(s) (%d replaced, %d added), saved to %s\n",
		len(imported), replaced, len(imported)-replaced, dest)
	return nil
}

// compileAll compiles the files concurrently, keeping input order.
func (app *Application) compileAll(ctx context.Context, paths []string) []importResult {
	enc := app.config.TextEncoding()
	results := make([]importResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			r := &results[i]
			r.path = path
			if r.err = ctx.Err(); r.err != nil {
				return nil
			}
			text, err := fileutil.ReadText(path, enc)
			if err != nil {
				r.err = err
				return nil
			}
			name, pathID, named := identityFromFileName(path)
			_, _, headed := compiler.FileIdentity(text)
			r.identified = named || headed
			r.file, r.warnings, r.err = app.session.CompileScriptFile(text, pathID, name, app.config.IgnoreExceptions)
			return nil
		})
	}
	// 個々のエラーは results に記録している
	_ = g.Wait()
	return results
}

// mergeByPathID replaces files of current with imported ones sharing a
// path ID and appends the rest.
func mergeByPathID(current, imported []*script.ScriptFile) ([]*script.ScriptFile, int) {
	index := make(map[int64]int, len(current))
	merged := make([]*script.ScriptFile, len(current), len(current)+len(imported))
	for i, f := range current {
		index[f.PathID] = i
		merged[i] = f
	}

	replaced := 0
	for _, f := range imported {
		if i, ok := index[f.PathID]; ok {
			merged[i] = f
			replaced++
			continue
		}
		merged = append(merged, f)
	}
	return merged, replaced
}

// Check implements cli.Handler. The bundle is not read.
func (app *Application) Check(ctx context.Context, w io.Writer, path string) error {
	resolved, err := fileutil.ResolvePath(path)
	if err != nil {
		return err
	}
	text, err := fileutil.ReadText(resolved, app.config.TextEncoding())
	if err != nil {
		return err
	}

	name, pathID, _ := identityFromFileName(path)
	f, warnings, err := compiler.CompileFile(text, pathID, name, app.config.IgnoreExceptions)
	for _, warn := range warnings {
		fmt.Fprintf(w, "%s: warning: %s\n", path, warn.Short())
	}
	if err != nil {
		fmt.Fprintf(w, "%s: %v\n", path, err)
		return fmt.Errorf("check failed: %s", path)
	}

	fmt.Fprintf(w, "%s: ok (%s, path ID %d, %d script(s), %d command(s))\n",
		path, f.FileName, f.PathID, len(f.Scripts), f.CommandCount())
	return nil
}
