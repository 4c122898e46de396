package source

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/wippyai/component-runtime/component"
	"github.com/wippyai/component-runtime/errors"
)

// DefaultExtensions are tried in order for each path.
var DefaultExtensions = []string{".jsx", ".tsx", ".js"}

// maxSuggestDistance bounds how far a "did you mean" hint may be.
const maxSuggestDistance = 3

// DirFetcher reads <root>/<author>/<name><ext> files.
type DirFetcher struct {
	fsys       fs.FS
	extensions []string
}

// NewDirFetcher serves components from the directory root. Nil or empty
// extensions use DefaultExtensions.
func NewDirFetcher(root string, extensions []string) *DirFetcher {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &DirFetcher{fsys: os.DirFS(root), extensions: extensions}
}

// NewFSFetcher serves components from fsys, such as an embedded tree.
func NewFSFetcher(fsys fs.FS, extensions []string) *DirFetcher {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &DirFetcher{fsys: fsys, extensions: extensions}
}

// Fetch implements Fetcher.
func (d *DirFetcher) Fetch(ctx context.Context, paths []component.Path) map[component.Path]Result {
	out := make(map[component.Path]Result, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			out[p] = Result{Err: errors.ComponentNotFound(string(p), err)}
			continue
		}
		src, err := d.read(p)
		out[p] = Result{Source: src, Err: err}
	}
	return out
}

func (d *DirFetcher) read(p component.Path) (string, error) {
	for _, ext := range d.extensions {
		data, err := fs.ReadFile(d.fsys, p.Author()+"/"+p.Name()+ext)
		if err == nil {
			return string(data), nil
		}
		if !stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.ComponentNotFound(string(p), err)
		}
	}

	nf := errors.ComponentNotFound(string(p), nil)
	if hint := d.suggest(p); hint != "" {
		nf.Detail += ", did you mean " + hint + "?"
	}
	return "", nf
}

// List returns every component path under the fetcher's root.
func (d *DirFetcher) List() ([]component.Path, error) {
	var out []component.Path
	err := fs.WalkDir(d.fsys, ".", func(name string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			return nil
		}
		for _, ext := range d.extensions {
			if !strings.HasSuffix(name, ext) {
				continue
			}
			if p, err := component.ParsePath(strings.TrimSuffix(filepath.ToSlash(name), ext)); err == nil {
				out = append(out, p)
			}
			break
		}
		return nil
	})
	return out, err
}

// suggest returns the closest existing path to p, if any is near enough.
func (d *DirFetcher) suggest(p component.Path) string {
	known, err := d.List()
	if err != nil {
		return ""
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, k := range known {
		dist := levenshtein.ComputeDistance(string(p), string(k))
		if dist < bestDist {
			best, bestDist = string(k), dist
		}
	}
	return best
}
