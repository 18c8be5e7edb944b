package static

import (
	"errors"
	"io/fs"
	"os"
	"path"

	"github.com/indigo-web/fileserve/config"
	"github.com/indigo-web/fileserve/http/status"
)

// othersRead is the read permission bit of the "other" class.
const othersRead fs.FileMode = 0o004

// Resolver maps request paths onto files inside the document root.
type Resolver struct {
	root    string
	maxPath int
}

func NewResolver(cfg config.Static) *Resolver {
	return &Resolver{
		root:    cfg.Root,
		maxPath: cfg.MaxPathLength,
	}
}

// Resolve maps the file the request path refers to. Returned errors are status errors:
// status.ErrNotFound, status.ErrForbidden, status.ErrIsDirectory or
// status.ErrInternalServerError.
func (r *Resolver) Resolve(requestPath string) (*Mapping, error) {
	name := r.Filename(requestPath)

	info, err := os.Stat(name)
	if err != nil {
		return nil, status.ErrNotFound
	}

	switch {
	case info.Mode().Perm()&othersRead == 0:
		return nil, status.ErrForbidden
	case info.IsDir():
		return nil, status.ErrIsDirectory
	}

	mapping, err := mapFile(name)
	if err != nil {
		return nil, errors.Join(status.ErrInternalServerError, err)
	}

	return mapping, nil
}

// Filename composes the filesystem path. Dot segments are resolved before the path is
// joined with the root, so the result never escapes it.
func (r *Resolver) Filename(requestPath string) string {
	name := r.root + path.Clean("/"+requestPath)
	if limit := r.maxPath - 1; len(name) > limit {
		name = name[:limit]
	}

	return name
}
