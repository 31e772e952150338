package disk

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/model"
)

// Disks resolves path prefixes of local storage disks. Relative roots are
// resolved against the base directory.
type Disks struct {
	prefixes map[string]string
}

// New creates Disks from disk name to root directory
func New(baseDir string, roots map[string]string) (*Disks, error) {
	prefixes := make(map[string]string, len(roots))
	for name, root := range roots {
		if root == "" {
			continue
		}
		if !filepath.IsAbs(root) {
			root = filepath.Join(baseDir, root)
		}

		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve disk root", goerr.V("disk", name), goerr.V("root", root))
		}
		prefixes[name] = withSeparator(abs)
	}

	return &Disks{prefixes: prefixes}, nil
}

// PathPrefix returns the prefix of the disk, always ending with a separator
func (d *Disks) PathPrefix(name string) (string, error) {
	p, ok := d.prefixes[name]
	if !ok {
		return "", goerr.Wrap(model.ErrUnknownDisk, "disk is not configured", goerr.V("disk", name))
	}
	return p, nil
}

// Root returns the absolute root directory of the disk
func (d *Disks) Root(name string) (string, bool) {
	p, ok := d.prefixes[name]
	if !ok {
		return "", false
	}
	return strings.TrimSuffix(p, string(os.PathSeparator)), true
}

// Names returns configured disk names in sorted order
func (d *Disks) Names() []string {
	names := make([]string, 0, len(d.prefixes))
	for name := range d.prefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func withSeparator(p string) string {
	if strings.HasSuffix(p, string(os.PathSeparator)) {
		return p
	}
	return p + string(os.PathSeparator)
}
