package include

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultPrefixFile is the file that declares the absolute include path of
// the directory it is in.
const DefaultPrefixFile = "$PBOPREFIX$"

// DefaultCacheSize is the number of file contents a FileResolver keeps.
const DefaultCacheSize = 128

// Options configures a FileResolver.
type Options struct {
	Roots      []string // search roots for absolute paths, highest priority first
	WorkDir    string   // base of relative paths
	PrefixFile string
	CacheSize  int
	Logger     *zap.Logger
}

// mount maps an absolute include prefix onto a directory.
type mount struct {
	prefix []string
	dir    string
}

// FileResolver resolves include paths on a filesystem.
type FileResolver struct {
	fs       afero.Fs
	opts     Options
	log      *zap.Logger
	contents *lru.Cache[string, []byte]
	mounts   *lru.Cache[string, []mount]
}

// NewFileResolver creates a resolver over fs.
func NewFileResolver(fs afero.Fs, opts Options) (*FileResolver, error) {
	if opts.PrefixFile == "" {
		opts.PrefixFile = DefaultPrefixFile
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	contents, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("content cache: %w", err)
	}
	mounts, err := lru.New[string, []mount](len(opts.Roots) + 1)
	if err != nil {
		return nil, fmt.Errorf("prefix cache: %w", err)
	}
	return &FileResolver{fs: fs, opts: opts, log: log, contents: contents, mounts: mounts}, nil
}

// Resolve implements Resolver.
func (r *FileResolver) Resolve(path string) (io.ReadCloser, error) {
	name, err := r.Locate(path)
	if err != nil {
		return nil, err
	}
	if data, ok := r.contents.Get(name); ok {
		r.log.Debug("include cache hit", zap.String("path", path), zap.String("file", name))
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	data, err := afero.ReadFile(r.fs, name)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	r.contents.Add(name, data)
	r.log.Debug("include resolved", zap.String("path", path), zap.String("file", name), zap.Int("size", len(data)))
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Locate returns the filesystem name path resolves to.
func (r *FileResolver) Locate(path string) (string, error) {
	parts, absolute, err := Split(path)
	if err != nil {
		return "", &Error{Path: path, Err: err}
	}
	for _, part := range parts {
		if strings.EqualFold(filepath.Ext(part), ".pbo") {
			return "", &Error{Path: path, Err: ErrUnsupported}
		}
	}
	if !absolute {
		name := filepath.Join(append([]string{r.opts.WorkDir}, parts...)...)
		if r.isFile(name) {
			return name, nil
		}
		return "", &Error{Path: path, Err: ErrNotFound}
	}
	for _, root := range r.opts.Roots {
		for _, m := range r.rootMounts(root) {
			rest, ok := trimPrefix(parts, m.prefix)
			if !ok {
				continue
			}
			name := filepath.Join(append([]string{m.dir}, rest...)...)
			if r.isFile(name) {
				return name, nil
			}
		}
		name := filepath.Join(append([]string{root}, parts...)...)
		if r.isFile(name) {
			return name, nil
		}
	}
	return "", &Error{Path: path, Err: ErrNotFound}
}

// Purge drops cached contents and prefix indexes.
func (r *FileResolver) Purge() {
	r.contents.Purge()
	r.mounts.Purge()
}

func (r *FileResolver) isFile(name string) bool {
	info, err := r.fs.Stat(name)
	return err == nil && !info.IsDir()
}

// rootMounts returns the prefix mounts below root, longest prefix first.
func (r *FileResolver) rootMounts(root string) []mount {
	if ms, ok := r.mounts.Get(root); ok {
		return ms
	}
	var ms []mount
	err := afero.Walk(r.fs, root, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() || info.Name() != r.opts.PrefixFile {
			return nil
		}
		data, err := afero.ReadFile(r.fs, name)
		if err != nil {
			return err
		}
		prefix := parsePrefix(string(data))
		if len(prefix) == 0 {
			r.log.Warn("empty prefix file", zap.String("file", name))
			return nil
		}
		ms = append(ms, mount{prefix: prefix, dir: filepath.Dir(name)})
		return nil
	})
	if err != nil {
		r.log.Warn("indexing include root", zap.String("root", root), zap.Error(err))
	}
	sort.SliceStable(ms, func(i, j int) bool { return len(ms[i].prefix) > len(ms[j].prefix) })
	r.mounts.Add(root, ms)
	return ms
}

// parsePrefix reads the first non-blank line of a prefix file.
func parsePrefix(content string) []string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var parts []string
		for _, part := range strings.Split(strings.Trim(line, `\`), `\`) {
			if part != "" {
				parts = append(parts, part)
			}
		}
		return parts
	}
	return nil
}

// trimPrefix removes prefix from parts, comparing case-insensitively.
func trimPrefix(parts, prefix []string) ([]string, bool) {
	if len(parts) <= len(prefix) {
		return nil, false
	}
	for i, p := range prefix {
		if !strings.EqualFold(parts[i], p) {
			return nil, false
		}
	}
	return parts[len(prefix):], true
}
