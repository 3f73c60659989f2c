package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

const fileExt = ".json"

type diskvBackend struct {
	d        *diskv.Diskv
	basePath string
}

func newDiskv(basePath string) *diskvBackend {
	return &diskvBackend{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	}), basePath: basePath}
}

func (b *diskvBackend) read(_ context.Context, key string) ([]byte, bool, error) {
	val, err := b.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (b *diskvBackend) write(_ context.Context, key string, data []byte) error {
	return b.d.Write(key, data)
}

func (b *diskvBackend) erase(_ context.Context, key string) error {
	if !b.d.Has(key) {
		return nil
	}
	return b.d.Erase(key)
}

func (b *diskvBackend) keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	for k := range b.d.KeysPrefix(prefix, ctx.Done()) {
		out = append(out, k)
	}
	return out, ctx.Err()
}

func (b *diskvBackend) watch(ctx context.Context) (<-chan Event, error) {
	if b.basePath == "" {
		return nil, errors.New("store: persistence base path unknown")
	}
	return watchDir(ctx, b.basePath, true, b.eventForPath)
}

func (b *diskvBackend) close() error {
	return nil
}

// eventForPath maps a file under the base path back to its key.
func (b *diskvBackend) eventForPath(path string) (Event, bool) {
	rel, err := filepath.Rel(b.basePath, path)
	if err != nil || rel == "." {
		return Event{}, false
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	if len(parts) != 2 || !strings.HasSuffix(parts[1], fileExt) {
		return Event{Type: EventInvalidated}, true
	}
	return eventForKey(pathToKeyTransform(&diskv.PathKey{Path: parts[:1], FileName: parts[1]})), true
}

// keyToPathTransform stores "<kind>-<name>" as <kind>/<name>.json.
func keyToPathTransform(s string) *diskv.PathKey {
	kind, name := splitKey(s)
	return &diskv.PathKey{
		Path:     []string{kind},
		FileName: name + fileExt,
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	kind := ""
	if len(pathKey.Path) > 0 {
		kind = pathKey.Path[0]
	}
	return key(kind, strings.TrimSuffix(pathKey.FileName, fileExt))
}
