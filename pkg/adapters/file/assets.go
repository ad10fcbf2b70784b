package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/aretw0/atelier/pkg/domain"
)

// AssetSource implements ports.AssetSource over a local asset tree laid out
// like the asset host (ADRIAN/, labimages/, ...).
type AssetSource struct {
	fsys     fs.FS
	maxBytes int64
}

// DefaultMaxAssetBytes is the largest asset file read.
const DefaultMaxAssetBytes = 10 << 20

// AssetOption configures an AssetSource.
type AssetOption func(*AssetSource)

// WithMaxAssetBytes overrides DefaultMaxAssetBytes. Non-positive values
// keep the default.
func WithMaxAssetBytes(n int64) AssetOption {
	return func(a *AssetSource) {
		if n > 0 {
			a.maxBytes = n
		}
	}
}

// NewAssetSource serves assets from dir.
func NewAssetSource(dir string, opts ...AssetOption) *AssetSource {
	a := &AssetSource{fsys: os.DirFS(dir), maxBytes: DefaultMaxAssetBytes}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch reads the layer's Path, then its Fallback. Files over the size
// ceiling fail with domain.ErrInputTooLarge.
func (a *AssetSource) Fetch(ctx context.Context, layer domain.TraitLayer) ([]byte, error) {
	for _, p := range []string{layer.Path, layer.Fallback} {
		if p == "" || !fs.ValidPath(p) {
			continue
		}
		data, err := a.read(p)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, domain.ErrInputTooLarge) {
			return nil, err
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read asset %s: %w", p, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrAssetUnavailable, layer.Path)
}

func (a *AssetSource) read(p string) ([]byte, error) {
	f, err := a.fsys.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > a.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", domain.ErrInputTooLarge, p, info.Size())
	}
	// The file may grow between Stat and the read.
	data, err := io.ReadAll(io.LimitReader(f, a.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > a.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInputTooLarge, p, a.maxBytes)
	}
	return data, nil
}

// Variants lists the labimages/{id}{a-j}.svg files present.
func (a *AssetSource) Variants(ctx context.Context, traitID string) ([]string, error) {
	var out []string
	for c := 'a'; c <= 'j'; c++ {
		id := traitID + string(c)
		p := "labimages/" + id + ".svg"
		if _, err := fs.Stat(a.fsys, p); err == nil {
			out = append(out, id)
		}
	}
	return out, nil
}
