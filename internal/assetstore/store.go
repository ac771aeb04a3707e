// Package assetstore implements CRUD over binary image assets inside a
// tenant's namespace. The content kind is always derived from the file
// extension and byte signature, never from a caller-declared type.
package assetstore

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/resource"
	"github.com/starford/ansuz/internal/storage"
)

var (
	extToKind = map[string]models.AssetKind{
		".jpg":  models.AssetJPEG,
		".jpeg": models.AssetJPEG,
		".png":  models.AssetPNG,
		".gif":  models.AssetGIF,
	}

	mimeToKind = map[string]models.AssetKind{
		"image/jpeg": models.AssetJPEG,
		"image/png":  models.AssetPNG,
		"image/gif":  models.AssetGIF,
	}
)

// Store provides image asset operations scoped by tenant.
type Store struct {
	res *storage.Resolver
}

// New creates an asset store backed by the given resolver.
func New(res *storage.Resolver) *Store {
	return &Store{res: res}
}

// DetectKind determines the asset kind from the logical path's extension and
// the content's byte signature. Both must agree on an allow-listed image
// format.
func DetectKind(logical string, content []byte) (models.AssetKind, error) {
	ext := strings.ToLower(path.Ext(logical))
	byExt, ok := extToKind[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q (allowed: jpg, jpeg, png, gif)", apperr.ErrUnsupportedAsset, ext)
	}
	bySig, ok := mimeToKind[sniff(content)]
	if !ok {
		return "", fmt.Errorf("%w: content is not a recognized image", apperr.ErrUnsupportedAsset)
	}
	if bySig != byExt {
		return "", fmt.Errorf("%w: content is %s but extension says %s", apperr.ErrUnsupportedAsset, bySig, byExt)
	}
	return byExt, nil
}

// Save writes the image to logical, creating parent directories as needed and
// overwriting any existing asset. It returns the resource identifier and
// whether the asset was newly created.
func (s *Store) Save(_ context.Context, tenantID, logical string, content []byte) (uri string, created bool, err error) {
	abs, err := s.res.Resolve(tenantID, logical)
	if err != nil {
		return "", false, err
	}
	if _, err := DetectKind(logical, content); err != nil {
		return "", false, err
	}
	created = !storage.Exists(abs)
	if err := storage.WriteFile(abs, content); err != nil {
		return "", false, err
	}
	return resource.Encode(resource.KindImage, logical), created, nil
}

// Read returns the raw bytes of the asset at logical together with the kind
// detected from the stored bytes.
func (s *Store) Read(_ context.Context, tenantID, logical string) ([]byte, models.AssetKind, error) {
	abs, err := s.res.Resolve(tenantID, logical)
	if err != nil {
		return nil, "", err
	}
	data, err := storage.ReadFile(abs)
	if err != nil {
		return nil, "", err
	}
	kind, ok := mimeToKind[sniff(data)]
	if !ok {
		// The file exists but was not written through this store.
		kind, ok = extToKind[strings.ToLower(path.Ext(logical))]
		if !ok {
			return nil, "", fmt.Errorf("%w: stored content is not a recognized image", apperr.ErrUnsupportedAsset)
		}
	}
	return data, kind, nil
}

// Delete removes the asset at logical. Parent directories left empty by the
// removal are pruned up to the tenant root.
func (s *Store) Delete(_ context.Context, tenantID, logical string) error {
	abs, err := s.res.Resolve(tenantID, logical)
	if err != nil {
		return err
	}
	root, err := s.res.Root(tenantID)
	if err != nil {
		return err
	}
	return storage.RemoveFile(abs, root)
}

// List returns the immediate children of dir: assets tagged models.KindAsset
// and sub-directories tagged models.KindDir. Files outside the image
// allow-list are skipped. dir may be "" to list the tenant root.
func (s *Store) List(_ context.Context, tenantID, dir string) ([]models.Entry, error) {
	abs, err := s.res.ResolveDir(tenantID, dir)
	if err != nil {
		return nil, err
	}
	children, err := storage.ListDir(abs)
	if err != nil {
		return nil, err
	}
	var out []models.Entry
	for _, c := range children {
		switch {
		case c.IsDir():
			out = append(out, models.Entry{Name: c.Name(), Kind: models.KindDir})
		default:
			if _, ok := extToKind[strings.ToLower(path.Ext(c.Name()))]; ok {
				out = append(out, models.Entry{Name: c.Name(), Kind: models.KindAsset})
			}
		}
	}
	return out, nil
}

// KindForExt returns the asset kind matching the file extension of name.
func KindForExt(name string) (models.AssetKind, bool) {
	k, ok := extToKind[strings.ToLower(path.Ext(name))]
	return k, ok
}

func sniff(content []byte) string {
	detected := http.DetectContentType(content)
	return strings.Split(detected, ";")[0]
}
