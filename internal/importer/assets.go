package importer

import (
	"context"
	"fmt"
	"strings"

	"limscore/pkg/domain"
)

// assetExtensions is the probe order when a named attachment is missing:
// the full lowercase set first, then the same set upper-cased, matching
// the layout of historical setup datasets.
var assetExtensions = []string{
	"pdf", "jpg", "jpeg", "png", "gif", "ods", "odt",
	"xlsx", "doc", "docx", "xls", "csv", "txt",
}

// ResolveAsset loads name from source, probing the known extensions when
// the exact name is absent, and returns the bytes together with the file
// name that matched. A domain.ErrNotFound return means the attachment
// should be skipped with a warning; it must never abort the import.
func ResolveAsset(ctx context.Context, source domain.AssetSource, name string) ([]byte, string, error) {
	if source == nil || name == "" {
		return nil, "", domain.ErrNotFound{Key: name}
	}
	candidates := make([]string, 0, 1+2*len(assetExtensions))
	candidates = append(candidates, name)
	for _, ext := range assetExtensions {
		candidates = append(candidates, name+"."+ext)
	}
	for _, ext := range assetExtensions {
		candidates = append(candidates, name+"."+strings.ToUpper(ext))
	}
	for _, candidate := range candidates {
		ok, err := source.Exists(ctx, candidate)
		if err != nil {
			return nil, "", fmt.Errorf("probe %s: %w", candidate, err)
		}
		if !ok {
			continue
		}
		data, err := source.Open(ctx, candidate)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", candidate, err)
		}
		return data, candidate, nil
	}
	return nil, "", domain.ErrNotFound{Key: name}
}
