package manifest

import (
	"fmt"
	"sort"
)

// SizeFunc reports the stored size of key, or an error if it cannot be read.
type SizeFunc func(key string) (int64, error)

// Validate checks the manifest for internal consistency and, when size is
// non-nil, that every variant exists in the store with the recorded size.
func Validate(m *Manifest, size SizeFunc) []string {
	var errs []string

	if m.Version != SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	// Stable output order.
	keys := make([]string, 0, len(m.Assets))
	for key := range m.Assets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	seenKeys := map[string]string{}
	for _, key := range keys {
		asset := m.Assets[key]
		if asset.Original.Width <= 0 || asset.Original.Height <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q: invalid original dimensions %dx%d",
				key, asset.Original.Width, asset.Original.Height))
		}
		if asset.AspectRatio <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q: invalid aspect ratio %.4f", key, asset.AspectRatio))
		}
		if len(asset.Variants) == 0 {
			errs = append(errs, fmt.Sprintf("asset %q: no variants", key))
		}

		for i, v := range asset.Variants {
			if v.Format == "" {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: empty format", key, i))
			}
			if v.Width <= 0 || v.Height <= 0 {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: invalid dimensions %dx%d",
					key, i, v.Width, v.Height))
			}
			if v.Hash == "" {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: missing hash", key, i))
			}
			if v.Key == "" {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: missing key", key, i))
				continue
			}

			if owner, dup := seenKeys[v.Key]; dup {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: duplicate key %q (also in %q)", key, i, v.Key, owner))
			}
			seenKeys[v.Key] = key

			if size == nil {
				continue
			}
			n, err := size(v.Key)
			if err != nil {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: %s: %v", key, i, v.Key, err))
			} else if v.Size > 0 && n != v.Size {
				errs = append(errs, fmt.Sprintf("asset %q variant[%d]: size mismatch: manifest=%d, store=%d",
					key, i, v.Size, n))
			}
		}
	}

	// Verify stats consistency.
	variantCount := 0
	for _, a := range m.Assets {
		variantCount += len(a.Variants)
	}
	if m.Stats.TotalAssets != len(m.Assets) {
		errs = append(errs, fmt.Sprintf("stats.total_assets mismatch: %d != %d", m.Stats.TotalAssets, len(m.Assets)))
	}
	if m.Stats.TotalVariants != variantCount {
		errs = append(errs, fmt.Sprintf("stats.total_variants mismatch: %d != %d", m.Stats.TotalVariants, variantCount))
	}

	return errs
}
