package manifest

// Manifest is the record of one batch run.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Profile     string           `json:"profile"`
	Store       string           `json:"store"` // backend the variants were written to
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Assets      map[string]Asset `json:"assets"`
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures run parameters for diagnostics.
type BuildInfo struct {
	Workers    int      `json:"workers"`
	Strategy   string   `json:"strategy"`
	Encoders   []string `json:"encoders"`
	Operations []string `json:"operations"`
}

// Asset describes one source image and every variant produced from it.
type Asset struct {
	Original    OriginalInfo `json:"original"`
	AspectRatio float64      `json:"aspect_ratio"` // width / height
	Variants    []Variant    `json:"variants"`
}

// OriginalInfo holds metadata about the source image.
type OriginalInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
	HasAlpha bool   `json:"has_alpha"`
}

// Variant is one transformed output, stored under Key.
type Variant struct {
	Operations  string `json:"operations"`
	Format      string `json:"format"` // "avif", "webp", "jpeg", "png"
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int64  `json:"size"` // stored bytes
	Hash        string `json:"hash"` // 16 hex chars of xxhash64
	Key         string `json:"key"`  // <source key>/<operations>
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalAssets      int   `json:"total_assets"`
	TotalVariants    int   `json:"total_variants"`
	Failed           int   `json:"failed,omitempty"` // (source, operations) pairs that failed
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 2
