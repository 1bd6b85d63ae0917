package registry

// packageMetadata is the part of the registry's package document getver reads.
// On crates.io it is the "crate" member of GET /api/v1/crates/<name>.
type packageMetadata struct {
	Name       string `json:"name"`
	MaxVersion string `json:"max_version"`
}
