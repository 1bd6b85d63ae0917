package domain

// OutcomeKind classifies the result of a single lookup.
type OutcomeKind string

const (
	// KindFound means the registry confirmed the package and reported its latest version.
	KindFound OutcomeKind = "found"
	// KindNotFound means the registry authoritatively reported the package does not exist.
	KindNotFound OutcomeKind = "not_found"
	// KindFailed means the lookup could not determine an answer.
	KindFailed OutcomeKind = "failed"
)

// Outcome is the classified result of looking up one package.
// Build outcomes with Found, NotFound or Failed; they are never mutated afterwards.
type Outcome struct {
	// Name is the requested package name.
	Name PackageName
	// Kind is the classification of the lookup.
	Kind OutcomeKind
	// Version is the registry's max_version, set only for KindFound.
	// It is passed through verbatim and never parsed.
	Version string
	// Cause describes why the lookup failed, set only for KindFailed.
	Cause error
}

// Found builds an outcome for a package that exists.
func Found(name PackageName, version string) Outcome {
	return Outcome{Name: name, Kind: KindFound, Version: version}
}

// NotFound builds an outcome for a package the registry does not know.
func NotFound(name PackageName) Outcome {
	return Outcome{Name: name, Kind: KindNotFound}
}

// Failed builds an outcome for a lookup that could not be completed.
func Failed(name PackageName, cause error) Outcome {
	return Outcome{Name: name, Kind: KindFailed, Cause: cause}
}
