// Package resolver turns raw user-supplied skill references into
// fully-qualified SkillReferences that name a source type, a locator, and
// a version. Resolution is a pure function of the input string and the
// project defaults; no I/O happens here.
package resolver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidReference indicates a malformed reference string. It is never
// retryable; the offending token is named in the wrapped message.
var ErrInvalidReference = errors.New("invalid reference")

// SourceType tags which registered source handles a reference.
type SourceType string

// Known source type tags.
const (
	TypeGit   SourceType = "git"
	TypeOCI   SourceType = "oci"
	TypeLocal SourceType = "local"
)

// SkillReference is the resolved addressing triple for one skill. It is
// recomputed from the manifest entry on every run, never persisted.
type SkillReference struct {
	// Type selects the source that can fetch this reference.
	Type SourceType

	// Locator is the fully-qualified, scheme-stripped address: a git URL
	// (optionally with a #ref fragment), an OCI reference including tag,
	// or a local filesystem path.
	Locator string

	// Version is the raw version string as the user supplied it.
	// "latest" when absent. Tag normalization (the "v" prefix) happens
	// when the OCI locator is built, not here.
	Version string
}

// Canonical renders the reference with its scheme prefix, e.g.
// "oci:ghcr.io/skillset/file-analyzer:v1.0.0".
func (r SkillReference) Canonical() string {
	return string(r.Type) + ":" + r.Locator
}

// Defaults carries the project configuration the resolver needs.
type Defaults struct {
	// Registry is the default OCI host and namespace for bare names,
	// e.g. "ghcr.io/skillset".
	Registry string
}

// DefaultRegistry is used when the project manifest does not set one.
const DefaultRegistry = "ghcr.io/skillset"

const (
	maxOwner = 39
	maxName  = 100
)

var (
	nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	schemeRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Resolve turns a raw reference string into a SkillReference.
//
// Explicit forms are parsed directly: "git:<url>", "oci:<ref>", and local
// paths starting with "./", "../", "/", or "~". Anything else is a bare
// name, optionally scoped ("@owner/name") and optionally versioned
// ("name@1.0.0"), which resolves to an OCI locator under the default
// registry namespace.
func Resolve(raw string, defaults Defaults) (SkillReference, error) {
	return ResolveWithVersion(raw, "", defaults)
}

// ResolveWithVersion resolves raw together with a separately-supplied
// version, as when a manifest entry carries both a source and a version.
// A version inline in the locator (a git "#ref" fragment or an OCI tag)
// wins over the argument; a git version may be any branch, tag, or commit
// while an OCI version must pass ValidateVersion. Tagless OCI locators
// default to ":latest".
func ResolveWithVersion(raw, version string, defaults Defaults) (SkillReference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SkillReference{}, fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	switch {
	case strings.HasPrefix(raw, "git:"):
		locator := strings.TrimPrefix(raw, "git:")
		if locator == "" {
			return SkillReference{}, fmt.Errorf("%w: git reference %q has no URL", ErrInvalidReference, raw)
		}
		v := fragmentVersion(locator)
		if v == "latest" && version != "" && version != "latest" {
			v = version
		}
		return SkillReference{Type: TypeGit, Locator: locator, Version: v}, nil

	case strings.HasPrefix(raw, "oci:"):
		locator := strings.TrimPrefix(raw, "oci:")
		if locator == "" {
			return SkillReference{}, fmt.Errorf("%w: oci reference %q has no locator", ErrInvalidReference, raw)
		}
		if !hasTagOrDigest(locator) {
			if err := ValidateVersion(version); err != nil {
				return SkillReference{}, err
			}
			locator += ":" + versionTag(version)
		}
		return SkillReference{Type: TypeOCI, Locator: locator, Version: tagOf(locator)}, nil

	case isLocalPath(raw):
		return SkillReference{Type: TypeLocal, Locator: raw, Version: "local"}, nil
	}

	// Reject unknown schemes before treating the rest as a bare name.
	// Scoped names start with '@', which no scheme can.
	if !strings.HasPrefix(raw, "@") && schemeRe.MatchString(raw) {
		scheme := raw[:strings.Index(raw, ":")]
		return SkillReference{}, fmt.Errorf("%w: unsupported scheme %q (expected git: or oci:)", ErrInvalidReference, scheme)
	}

	name, inlineVersion, err := SplitNameVersion(raw)
	if err != nil {
		return SkillReference{}, err
	}
	if inlineVersion == "latest" && version != "" {
		inlineVersion = version
	}

	return ResolveName(name, inlineVersion, defaults)
}

// ResolveName resolves a validated bare or scoped skill name plus a raw
// version into its OCI reference under the project registry.
func ResolveName(name, version string, defaults Defaults) (SkillReference, error) {
	if err := ValidateName(name); err != nil {
		return SkillReference{}, err
	}
	if err := ValidateVersion(version); err != nil {
		return SkillReference{}, err
	}

	registry := defaults.Registry
	if registry == "" {
		registry = DefaultRegistry
	}

	domain, namespace := splitRegistry(registry)
	tag := versionTag(version)

	var locator string
	if strings.HasPrefix(name, "@") {
		owner, skill, _ := strings.Cut(name[1:], "/")
		locator = fmt.Sprintf("%s/%s/%s:%s", domain, owner, skill, tag)
	} else {
		locator = fmt.Sprintf("%s/%s/%s:%s", domain, namespace, name, tag)
	}

	return SkillReference{Type: TypeOCI, Locator: locator, Version: version}, nil
}

// SplitNameVersion separates "name@version" into its parts. The version
// defaults to "latest" when absent. The leading '@' of a scoped name is
// not a version separator.
func SplitNameVersion(raw string) (name, version string, err error) {
	if raw == "" {
		return "", "", fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	at := strings.LastIndex(raw, "@")
	if at <= 0 { // -1: no version; 0: leading '@' of a scope
		return raw, "latest", nil
	}
	name, version = raw[:at], raw[at+1:]
	if version == "" {
		return "", "", fmt.Errorf("%w: reference %q has an empty version after '@'", ErrInvalidReference, raw)
	}
	return name, version, nil
}

// ValidateName checks a bare or scoped ("@owner/name") skill name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty skill name", ErrInvalidReference)
	}

	if strings.HasPrefix(name, "@") {
		owner, skill, found := strings.Cut(name[1:], "/")
		if !found || owner == "" || skill == "" {
			return fmt.Errorf("%w: scoped name %q must be @owner/name", ErrInvalidReference, name)
		}
		if strings.Contains(skill, "/") {
			return fmt.Errorf("%w: scoped name %q has too many path segments", ErrInvalidReference, name)
		}
		if len(owner) > maxOwner {
			return fmt.Errorf("%w: owner %q exceeds %d characters", ErrInvalidReference, owner, maxOwner)
		}
		if !nameRegex.MatchString(owner) {
			return fmt.Errorf("%w: owner %q contains invalid characters", ErrInvalidReference, owner)
		}
		name = skill
	}

	if len(name) > maxName {
		return fmt.Errorf("%w: skill name %q exceeds %d characters", ErrInvalidReference, name, maxName)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: skill name %q contains invalid characters", ErrInvalidReference, name)
	}
	return nil
}

// ValidateVersion accepts "latest" or a semantic-version-shaped string.
// Versions stay opaque beyond this syntactic check; nothing here performs
// range solving.
func ValidateVersion(version string) error {
	if version == "" || version == "latest" {
		return nil
	}
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("%w: version %q is not a valid version string", ErrInvalidReference, version)
	}
	return nil
}

// versionTag normalizes a raw version to its OCI tag form: "latest" stays
// as-is, everything else gets a "v" prefix unless already present.
func versionTag(version string) string {
	if version == "" || version == "latest" {
		return "latest"
	}
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// splitRegistry separates "host/namespace" registry config. A bare host
// falls back to the "skillset" namespace.
func splitRegistry(registry string) (domain, namespace string) {
	domain, namespace, found := strings.Cut(registry, "/")
	if !found || namespace == "" {
		return domain, "skillset"
	}
	return domain, namespace
}

// fragmentVersion extracts the "#ref" fragment of a git locator, used as
// the displayed version. Defaults to "latest".
func fragmentVersion(locator string) string {
	if _, frag, found := strings.Cut(locator, "#"); found && frag != "" {
		return frag
	}
	return "latest"
}

// hasTagOrDigest reports whether an OCI locator already names a tag or a
// digest.
func hasTagOrDigest(locator string) bool {
	if strings.Contains(locator, "@") {
		return true
	}
	return strings.LastIndex(locator, ":") > strings.LastIndex(locator, "/")
}

// tagOf extracts the tag of an OCI locator for display. Defaults to "latest".
func tagOf(locator string) string {
	// The tag separator is the last ':' after the last '/': a ':' before
	// that is a registry port.
	slash := strings.LastIndex(locator, "/")
	colon := strings.LastIndex(locator, ":")
	if colon > slash {
		return locator[colon+1:]
	}
	return "latest"
}

func isLocalPath(ref string) bool {
	return strings.HasPrefix(ref, "./") ||
		strings.HasPrefix(ref, "../") ||
		strings.HasPrefix(ref, "/") ||
		strings.HasPrefix(ref, "~")
}
