// Package oci stores, packages, pulls, and pushes skills as OCI artifacts.
// A skill artifact is a single-layer image: a reproducible tar.gz of the
// skill directory, with skill metadata carried as manifest annotations.
package oci

const (
	// ArtifactTypeSkill identifies skill artifacts in manifests.
	ArtifactTypeSkill = "dev.skillset.skill.v1"

	// AnnotationSkillName is the manifest annotation key for the skill name.
	AnnotationSkillName = "dev.skillset.skill.name"

	// AnnotationSkillDescription is the manifest annotation key for the
	// skill description.
	AnnotationSkillDescription = "dev.skillset.skill.description"

	// AnnotationSkillVersion is the manifest annotation key for the skill
	// version.
	AnnotationSkillVersion = "dev.skillset.skill.version"
)
