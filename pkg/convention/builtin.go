package convention

import (
	"fmt"
	"os"
	"path/filepath"
)

// Builtin convention names.
const (
	AutoGPTName     = "autogpt"
	LangChainName   = "langchain"
	AgentSkillsName = "agent-skills"
	CustomName      = "custom"
)

// defaultRequirements is written for AutoGPT skills that ship without a
// requirements.txt, since the framework refuses to load skills missing
// one.
const defaultRequirements = "# No additional requirements\n"

// builtin is the shared implementation for the built-in conventions.
// Detection is pattern-driven; organize is a tree copy into the
// convention's project directory plus an optional post-copy hook.
type builtin struct {
	config Config

	// requireAll makes detection demand every pattern instead of any.
	requireAll bool

	// afterCopy runs in the target directory once content is in place.
	afterCopy func(targetDir string) error
}

var _ Convention = (*builtin)(nil)

func (b *builtin) Name() string        { return b.config.Name }
func (b *builtin) Description() string { return b.config.Description }
func (b *builtin) Config() Config      { return b.config }

func (b *builtin) Detect(path string) (bool, error) {
	if len(b.config.DetectPatterns) == 0 {
		return false, nil
	}
	if b.requireAll {
		return allExist(path, b.config.DetectPatterns)
	}
	return anyMatch(path, b.config.DetectPatterns)
}

func (b *builtin) Organize(skillName, sourcePath, projectPath string) error {
	target := targetPath(projectPath, b.config.PathTemplate, skillName)
	if err := copyTree(sourcePath, target); err != nil {
		return err
	}
	if b.afterCopy != nil {
		if err := b.afterCopy(target); err != nil {
			return fmt.Errorf("%w: %v", ErrOrganize, err)
		}
	}
	return nil
}

// NewAutoGPT returns the AutoGPT convention: skills are a skill.py plus a
// requirements.txt, placed under skills/autogpt. Organize writes a stub
// requirements.txt when the source lacks one.
func NewAutoGPT() Convention {
	return &builtin{
		config: Config{
			Name:           AutoGPTName,
			Description:    "AutoGPT plugin layout (skill.py + requirements.txt)",
			DetectPatterns: []string{"skill.py", "requirements.txt"},
			PathTemplate:   "skills/autogpt/{name}",
			MetadataFile:   "requirements.txt",
		},
		requireAll: true,
		afterCopy: func(targetDir string) error {
			reqs := filepath.Join(targetDir, "requirements.txt")
			if _, err := os.Stat(reqs); err == nil {
				return nil
			} else if !os.IsNotExist(err) {
				return err
			}
			return os.WriteFile(reqs, []byte(defaultRequirements), 0o644)
		},
	}
}

// NewLangChain returns the LangChain convention: a tool.yaml descriptor
// marks a LangChain tool. Bare Python modules never detect as LangChain.
func NewLangChain() Convention {
	return &builtin{
		config: Config{
			Name:           LangChainName,
			Description:    "LangChain tool layout (tool.yaml descriptor)",
			DetectPatterns: []string{"tool.yaml"},
			PathTemplate:   "skills/langchain/{name}",
			MetadataFile:   "tool.yaml",
		},
	}
}

// NewAgentSkills returns the agent-skills convention: a SKILL.md with
// YAML frontmatter at the content root.
func NewAgentSkills() Convention {
	return &builtin{
		config: Config{
			Name:           AgentSkillsName,
			Description:    "Agent skills layout (SKILL.md with frontmatter)",
			DetectPatterns: []string{"SKILL.md"},
			PathTemplate:   "skills/agent-skills/{name}",
			MetadataFile:   "SKILL.md",
		},
		requireAll: true,
	}
}

// NewCustom returns the fallback convention. It never detects; skills
// land under skills/custom when nothing else claims them or when chosen
// explicitly.
func NewCustom() Convention {
	return &builtin{
		config: Config{
			Name:         CustomName,
			Description:  "Unstructured skill content",
			PathTemplate: "skills/custom/{name}",
		},
	}
}

// DefaultRegistry builds a registry with the built-in conventions in
// their standard detection order and Custom as the fallback.
func DefaultRegistry() *Registry {
	r := NewRegistry(CustomName)
	r.Register(NewAutoGPT())
	r.Register(NewLangChain())
	r.Register(NewAgentSkills())
	r.Register(NewCustom())
	return r
}
