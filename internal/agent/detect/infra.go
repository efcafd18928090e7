package detect

import (
	"os"
	"path/filepath"
)

// InfraProfile is InfraDetector's output: which CI system and
// containerization artifacts a project uses, consumed by E2EBuilder and
// InfraBuilder to decide what to generate (spec.md §4.8).
type InfraProfile struct {
	Root        string
	CIProvider  string // "" if none detected
	HasDocker   bool
	HasCompose  bool
	HasMakefile bool
}

// InfraDetector looks for conventional CI-provider config paths and
// containerization artifacts. Detection is existence-based (unlike
// FrameworkDetector's weighted signals) since these markers are
// effectively unambiguous: a repo either has a `.github/workflows`
// directory or it doesn't.
type InfraDetector struct{}

func NewInfraDetector() *InfraDetector { return &InfraDetector{} }

func (d *InfraDetector) Detect(root string) InfraProfile {
	pf := newProjectFiles(root)

	profile := InfraProfile{Root: root}
	switch {
	case pf.hasFileGlob(".github/workflows/*.yml"), pf.hasFileGlob(".github/workflows/*.yaml"):
		profile.CIProvider = "github_actions"
	case pf.hasFileGlob(".gitlab-ci.yml"):
		profile.CIProvider = "gitlab_ci"
	case pf.hasFileGlob("Jenkinsfile"):
		profile.CIProvider = "jenkins"
	case pf.hasFileGlob(".circleci/config.yml"):
		profile.CIProvider = "circleci"
	case pf.hasFileGlob(".travis.yml"):
		profile.CIProvider = "travis"
	case pf.hasFileGlob("azure-pipelines.yml"):
		profile.CIProvider = "azure_pipelines"
	case pf.hasFileGlob("bitbucket-pipelines.yml"):
		profile.CIProvider = "bitbucket_pipelines"
	}

	profile.HasDocker = fileExists(root, "Dockerfile")
	profile.HasCompose = fileExists(root, "docker-compose.yml") || fileExists(root, "docker-compose.yaml")
	profile.HasMakefile = fileExists(root, "Makefile")

	return profile
}

func fileExists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, rel))
	return err == nil
}
