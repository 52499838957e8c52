// Package gitctx resolves the git context a pipeline run executes in:
// the CI provider (if any), branch, commit, and worktree state.
package gitctx

import (
	"os"
)

// Provider identifies the CI environment a run executes under.
type Provider string

const (
	ProviderGitHub    Provider = "github"
	ProviderGitLab    Provider = "gitlab"
	ProviderGitee     Provider = "gitee"
	ProviderJenkins   Provider = "jenkins"
	ProviderAzure     Provider = "azure"
	ProviderBitbucket Provider = "bitbucket"
	ProviderCircleCI  Provider = "circleci"
	ProviderTravis    Provider = "travis"
	ProviderDrone     Provider = "drone"
	ProviderLocal     Provider = "local"
)

// providerCheck is one detection probe. wantTrue requires the variable
// to hold the literal "true" rather than any non-empty value.
type providerCheck struct {
	provider Provider
	envVar   string
	wantTrue bool
}

var providerChecks = []providerCheck{
	{ProviderGitHub, "GITHUB_ACTIONS", true},
	{ProviderGitLab, "GITLAB_CI", true},
	{ProviderGitee, "GITEE_CI", true},
	{ProviderGitee, "GITEE_SERVER_URL", false},
	{ProviderJenkins, "JENKINS_HOME", false},
	{ProviderJenkins, "JENKINS_URL", false},
	{ProviderAzure, "TF_BUILD", true},
	{ProviderBitbucket, "BITBUCKET_BUILD_NUMBER", false},
	{ProviderCircleCI, "CIRCLECI", true},
	{ProviderTravis, "TRAVIS", true},
	{ProviderDrone, "DRONE", true},
}

// Detect identifies the current CI provider from environment variables,
// or ProviderLocal when none matches.
func Detect() Provider {
	for _, check := range providerChecks {
		val := os.Getenv(check.envVar)
		if check.wantTrue {
			if val == "true" {
				return check.provider
			}
			continue
		}
		if val != "" {
			return check.provider
		}
	}
	return ProviderLocal
}

// InCI reports whether the process runs under a known CI provider.
func InCI() bool {
	return Detect() != ProviderLocal
}

// providerRefs maps each provider to the env vars carrying the branch
// and commit of the checkout it prepared.
var providerRefs = map[Provider]struct{ branch, commit string }{
	ProviderGitHub:    {"GITHUB_REF_NAME", "GITHUB_SHA"},
	ProviderGitLab:    {"CI_COMMIT_BRANCH", "CI_COMMIT_SHA"},
	ProviderJenkins:   {"BRANCH_NAME", "GIT_COMMIT"},
	ProviderAzure:     {"BUILD_SOURCEBRANCHNAME", "BUILD_SOURCEVERSION"},
	ProviderBitbucket: {"BITBUCKET_BRANCH", "BITBUCKET_COMMIT"},
	ProviderCircleCI:  {"CIRCLE_BRANCH", "CIRCLE_SHA1"},
	ProviderTravis:    {"TRAVIS_BRANCH", "TRAVIS_COMMIT"},
	ProviderDrone:     {"DRONE_BRANCH", "DRONE_COMMIT_SHA"},
}

// envBranch returns the provider-announced branch, or "".
func envBranch(p Provider) string {
	refs, ok := providerRefs[p]
	if !ok {
		return ""
	}
	return os.Getenv(refs.branch)
}

// envCommit returns the provider-announced commit, or "".
func envCommit(p Provider) string {
	refs, ok := providerRefs[p]
	if !ok {
		return ""
	}
	return os.Getenv(refs.commit)
}
