package runner

import (
	"encoding/json"
	"sort"

	"github.com/phaser-svc/phaser/pkg/cache"
	"github.com/phaser-svc/phaser/pkg/gitctx"
)

// cacheable reports whether step results may be cached for this
// worktree. Dirty or commit-less worktrees never hit the cache
// because the key could not name the content that produced a result.
func cacheable(info *gitctx.Info) bool {
	return info != nil && info.Commit != "" && !info.Dirty
}

// stepCacheKey derives the cache key for one step. Only declared
// pipeline environment participates, never the ambient process
// environment, so runs on different machines can share entries.
func stepCacheKey(commit, toolchain, run, shell, dir string, env map[string]string) string {
	parts := []string{"step", commit, toolchain, run, shell, dir}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+env[k])
	}

	return cache.Key(parts...)
}

// encodeStepResult serializes a step result for cache storage.
func encodeStepResult(res *StepResult) ([]byte, error) {
	return json.Marshal(res)
}

// decodeStepResult restores a cached step result. The entry is
// discarded on any decode error so a corrupt cache never fails a run.
func decodeStepResult(data []byte) (*StepResult, bool) {
	var res StepResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}
