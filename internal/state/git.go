package state

import (
	"os/exec"
	"strconv"
	"strings"
)

// Revisions answers the two repository questions the loop cares about:
// where HEAD is, and how much landed since a snapshot. Abstracted so tests
// can run without a repository.
type Revisions interface {
	// Head returns the current HEAD revision. ok is false when the
	// repository has no commits or isn't a repository at all.
	Head() (sha string, ok bool)

	// CommitsSince counts commits between a snapshot and HEAD. A snapshot
	// that no longer resolves counts as zero.
	CommitsSince(sha string) int
}

// GitRevisions shells out to git in a fixed directory.
type GitRevisions struct {
	Dir string
}

// NewGitRevisions returns a Revisions backed by the git CLI.
func NewGitRevisions(dir string) *GitRevisions {
	return &GitRevisions{Dir: dir}
}

func (g *GitRevisions) Head() (string, bool) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	sha := strings.TrimSpace(string(out))
	return sha, sha != ""
}

func (g *GitRevisions) CommitsSince(sha string) int {
	cmd := exec.Command("git", "rev-list", "--count", sha+"..HEAD")
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	count, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0
	}
	return count
}
