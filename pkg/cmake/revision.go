// pkg/cmake/revision.go
package cmake

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Revision returns the commit checked out in dir. Submodule checkouts,
// whose .git is a file pointing into the parent repository, are supported.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit:          false,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}

	return head.Hash().String(), nil
}
