package metadata

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const gitTimeout = 5 * time.Second

// GitCommit returns the current commit id of the repository containing the
// working directory. It shells out to git; callers treat failure as
// non-fatal and simply omit the commit from the lineage.
func GitCommit() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	sha := strings.TrimSpace(string(out))
	if sha == "" {
		return "", fmt.Errorf("git rev-parse returned no output")
	}
	return sha, nil
}
