package github

import (
	"errors"
	"fmt"
	"strings"

	"github.com/localrivet/reporeader/internal/errortypes"
)

// ParseRepoURL extracts owner and repository from a GitHub URL or an
// owner/repo pair. Extra path segments such as /tree/main are ignored.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", "", errortypes.ValidationError(errors.New("empty url"), "GitHub URL is required")
	}

	for _, prefix := range []string{"https://github.com/", "http://github.com/", "https://www.github.com/", "github.com/"} {
		if strings.HasPrefix(u, prefix) {
			u = strings.TrimPrefix(u, prefix)
			break
		}
	}

	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, ".git")

	parts := strings.Split(u, "/")
	if len(parts) < 2 {
		return "", "", errortypes.ValidationError(
			fmt.Errorf("expected owner/repo, got %q", u), "Invalid GitHub URL format")
	}
	owner, repo = parts[0], parts[1]
	if owner == "" || repo == "" {
		return "", "", errortypes.ValidationError(
			errors.New("owner or repository name is empty"), "Invalid GitHub URL format")
	}
	return owner, repo, nil
}
