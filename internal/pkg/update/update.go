// Package update checks the release endpoint for a newer version.
//
// The check is best-effort: callers log failures and continue, they never
// turn a failed lookup into a non-zero exit.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ReleaseURL is the endpoint queried for the latest published release.
const ReleaseURL = "https://api.github.com/repos/gitcai/gitcai/releases/latest"

const requestTimeout = 10 * time.Second

// Version is a numeric (major, minor, patch) triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion extracts the numeric triple from a version string. A leading
// "v" is ignored, numeric components are read left to right and reading
// stops at the first non-numeric one ("0.1.2.dev8" reads as 0.1.2). Strings
// without at least a numeric major.minor read as 0.0.0.
func ParseVersion(s string) Version {
	s = strings.TrimPrefix(s, "v")

	nums := make([]int, 0, 3)
	for _, part := range strings.Split(s, ".") {
		if len(nums) == 3 {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			break
		}
		nums = append(nums, n)
	}
	if len(nums) < 2 {
		return Version{}
	}
	for len(nums) < 3 {
		nums = append(nums, 0)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}
}

// String renders the triple as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns a negative number when v is older than o, zero when they
// are equal, and a positive number when v is newer.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return v.Major - o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor - o.Minor
	}
	return v.Patch - o.Patch
}

// Outcome relates the running version to the latest published release.
type Outcome struct {
	Current   Version
	Latest    Version
	LatestTag string
}

// UpdateAvailable reports whether the latest release is strictly newer than
// the running version.
func (o *Outcome) UpdateAvailable() bool {
	return o.Latest.Compare(o.Current) > 0
}

// Checker queries the release endpoint.
type Checker struct {
	url    string
	client *http.Client
}

// NewChecker returns a checker against ReleaseURL.
func NewChecker() *Checker {
	return &Checker{
		url:    ReleaseURL,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Check fetches the latest release tag and compares it to the running
// version string.
func (c *Checker) Check(ctx context.Context, current string) (*Outcome, error) {
	tag, err := c.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Current:   ParseVersion(current),
		Latest:    ParseVersion(tag),
		LatestTag: tag,
	}, nil
}

// Latest fetches the tag name of the latest published release.
func (c *Checker) Latest(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("release request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release endpoint returned status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to decode release response: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release response has no tag name")
	}
	return release.TagName, nil
}

// InstallCommand returns the command that upgrades the binary to tag.
func InstallCommand(tag string) string {
	return "go install github.com/gitcai/gitcai/cmd/git-cai@" + tag
}
