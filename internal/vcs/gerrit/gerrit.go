// Package gerrit implements the gerrit VCS drivers: git checkout semantics
// from the gitvcs package plus a code review integration over the gerrit
// ssh command interface.
package gerrit

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/cibuilder/internal/errors"
)

const defaultSSHPort = "29418"

// runFunc executes one gerrit ssh command and returns its combined output.
// Injected in tests.
type runFunc func(ctx context.Context, args ...string) (string, error)

// sshRunner builds a runFunc invoking gerrit commands over ssh against the
// server named in the repository URL. The URL must be of the form
// ssh://user@host[:port]/project.
func sshRunner(repo string) (runFunc, error) {
	u, err := url.Parse(repo)
	if err != nil || u.Scheme != "ssh" || u.User == nil || u.Hostname() == "" {
		return nil, errors.ConfigError(fmt.Sprintf(
			"gerrit requires vcs.git.repo to be an ssh URL of the form ssh://user@host:port/project, got %q", repo))
	}
	port := u.Port()
	if port == "" {
		port = defaultSSHPort
	}
	target := u.User.Username() + "@" + u.Hostname()

	return func(ctx context.Context, args ...string) (string, error) {
		full := append([]string{"-p", port, target, "gerrit"}, args...)
		out, err := exec.CommandContext(ctx, "ssh", full...).CombinedOutput()
		if err != nil {
			return string(out), fmt.Errorf("gerrit %s failed: %w: %s",
				strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
		return string(out), nil
	}, nil
}
