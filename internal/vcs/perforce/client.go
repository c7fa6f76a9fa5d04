// Package perforce implements the p4 VCS drivers by invoking the p4
// command-line client. Connection parameters are passed per invocation; the
// password travels via the process environment, never argv.
package perforce

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/cibuilder/internal/config"
)

// runFunc executes one p4 command and returns its combined output. Injected
// in tests.
type runFunc func(ctx context.Context, stdin string, args ...string) (string, error)

// p4Runner builds a runFunc invoking the real p4 binary with the configured
// connection settings.
func p4Runner(settings *config.PerforceSettings) runFunc {
	return func(ctx context.Context, stdin string, args ...string) (string, error) {
		base := []string{"-p", settings.Port, "-u", settings.User}
		cmd := exec.CommandContext(ctx, "p4", append(base, args...)...)
		cmd.Env = append(os.Environ(), "P4PASSWD="+settings.Password)
		if stdin != "" {
			cmd.Stdin = strings.NewReader(stdin)
		}
		out, err := cmd.CombinedOutput()
		if err != nil {
			// Keep the tool's own output: operators diagnose the external
			// system from it.
			return string(out), fmt.Errorf("p4 %s failed: %w: %s",
				strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
		return string(out), nil
	}
}

// depotPath returns the configured depot mapping, defaulting to everything.
func depotPath(settings *config.PerforceSettings) string {
	if settings.DepotPath != "" {
		return settings.DepotPath
	}
	return "//..."
}
