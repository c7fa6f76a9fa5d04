package perforce

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cibuilder/internal/config"
	"git.home.luguber.info/inful/cibuilder/internal/vcs"
)

func testSettings() *config.PerforceSettings {
	return &config.PerforceSettings{
		Port:      "perforce:1666",
		User:      "ci",
		Password:  "secret",
		Client:    "ci_client",
		DepotPath: "//depot/project/...",
	}
}

// fakeRunner records invocations and replays canned outputs keyed by the p4
// subcommand.
type fakeRunner struct {
	calls   [][]string
	stdins  []string
	outputs map[string]string
}

func (f *fakeRunner) run(_ context.Context, stdin string, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	f.stdins = append(f.stdins, stdin)
	for key, out := range f.outputs {
		if strings.Contains(strings.Join(args, " "), key) {
			return out, nil
		}
	}
	return "", nil
}

func TestPrepareRepositoryCreatesClientAndSyncs(t *testing.T) {
	fake := &fakeRunner{outputs: map[string]string{
		"changes": "Change 12345 on 2026/08/30 by ci@ci_client 'latest'",
	}}
	d := NewMainDriver(testSettings(), "/work/p4")
	d.run = fake.run

	require.NoError(t, d.PrepareRepository(context.Background()))

	require.Len(t, fake.calls, 3)
	assert.Equal(t, []string{"client", "-i"}, fake.calls[0])
	assert.Contains(t, fake.stdins[0], "Client: ci_client")
	assert.Contains(t, fake.stdins[0], "Root: /work/p4")
	assert.Contains(t, fake.stdins[0], "//depot/project/... //ci_client/...")
	assert.Equal(t, []string{"-c", "ci_client", "sync", "-f"}, fake.calls[1])

	status, err := d.RepoStatus()
	require.NoError(t, err)
	assert.Contains(t, status, "Current changelist: 12345")
	assert.Contains(t, status, "perforce:1666")
}

func TestParseOpened(t *testing.T) {
	out := `//depot/project/main.c#3 - edit default change (text)
//depot/project/new.c#1 - add default change (text)
//depot/project/old.c#7 - delete default change (text)
//depot/project/moved.c#1 - move/add default change (text)
`
	diff := parseOpened(out)
	require.Len(t, diff, 4)
	assert.Equal(t, vcs.FileChange{Action: vcs.ActionModify, Path: "//depot/project/main.c"}, diff[0])
	assert.Equal(t, vcs.ActionAdd, diff[1].Action)
	assert.Equal(t, vcs.ActionDelete, diff[2].Action)
	assert.Equal(t, vcs.ActionAdd, diff[3].Action)
}

func TestCopyCLFilesAndRevert(t *testing.T) {
	fake := &fakeRunner{outputs: map[string]string{
		"opened": "//depot/project/main.c#3 - edit default change (text)",
	}}
	d := NewMainDriver(testSettings(), "/work/p4")
	d.run = fake.run

	diff, err := d.CopyCLFilesAndRevert()
	require.NoError(t, err)
	require.Len(t, diff, 1)

	last := fake.calls[len(fake.calls)-1]
	assert.Equal(t, []string{"-c", "ci_client", "revert", "//..."}, last)
}

func TestCopyCLFilesAndRevertSkipsRevertWhenClean(t *testing.T) {
	fake := &fakeRunner{outputs: map[string]string{}}
	d := NewMainDriver(testSettings(), "/work/p4")
	d.run = fake.run

	diff, err := d.CopyCLFilesAndRevert()
	require.NoError(t, err)
	assert.True(t, diff.Empty())
	for _, call := range fake.calls {
		assert.NotContains(t, call, "revert")
	}
}

func TestFinalizeDeletesClientOnce(t *testing.T) {
	fake := &fakeRunner{outputs: map[string]string{
		"changes": "Change 1 on 2026/08/30 by ci@ci_client 'x'",
	}}
	d := NewMainDriver(testSettings(), "/work/p4")
	d.run = fake.run
	require.NoError(t, d.PrepareRepository(context.Background()))

	callsBefore := len(fake.calls)
	require.NoError(t, d.Finalize())
	require.NoError(t, d.Finalize())

	deletes := 0
	for _, call := range fake.calls[callsBefore:] {
		if call[0] == "client" && call[1] == "-d" {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes, "client must be deleted exactly once")
}

func TestFinalizeWithoutPrepare(t *testing.T) {
	fake := &fakeRunner{}
	d := NewMainDriver(testSettings(), "/work/p4")
	d.run = fake.run

	require.NoError(t, d.Finalize())
	assert.Empty(t, fake.calls, "nothing to release when prepare never ran")
}

func TestPollDetectChangesOldestFirst(t *testing.T) {
	fake := &fakeRunner{outputs: map[string]string{
		"changes": `Change 103 on 2026/08/30 by dev@ws 'third'
Change 102 on 2026/08/29 by dev@ws 'second'
Change 101 on 2026/08/28 by dev@ws 'first'
`,
	}}
	d := NewPollDriver(testSettings())
	d.run = fake.run

	changes, err := d.DetectChanges(context.Background(), "101")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "102", changes[0].ID)
	assert.Equal(t, "second", changes[0].Message)
	assert.Equal(t, "103", changes[1].ID)

	assert.Contains(t, strings.Join(fake.calls[0], " "), "//depot/project/...@101,#head")
}

func TestPollDetectChangesEmptySince(t *testing.T) {
	fake := &fakeRunner{outputs: map[string]string{
		"changes": "Change 103 on 2026/08/30 by dev@ws 'third'",
	}}
	d := NewPollDriver(testSettings())
	d.run = fake.run

	changes, err := d.DetectChanges(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "103", changes[0].ID)
	assert.Contains(t, fake.calls[0], "-m1")
}

func TestSubmitParsesChangelist(t *testing.T) {
	fake := &fakeRunner{outputs: map[string]string{
		"submit": "Submitting change 104.\nLocking 1 files ...\nChange 104 submitted.",
	}}
	d := NewSubmitDriver(testSettings())
	d.run = fake.run

	revision, err := d.Submit(context.Background(), "fix build")
	require.NoError(t, err)
	assert.Equal(t, "104", revision)

	assert.Equal(t, []string{"-c", "ci_client", "reconcile", "-a", "-e", "-d", "//..."}, fake.calls[0])
}

func TestSubmitRequiresClient(t *testing.T) {
	settings := testSettings()
	settings.Client = ""
	d := NewSubmitDriver(settings)

	_, err := d.Submit(context.Background(), "x")
	assert.Error(t, err)
}
