package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b-1", BuildID("b-1")},
		{"Role", KeyRole, "main", Role("main")},
		{"VcsType", KeyVcsType, "git", VcsType("git")},
		{"Revision", KeyRevision, "abc123", Revision("abc123")},
		{"Refspec", KeyRefspec, "testing", Refspec("testing")},
		{"Step", KeyStep, "Preparing repository", Step("Preparing repository")},
		{"Repository", KeyRepo, "repo1", Repository("repo1")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Artifact", KeyArtifact, "REPOSITORY_STATE.txt", Artifact("REPOSITORY_STATE.txt")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestErrorAttr(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("nil error should render empty, got %q", got)
	}
}
