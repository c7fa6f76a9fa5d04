package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyRole       = "role"
	KeyVcsType    = "vcs_type"
	KeyRevision   = "revision"
	KeyRefspec    = "refspec"
	KeyStep       = "step"
	KeyDurationMS = "duration_ms"
	KeyRepo       = "repository"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyArtifact   = "artifact"
	KeyChanges    = "changes"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Role(r string) slog.Attr          { return slog.String(KeyRole, r) }
func VcsType(t string) slog.Attr       { return slog.String(KeyVcsType, t) }
func Revision(rev string) slog.Attr    { return slog.String(KeyRevision, rev) }
func Refspec(r string) slog.Attr       { return slog.String(KeyRefspec, r) }
func Step(name string) slog.Attr       { return slog.String(KeyStep, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Repository(r string) slog.Attr    { return slog.String(KeyRepo, r) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Artifact(name string) slog.Attr   { return slog.String(KeyArtifact, name) }
func Changes(n int) slog.Attr          { return slog.Int(KeyChanges, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
