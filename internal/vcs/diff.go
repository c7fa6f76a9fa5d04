package vcs

import "encoding/json"

// FileAction is the kind of change a file underwent.
type FileAction string

const (
	ActionAdd    FileAction = "add"
	ActionModify FileAction = "modify"
	ActionDelete FileAction = "delete"
)

// FileChange describes one changed file relative to the reference revision.
type FileChange struct {
	Action FileAction `json:"action"`
	Path   string     `json:"path"`
	// OldPath is set for renames, where Path is the new location.
	OldPath string `json:"old_path,omitempty"`
}

// FileDiff is a file-level diff relative to a reference revision.
type FileDiff []FileChange

// Empty reports whether the diff contains no changes.
func (d FileDiff) Empty() bool { return len(d) == 0 }

// ToJSON serializes the diff for handoff to the review/API collaborators.
// A nil diff serializes as an empty list, never null.
func (d FileDiff) ToJSON() (string, error) {
	if d == nil {
		d = FileDiff{}
	}
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
