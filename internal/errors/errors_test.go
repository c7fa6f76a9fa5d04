package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestBuildError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("p4 trust not established")
	err := VcsError(cause, "sync failed")

	if !stdErrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	var be *BuildError
	if !stdErrors.As(err, &be) {
		t.Fatal("errors.As should extract BuildError")
	}
	if be.Category != CategoryVcs {
		t.Errorf("Category = %v, want %v", be.Category, CategoryVcs)
	}
}

func TestBuildError_WithContext(t *testing.T) {
	err := New(CategoryVcs, SeverityWarning, "clone failed").
		WithContext("repository", "test-repo").
		WithContext("refspec", "main")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}
	if err.Context["repository"] != "test-repo" {
		t.Errorf("Context[repository] = %v, want test-repo", err.Context["repository"])
	}
	if err.Context["refspec"] != "main" {
		t.Errorf("Context[refspec] = %v, want main", err.Context["refspec"])
	}
}

func TestIsConfig(t *testing.T) {
	if !IsConfig(ConfigError("vcs type is not set")) {
		t.Error("ConfigError should be detected by IsConfig")
	}
	if IsConfig(VcsError(fmt.Errorf("x"), "y")) {
		t.Error("VcsError should not be a config error")
	}
	wrapped := fmt.Errorf("while starting: %w", ConfigError("bad type"))
	if !IsConfig(wrapped) {
		t.Error("IsConfig should see through fmt.Errorf wrapping")
	}
}

func TestGetCategory(t *testing.T) {
	if got := GetCategory(fmt.Errorf("plain")); got != CategoryInternal {
		t.Errorf("plain error category = %v, want internal", got)
	}
	if got := GetCategory(ReviewError("no review capability")); got != CategoryReview {
		t.Errorf("category = %v, want review", got)
	}
}
