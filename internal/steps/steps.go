// Package steps implements the build-step configuration DSL: named step
// variations that can be combined by addition (concatenation) and
// multiplication (cartesian product) into the expanded list of build steps
// a run executes.
package steps

import (
	"fmt"
	"strings"
)

// Step is one build-step configuration. Zero values mean "unset" and are
// filled from the other operand during multiplication.
type Step struct {
	Name    string   `yaml:"name,omitempty"`
	Command []string `yaml:"command,omitempty,flow"`
	// Directory is the working directory for the command, relative to the
	// project root.
	Directory   string            `yaml:"directory,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	// Critical marks a step whose failure stops all remaining steps.
	Critical bool `yaml:"critical,omitempty"`
	// Artifacts is a path (relative to the project root) collected after the
	// step finishes.
	Artifacts string `yaml:"artifacts,omitempty"`
}

// combine merges two steps the way multiplication requires: names and
// commands concatenate, environments merge (right side wins on conflict),
// critical flags OR together, scalar fields prefer the right side when set.
func combine(a, b Step) Step {
	out := Step{
		Name:     a.Name + b.Name,
		Command:  append(append([]string{}, a.Command...), b.Command...),
		Critical: a.Critical || b.Critical,
	}
	out.Directory = a.Directory
	if b.Directory != "" {
		out.Directory = b.Directory
	}
	out.Artifacts = a.Artifacts
	if b.Artifacts != "" {
		out.Artifacts = b.Artifacts
	}
	if len(a.Environment) > 0 || len(b.Environment) > 0 {
		out.Environment = make(map[string]string, len(a.Environment)+len(b.Environment))
		for k, v := range a.Environment {
			out.Environment[k] = v
		}
		for k, v := range b.Environment {
			out.Environment[k] = v
		}
	}
	return out
}

// Variations is an ordered list of step configurations.
type Variations []Step

// Add concatenates two variation lists.
func (v Variations) Add(other Variations) Variations {
	out := make(Variations, 0, len(v)+len(other))
	out = append(out, v...)
	out = append(out, other...)
	return out
}

// Multiply builds the cartesian product of two variation lists, combining
// each pair of steps. Order is outer-major: for each step of v, every step
// of other.
func (v Variations) Multiply(other Variations) Variations {
	if len(v) == 0 {
		return append(Variations{}, other...)
	}
	if len(other) == 0 {
		return append(Variations{}, v...)
	}
	out := make(Variations, 0, len(v)*len(other))
	for _, a := range v {
		for _, b := range other {
			out = append(out, combine(a, b))
		}
	}
	return out
}

// Dump renders the expanded list in a human-readable numbered form.
func (v Variations) Dump() string {
	var sb strings.Builder
	for i, s := range v {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, s.Name, strings.Join(s.Command, " "))
	}
	return sb.String()
}
