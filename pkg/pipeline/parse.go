package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/spangrid/pkg/errors"
)

// StepKind names a simulation step.
type StepKind string

// Step kinds. Arguments follow a colon or a space: "scroll:120", "to 40".
const (
	StepRebuild StepKind = "rebuild" // Rebuild
	StepScroll  StepKind = "scroll"  // Scroll by N pixels
	StepOffset  StepKind = "offset"  // ScrollTo pixel offset N
	StepTo      StepKind = "to"      // RequestScrollTo(N), then Rebuild
	StepSave    StepKind = "save"    // SaveAnchor
	StepRestore StepKind = "restore" // Restore the last saved anchor (or N), then Rebuild
	StepResize  StepKind = "resize"  // Resize to WxH, then Rebuild
)

var stepAliases = map[string]StepKind{
	"rebuild":   StepRebuild,
	"scroll":    StepScroll,
	"offset":    StepOffset,
	"to":        StepTo,
	"scroll-to": StepTo,
	"save":      StepSave,
	"restore":   StepRestore,
	"resize":    StepResize,
}

// Step is one parsed simulation step.
type Step struct {
	Kind   StepKind
	Arg    int  // pixel delta, offset or item index
	HasArg bool // Arg was given
	Width  int  // resize only
	Height int  // resize only
}

// String formats the step in its canonical "kind:arg" form.
func (s Step) String() string {
	switch {
	case s.Kind == StepResize:
		return fmt.Sprintf("%s:%dx%d", s.Kind, s.Width, s.Height)
	case s.HasArg:
		return fmt.Sprintf("%s:%d", s.Kind, s.Arg)
	}
	return string(s.Kind)
}

// maxStepArg bounds numeric step arguments.
const maxStepArg = 1 << 40

// ParseStep parses one step.
func ParseStep(s string) (Step, error) {
	s = strings.TrimSpace(s)
	name, arg, hasArg := strings.Cut(s, ":")
	if !hasArg {
		name, arg, hasArg = strings.Cut(s, " ")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	kind, ok := stepAliases[name]
	if !ok {
		return Step{}, errors.New(errors.ErrCodeInvalidStep, "unknown step: %q", s)
	}
	st := Step{Kind: kind}

	switch kind {
	case StepRebuild, StepSave:
		if hasArg {
			return Step{}, errors.New(errors.ErrCodeInvalidStep, "step %q takes no argument", name)
		}
	case StepScroll, StepOffset, StepTo:
		if !hasArg {
			return Step{}, errors.New(errors.ErrCodeInvalidStep, "step %q needs an argument", name)
		}
		fallthrough
	case StepRestore:
		if hasArg {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return Step{}, errors.New(errors.ErrCodeInvalidStep, "step %q: invalid number %q", name, arg)
			}
			if n > maxStepArg || n < -maxStepArg {
				return Step{}, errors.New(errors.ErrCodeInvalidStep, "step %q: %d out of range", name, n)
			}
			st.Arg, st.HasArg = n, true
		}
	case StepResize:
		w, h, found := strings.Cut(strings.ToLower(arg), "x")
		width, werr := strconv.Atoi(w)
		height, herr := strconv.Atoi(h)
		if !hasArg || !found || werr != nil || herr != nil {
			return Step{}, errors.New(errors.ErrCodeInvalidStep, "step %q needs WxH, got %q", name, arg)
		}
		if err := errors.ValidateViewport(width, height); err != nil {
			return Step{}, errors.Wrap(errors.ErrCodeInvalidStep, err, "step %q", name)
		}
		st.Width, st.Height = width, height
	}
	return st, nil
}

// ParseSteps parses a script. An empty script is a single rebuild.
func ParseSteps(script []string) ([]Step, error) {
	if len(script) == 0 {
		return []Step{{Kind: StepRebuild}}, nil
	}
	steps := make([]Step, 0, len(script))
	for i, s := range script {
		st, err := ParseStep(s)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		steps = append(steps, st)
	}
	return steps, nil
}
