package pipeline

import (
	"github.com/matzehuels/spangrid/pkg/engine"
	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/grid"
	"github.com/matzehuels/spangrid/pkg/manifest"
)

// Trace is the outcome of a simulation: one snapshot per step.
type Trace struct {
	ManifestHash string     `json:"manifest_hash"`
	Count        int        `json:"count"`
	SlotSize     int        `json:"slot_size"`
	Snapshots    []Snapshot `json:"snapshots"`

	// Anchor is SaveAnchor after the last step; nil when item order is not
	// stable or nothing is realized.
	Anchor *engine.SavedState `json:"anchor,omitempty"`
}

// Snapshot is the engine state after a step.
type Snapshot struct {
	Step     string             `json:"step"`
	Consumed int                `json:"consumed"`
	State    engine.State       `json:"state"`
	First    int                `json:"first"`
	Last     int                `json:"last"`
	Items    []engine.Item      `json:"items"`
	Acquired int                `json:"acquired"` // handles acquired during the step
	Released int                `json:"released"` // handles released during the step
	Live     int                `json:"live"`     // handles outstanding after the step
	Saved    *engine.SavedState `json:"saved,omitempty"`
}

// Simulate drives a fresh engine over m through steps with a recording
// renderer. opts are prepared against m first.
func Simulate(m *manifest.Manifest, opts Options, steps []Step) (*Trace, error) {
	if err := opts.Prepare(m); err != nil {
		return nil, err
	}
	rec := newRecorder()
	e, err := engine.New(opts.EngineConfig(), m, rec)
	if err != nil {
		return nil, err
	}

	tr := &Trace{ManifestHash: m.Hash(), Count: m.Count()}
	var saved *engine.SavedState

	for _, st := range steps {
		rec.acquired, rec.released = 0, 0
		snap := Snapshot{Step: st.String()}

		switch st.Kind {
		case StepRebuild:
			err = e.Rebuild()
		case StepScroll:
			snap.Consumed, err = e.Scroll(st.Arg)
		case StepOffset:
			snap.Consumed, err = e.ScrollTo(st.Arg)
		case StepTo:
			e.RequestScrollTo(st.Arg)
			err = e.Rebuild()
		case StepSave:
			if s, ok := e.SaveAnchor(); ok {
				saved = &s
				snap.Saved = &s
			}
		case StepRestore:
			switch {
			case st.HasArg:
				e.Restore(engine.SavedState{FirstVisibleIndex: st.Arg})
			case saved != nil:
				e.Restore(*saved)
			default:
				return nil, errors.New(errors.ErrCodeInvalidStep, "restore without a saved anchor")
			}
			err = e.Rebuild()
		case StepResize:
			if err = e.Resize(st.Width, st.Height); err == nil {
				err = e.Rebuild()
			}
		}
		if err != nil {
			return nil, err
		}

		snap.State = e.State()
		snap.First, snap.Last = e.Window()
		snap.Items = e.Realized()
		snap.Acquired, snap.Released = rec.acquired, rec.released
		snap.Live = len(rec.live)
		tr.Snapshots = append(tr.Snapshots, snap)
	}

	tr.SlotSize = e.SlotSize()
	if s, ok := e.SaveAnchor(); ok {
		tr.Anchor = &s
	}
	opts.Logger.Debug("simulated",
		"items", tr.Count,
		"steps", len(steps),
		"realized", e.Len())
	return tr, nil
}

// recorder is an engine.Renderer that only counts handle traffic.
type recorder struct {
	next     int
	live     map[int]int // handle -> item index
	acquired int
	released int
}

func newRecorder() *recorder {
	return &recorder{live: make(map[int]int)}
}

func (r *recorder) Acquire(index int) engine.Handle {
	r.next++
	r.live[r.next] = index
	r.acquired++
	return r.next
}

func (r *recorder) Bind(engine.Handle, grid.Frame) {}

func (r *recorder) Release(h engine.Handle) {
	delete(r.live, h.(int))
	r.released++
}
