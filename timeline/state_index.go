package timeline

// StateIndex numbers points in the linear timeline: state 0 is the
// simulatable's reset state, and state N+1 is the state reached by
// applying the one step at StepIndex(N) to state N.
type StateIndex uint64

// StepIndex numbers the steps between consecutive states: StepIndex(N) is
// the step that takes StateIndex(N) to StateIndex(N+1).
type StepIndex uint64

func (s StateIndex) next() StateIndex { return s + 1 }

func (s StateIndex) previous() (StateIndex, bool) {
	if s == 0 {
		return 0, false
	}
	return s - 1, true
}

func (s StateIndex) nextStep() StepIndex { return StepIndex(s) }

// stepsSince enumerates the steps taken to get from older to s,
// oldest-first.
func (s StateIndex) stepsSince(older StateIndex) []StepIndex {
	if s <= older {
		return nil
	}
	out := make([]StepIndex, 0, s-older)
	for i := older; i < s; i++ {
		out = append(out, StepIndex(i))
	}
	return out
}
