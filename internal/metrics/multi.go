package metrics

import "time"

// MultiRecorder fans out metrics to multiple recorders.
type MultiRecorder struct {
	recorders []Recorder
}

func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	nonNil := make([]Recorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			nonNil = append(nonNil, r)
		}
	}
	return &MultiRecorder{recorders: nonNil}
}

func (m *MultiRecorder) ObserveLayoutPass(d time.Duration, agents, messages, lanes int) {
	for _, r := range m.recorders {
		r.ObserveLayoutPass(d, agents, messages, lanes)
	}
}

func (m *MultiRecorder) ObserveCulled(agents, messages int) {
	for _, r := range m.recorders {
		r.ObserveCulled(agents, messages)
	}
}

func (m *MultiRecorder) ObserveFetch(source, status string, d time.Duration) {
	for _, r := range m.recorders {
		r.ObserveFetch(source, status, d)
	}
}

func (m *MultiRecorder) ObserveLODDowngrade() {
	for _, r := range m.recorders {
		r.ObserveLODDowngrade()
	}
}

func (m *MultiRecorder) ObserveControlAction(action string) {
	for _, r := range m.recorders {
		r.ObserveControlAction(action)
	}
}
