package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordEvaluation forwards evaluation events to sinks supporting them.
func (m *MultiSink) RecordEvaluation(ev EvaluationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(EvaluationRecorder); ok {
			if err := rec.RecordEvaluation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDays forwards per-day outcomes to sinks supporting them.
func (m *MultiSink) RecordDays(evs []DayEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DayRecorder); ok {
			if err := rec.RecordDays(evs); err != nil {
				return err
			}
		}
	}
	return nil
}
