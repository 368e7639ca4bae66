package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordSolve(SolveEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordEvaluation(EvaluationEvent) error {
	r.count++
	return nil
}

// solveOnly does not implement EvaluationRecorder.
type solveOnly struct{ count int }

func (s *solveOnly) RecordSolve(SolveEvent) error {
	s.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &solveOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordSolve(SolveEvent{Hours: 24}); err != nil {
		t.Fatalf("record solve: %v", err)
	}
	if err := m.RecordEvaluation(EvaluationEvent{}); err != nil {
		t.Fatalf("record evaluation: %v", err)
	}
	if err := m.RecordDays(nil); err != nil {
		t.Fatalf("record days: %v", err)
	}
	if s1.count != 2 || s2.count != 1 {
		t.Fatalf("events not forwarded: %d %d", s1.count, s2.count)
	}
}
