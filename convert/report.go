package convert

// Failure is a failed task as shown to the user.
type Failure struct {
	Source string
	Reason string
}

// Summary aggregates outcomes. Succeeded+len(Failed) always equals Total.
type Summary struct {
	Total     int
	Succeeded int
	Failed    []Failure
}

// Add records one outcome.
func (s *Summary) Add(o Outcome) {
	s.Total++
	if o.Succeeded() {
		s.Succeeded++
		return
	}
	s.Failed = append(s.Failed, Failure{Source: o.Source, Reason: o.Reason()})
}

// Summarize aggregates outcomes in order. Reasons are kept verbatim.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Add(o)
	}
	return s
}

// OK reports whether no task failed.
func (s Summary) OK() bool {
	return len(s.Failed) == 0
}
