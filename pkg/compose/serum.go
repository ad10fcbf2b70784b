package compose

import "github.com/aretw0/atelier/pkg/domain"

// Conversion is the outcome of the AdrianGF conversion scan.
type Conversion int

const (
	// ConversionNone means no prior GoldenAdrian event was found.
	ConversionNone Conversion = iota
	// ConversionGolden means the most recent prior GoldenAdrian event succeeded.
	ConversionGolden
	// ConversionGoldFail means the most recent prior GoldenAdrian event failed.
	ConversionGoldFail
)

func (c Conversion) String() string {
	switch c {
	case ConversionGolden:
		return "golden"
	case ConversionGoldFail:
		return "goldfail"
	default:
		return "none"
	}
}

// SerumState is the serum outcome of a token, derived from its history.
type SerumState struct {
	// Applied is the mutation of the last event when it succeeded.
	Applied string
	// Failed is set when the last event failed; FailedType names its mutation.
	Failed      bool
	FailedType  string
	HasAdrianGF bool
	// Conversion is only meaningful when Applied is AdrianGF.
	Conversion Conversion
}

// historyScanner walks a serum history from the most recent event to the
// oldest and settles on the first event accepted by match.
type historyScanner struct {
	match   func(domain.SerumEvent) bool
	settled bool
	found   domain.SerumEvent
}

// step feeds one event to the scanner and reports whether it has settled.
func (s *historyScanner) step(ev domain.SerumEvent) bool {
	if s.settled {
		return true
	}
	if s.match(ev) {
		s.found = ev
		s.settled = true
	}
	return s.settled
}

// scan feeds history[from], history[from-1], ... history[0] until settled.
func (s *historyScanner) scan(history []domain.SerumEvent, from int) (domain.SerumEvent, bool) {
	for i := min(from, len(history)-1); i >= 0; i-- {
		if s.step(history[i]) {
			break
		}
	}
	return s.found, s.settled
}

func isTracked(mutation string) bool {
	return mutation == domain.MutationAdrianGF || mutation == domain.MutationGoldenAdrian
}

// ScanConversion looks backward from the event before the last for a
// GoldenAdrian event. The most recent match wins.
func ScanConversion(history []domain.SerumEvent) Conversion {
	s := historyScanner{match: func(ev domain.SerumEvent) bool {
		return ev.Mutation == domain.MutationGoldenAdrian
	}}
	ev, ok := s.scan(history, len(history)-2)
	switch {
	case !ok:
		return ConversionNone
	case ev.Success:
		return ConversionGolden
	default:
		return ConversionGoldFail
	}
}

// AnalyzeSerums derives the serum state from a history, oldest first.
func AnalyzeSerums(history []domain.SerumEvent) SerumState {
	var st SerumState
	for _, ev := range history {
		if ev.Success && ev.Mutation == domain.MutationAdrianGF {
			st.HasAdrianGF = true
			break
		}
	}
	if len(history) == 0 {
		return st
	}

	last := history[len(history)-1]
	switch {
	case last.Success && last.Mutation != "":
		st.Applied = last.Mutation
		if st.Applied == domain.MutationAdrianGF {
			st.Conversion = ScanConversion(history)
		}
	case !last.Success:
		st.Failed = true
		st.FailedType = last.Mutation
		if st.FailedType == "" {
			s := historyScanner{match: func(ev domain.SerumEvent) bool { return isTracked(ev.Mutation) }}
			if ev, ok := s.scan(history, len(history)-2); ok {
				st.FailedType = ev.Mutation
			}
		}
	}
	return st
}
