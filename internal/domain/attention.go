package domain

// AttentionLevel is one raw gaze datapoint.
type AttentionLevel int

const (
	AttentionAway    AttentionLevel = 0
	AttentionDrifted AttentionLevel = 5
	AttentionFocused AttentionLevel = 10
)

func ParseAttentionLevel(v int) (AttentionLevel, error) {
	switch l := AttentionLevel(v); l {
	case AttentionAway, AttentionDrifted, AttentionFocused:
		return l, nil
	}
	return 0, ErrInvalidLevel
}

// AttentionSummary is a rolling time-weighted average of samples. Each sample
// holds until the next one arrives. Timestamps are milliseconds.
type AttentionSummary struct {
	Average               float64
	WindowStart           int64
	CumulativeWeightedSum float64
	LastSample            AttentionLevel
	LastSampleTime        int64
	Samples               int
}

// Record folds a sample into the summary. Samples not strictly after the
// previous one are ignored and reported as false.
func (s *AttentionSummary) Record(ts int64, level AttentionLevel) bool {
	if s.Samples == 0 {
		s.WindowStart = ts
		s.CumulativeWeightedSum = 0
		s.Average = float64(level) / float64(AttentionFocused)
		s.LastSample = level
		s.LastSampleTime = ts
		s.Samples = 1
		return true
	}
	if ts <= s.LastSampleTime {
		return false
	}
	s.CumulativeWeightedSum += float64(s.LastSample) * float64(ts-s.LastSampleTime)
	s.Average = s.CumulativeWeightedSum / (float64(AttentionFocused) * float64(ts-s.WindowStart))
	s.LastSample = level
	s.LastSampleTime = ts
	s.Samples++
	return true
}
