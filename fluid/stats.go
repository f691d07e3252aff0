package fluid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/plume/gpu"
)

// FieldStats summarises one channel of a field.
type FieldStats struct {
	Kind    FieldKind
	Channel int
	Width   int
	Height  int
	Sum     float64
	Mean    float64
	Min     float64
	Max     float64
}

// Statistics reads back one channel of k and summarises it. This stalls
// until every pending pass has completed.
func (s *Simulation) Statistics(k FieldKind, channel int) (FieldStats, error) {
	t, err := s.Field(k)
	if err != nil {
		return FieldStats{}, err
	}
	w, h := t.Width(), t.Height()
	raw, err := s.eng.ReadHalf(t, channel, 0, 0, w, h)
	if err != nil {
		return FieldStats{}, fmt.Errorf("reading %s: %w", k, err)
	}
	vals := gpu.DecodeHalfFloats(raw)

	st := FieldStats{Kind: k, Channel: channel, Width: w, Height: h}
	if len(vals) == 0 {
		return st, nil
	}
	st.Sum = floats.Sum(vals)
	st.Mean = st.Sum / float64(len(vals))
	st.Min = floats.Min(vals)
	st.Max = floats.Max(vals)
	return st, nil
}
