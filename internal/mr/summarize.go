package mr

// SummaryRules describes how a Summarizer keeps one summary value in sync
// with a parent vector.
//
// Map derives an element's token. A zero token (as decided by IsZero) means
// the element is absent from the summary. Whenever a token changes, the old
// non-zero token is uncontributed from the summary and the new non-zero
// token contributed, so the summary only ever sees balanced pairs.
type SummaryRules[E, T, S any] struct {
	Map          func(elem E, old T, idx int) (T, bool)
	Contribute   func(tok T, idx int, sum *S)
	Uncontribute func(tok T, idx int, sum *S)
	IsZero       func(tok T) bool
	NewSum       func() S
}

// Summarizer incrementally maintains a summary of a parent vector through
// contribute/uncontribute instead of layered folds. It suits summaries that
// support cheap removal, like multisets or reverse maps.
type Summarizer[E, T, S any] struct {
	rules  SummaryRules[E, T, S]
	tokens *Vec[T]
	sum    S
}

// NewSummarizer creates a summarizer with a fresh, empty summary.
func NewSummarizer[E, T, S any](rules SummaryRules[E, T, S]) *Summarizer[E, T, S] {
	if rules.Map == nil || rules.Contribute == nil || rules.Uncontribute == nil ||
		rules.IsZero == nil || rules.NewSum == nil {
		panic("mr: summarizer rules are incomplete")
	}
	return &Summarizer[E, T, S]{
		rules:  rules,
		tokens: NewVec[T](),
		sum:    rules.NewSum(),
	}
}

// Update brings the summary in sync with the parent. When the parent's
// identity changed since the last call, the summary is rebuilt from a fresh
// NewSum. Return values follow Reduce.
func (s *Summarizer[E, T, S]) Update(parent *Vec[E]) (recomputed int, rebound bool) {
	if s.tokens.parentID != 0 && s.tokens.parentID != parent.id {
		s.sum = s.rules.NewSum()
	}
	op := func(group []E, old T, idx int) (T, bool) {
		tok, changed := s.rules.Map(group[0], old, idx)
		if !changed {
			return old, false
		}
		if !s.rules.IsZero(old) {
			s.rules.Uncontribute(old, idx, &s.sum)
		}
		if !s.rules.IsZero(tok) {
			s.rules.Contribute(tok, idx, &s.sum)
		}
		return tok, true
	}
	drop := func(old T, idx int) {
		if !s.rules.IsZero(old) {
			s.rules.Uncontribute(old, idx, &s.sum)
		}
	}
	return Reduce(s.tokens, parent, 1, op, drop)
}

// Sum returns the current summary value.
func (s *Summarizer[E, T, S]) Sum() S { return s.sum }

// Len returns the number of tracked tokens.
func (s *Summarizer[E, T, S]) Len() int { return s.tokens.Len() }

// Mem reports the approximate retained bytes of the token vector. Memory
// held by the summary itself is not visible from here.
func (s *Summarizer[E, T, S]) Mem() int {
	bytes, _, _ := s.tokens.Mem()
	return bytes
}

// ShrinkToFit reclaims slack capacity in the token vector.
func (s *Summarizer[E, T, S]) ShrinkToFit() { s.tokens.ShrinkToFit() }
