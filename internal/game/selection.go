package game

import "github.com/elestrals-showdown/game-server/internal/cards"

// Selection is a generic exact-count picker. Items keep their original
// index so the parent can map a confirmed selection back onto the zone it
// was built from. A Selection is a short-lived sub-process of the session
// event loop: it is created per invocation, driven to Confirm or Cancel,
// and discarded.
type Selection[T any] struct {
	amount    int
	available []SelectionItem[T]
	selected  []SelectionItem[T]
}

// SelectionItem pairs a candidate with its index in the source list.
type SelectionItem[T any] struct {
	Item  T
	Index int
}

// NewSelection builds a picker over items requiring exactly amount picks.
func NewSelection[T any](items []T, amount int) *Selection[T] {
	available := make([]SelectionItem[T], len(items))
	for i, item := range items {
		available[i] = SelectionItem[T]{Item: item, Index: i}
	}
	return &Selection[T]{amount: amount, available: available}
}

// Select moves the candidate with the given original index from available
// to selected. It reports false when the index is unknown, already
// selected, or the selection is full.
func (s *Selection[T]) Select(index int) bool {
	if len(s.selected) == s.amount {
		return false
	}
	for i, item := range s.available {
		if item.Index == index {
			s.available = append(s.available[:i], s.available[i+1:]...)
			s.selected = append(s.selected, item)
			return true
		}
	}
	return false
}

// Deselect returns a selected candidate to the available pool.
func (s *Selection[T]) Deselect(index int) bool {
	for i, item := range s.selected {
		if item.Index == index {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			s.available = append(s.available, item)
			return true
		}
	}
	return false
}

// Confirm returns the final selection, but only once exactly the required
// amount has been selected.
func (s *Selection[T]) Confirm() ([]SelectionItem[T], bool) {
	if len(s.selected) != s.amount {
		return nil, false
	}
	return s.selected, true
}

// Cancel discards the picker with no effect on its parent.
func (s *Selection[T]) Cancel() {
	s.available = nil
	s.selected = nil
}

// CostCandidate is one legal cost payment source for a cast.
type CostCandidate struct {
	Card   cards.Card
	Source CostSource
}

// mulliganSelection builds the picker for the mulligan fee: candidates are
// restricted to the player's own spirit deck.
func (s *State) mulliganSelection(id PlayerID) *Selection[cards.Card] {
	p := s.players[id]
	return NewSelection(p.SpiritDeck, s.cfg.MulliganSpiritFee)
}

// castCostSelection builds the picker for paying the casting card's cost.
// Candidates are the caster's spirit deck and, when casting an instant
// rune, spirits already expended onto their field cards. Spirits locked
// under set runes or instant runes are never eligible.
func (s *State) castCostSelection(id PlayerID, casting cards.Card) *Selection[CostCandidate] {
	p := s.players[id]

	candidates := make([]CostCandidate, 0, len(p.SpiritDeck))
	for i, spirit := range p.SpiritDeck {
		candidates = append(candidates, CostCandidate{
			Card:   spirit,
			Source: CostSource{Zone: CostZoneSpiritDeck, Index: i},
		})
	}

	if casting.IsInstant() {
		for fi := range s.field {
			slot := &s.field[fi]
			if slot.Owner != id || slot.Contents == nil {
				continue
			}
			if slot.Type == SlotRune && (slot.Contents.Set || slot.Contents.Card.IsInstant()) {
				continue
			}
			for si, spirit := range slot.Contents.Spirits {
				candidates = append(candidates, CostCandidate{
					Card: spirit,
					Source: CostSource{
						Zone:        CostZoneField,
						SlotType:    slot.Type,
						SlotIndex:   slot.Index,
						SpiritIndex: si,
					},
				})
			}
		}
	}

	return NewSelection(candidates, len(casting.Cost))
}

// selectCostSources drives a cast-cost picker from the sources named in an
// inbound cast event. Every named source must match exactly one candidate
// and the count must equal the card's cost length; otherwise the cast is
// rejected as a rule violation.
func selectCostSources(sel *Selection[CostCandidate], sources []CostSource) ([]SelectionItem[CostCandidate], bool) {
	for _, src := range sources {
		found := false
		for _, cand := range sel.available {
			if cand.Item.Source == src {
				found = sel.Select(cand.Index)
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return sel.Confirm()
}

// selectSpiritIndices drives a mulligan picker from the spirit-deck
// indices named in the inbound event.
func selectSpiritIndices(sel *Selection[cards.Card], indices []int) ([]SelectionItem[cards.Card], bool) {
	for _, idx := range indices {
		if !sel.Select(idx) {
			return nil, false
		}
	}
	return sel.Confirm()
}
