package game

import (
	"sort"

	"github.com/elestrals-showdown/game-server/internal/cards"
)

// Zone moves. Every card transfer between zones goes through one of these
// primitives so a card is always in exactly one zone.

// Draw moves up to n cards from the top of the player's main deck to
// their hand, returning how many were actually drawn.
func (s *State) Draw(id PlayerID, n int) int {
	p := s.players[id]
	if n > len(p.MainDeck) {
		n = len(p.MainDeck)
	}
	p.Hand = append(p.Hand, p.MainDeck[:n]...)
	p.MainDeck = p.MainDeck[n:]
	return n
}

// ShuffleHandIntoDeck returns the player's whole hand to the main deck
// and reshuffles it.
func (s *State) ShuffleHandIntoDeck(id PlayerID) {
	p := s.players[id]
	p.MainDeck = cards.Shuffle(append(p.MainDeck, p.Hand...), s.rng)
	p.Hand = nil
}

// ExpendSpirits moves the named spirit-deck cards to the underworld.
// Indices refer to the spirit deck as it stands when the call is made.
func (s *State) ExpendSpirits(id PlayerID, indices []int) {
	p := s.players[id]
	taken := s.takeSpiritsFromDeck(id, indices)
	p.Underworld = append(p.Underworld, taken...)
}

// takeFromHand removes and returns the card at the given hand index.
func (s *State) takeFromHand(id PlayerID, index int) cards.Card {
	p := s.players[id]
	card := p.Hand[index]
	p.Hand = append(p.Hand[:index], p.Hand[index+1:]...)
	return card
}

// takeSpiritsFromDeck removes the named cards from the spirit deck.
// Removal runs highest index first so earlier removals do not shift the
// positions of later ones.
func (s *State) takeSpiritsFromDeck(id PlayerID, indices []int) []cards.Card {
	p := s.players[id]
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	taken := make([]cards.Card, 0, len(sorted))
	for _, idx := range sorted {
		taken = append(taken, p.SpiritDeck[idx])
		p.SpiritDeck = append(p.SpiritDeck[:idx], p.SpiritDeck[idx+1:]...)
	}
	return taken
}

// takeSpiritsFromSlot removes the named attached spirits from an occupied
// slot, highest index first for the same reason as the deck variant.
func takeSpiritsFromSlot(slot *FieldSlot, indices []int) []cards.Card {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	taken := make([]cards.Card, 0, len(sorted))
	for _, idx := range sorted {
		taken = append(taken, slot.Contents.Spirits[idx])
		slot.Contents.Spirits = append(slot.Contents.Spirits[:idx], slot.Contents.Spirits[idx+1:]...)
	}
	return taken
}

// placeOnField moves a card from the player's hand onto an empty slot,
// attaching the spirits that paid its cost.
func (s *State) placeOnField(id PlayerID, handIndex int, slot *FieldSlot, spirits []cards.Card, set bool) {
	card := s.takeFromHand(id, handIndex)
	slot.Contents = &SlotContents{Card: card, Spirits: spirits, Set: set}
}
