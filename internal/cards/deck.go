package cards

import (
	"fmt"
	"sort"

	rand "math/rand/v2"
)

// DeckList is the submitted form of a deck: card ID -> number of copies.
type DeckList struct {
	Main      map[string]int `json:"main"`
	Spirit    map[string]int `json:"spirit"`
	Sideboard map[string]int `json:"sideboard"`
}

// Deck is a validated, expanded deck. Main and spirit decks are consumed
// and shuffled during play; the sideboard is informational only.
type Deck struct {
	Main      []Card `json:"main"`
	Spirit    []Card `json:"spirit"`
	Sideboard []Card `json:"sideboard"`
}

// Catalog maps card IDs to their catalog entries.
type Catalog map[string]Card

// BuildDeck expands a deck list against the catalog. Unknown IDs fail the
// whole build; copies of the same ID share the same immutable Card value.
func (cat Catalog) BuildDeck(list DeckList) (Deck, error) {
	main, err := cat.expand(list.Main)
	if err != nil {
		return Deck{}, fmt.Errorf("main deck: %w", err)
	}
	spirit, err := cat.expand(list.Spirit)
	if err != nil {
		return Deck{}, fmt.Errorf("spirit deck: %w", err)
	}
	sideboard, err := cat.expand(list.Sideboard)
	if err != nil {
		return Deck{}, fmt.Errorf("sideboard: %w", err)
	}
	return Deck{Main: main, Spirit: spirit, Sideboard: sideboard}, nil
}

func (cat Catalog) expand(list map[string]int) ([]Card, error) {
	// Sort IDs so expansion order is stable across runs.
	ids := make([]string, 0, len(list))
	for id := range list {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Card
	for _, id := range ids {
		card, ok := cat[id]
		if !ok {
			return nil, fmt.Errorf("unknown card %q", id)
		}
		for i := 0; i < list[id]; i++ {
			out = append(out, card)
		}
	}
	return out, nil
}

// Shuffle returns a Fisher-Yates shuffled copy of cards. The input slice is
// left untouched so callers can hold onto the original ordering.
func Shuffle(cards []Card, rng *rand.Rand) []Card {
	shuffled := make([]Card, len(cards))
	copy(shuffled, cards)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
