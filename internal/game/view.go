package game

import "github.com/elestrals-showdown/game-server/internal/cards"

// View is one player's filtered snapshot of the game. The recipient sees
// their own hidden zones in full; opponents' hidden zones collapse to
// counts. Underworlds and the field are public. Views are derived fresh
// on every broadcast and never stored.
type View struct {
	Status        Status                    `json:"status"`
	OutReason     OutReason                 `json:"outReason,omitempty"`
	Turn          TurnState                 `json:"turn"`
	Hand          []cards.Card              `json:"hand"`
	SpiritDeck    []cards.Card              `json:"spiritDeck"`
	MainDeckCount int                       `json:"mainDeckCount"`
	Underworld    []cards.Card              `json:"underworld"`
	Field         []FieldSlot               `json:"field"`
	Opponents     map[PlayerID]OpponentView `json:"opponents"`
}

// OpponentView is what a player may know about an opponent.
type OpponentView struct {
	Status        Status       `json:"status"`
	OutReason     OutReason    `json:"outReason,omitempty"`
	HandCount     int          `json:"handCount"`
	SpiritCount   int          `json:"spiritCount"`
	MainDeckCount int          `json:"mainDeckCount"`
	Underworld    []cards.Card `json:"underworld"`
}

// ViewFor projects the state for one recipient. All slices are copies so
// a marshalling goroutine can never observe a later mutation.
func (s *State) ViewFor(id PlayerID) View {
	p := s.players[id]
	if p == nil {
		return View{}
	}

	view := View{
		Status:        p.Status,
		OutReason:     p.OutReason,
		Turn:          s.turn,
		Hand:          copyCards(p.Hand),
		SpiritDeck:    copyCards(p.SpiritDeck),
		MainDeckCount: len(p.MainDeck),
		Underworld:    copyCards(p.Underworld),
		Field:         copyField(s.field),
		Opponents:     make(map[PlayerID]OpponentView),
	}

	for _, oid := range s.rotation {
		if oid == id {
			continue
		}
		o := s.players[oid]
		view.Opponents[oid] = OpponentView{
			Status:        o.Status,
			OutReason:     o.OutReason,
			HandCount:     len(o.Hand),
			SpiritCount:   len(o.SpiritDeck),
			MainDeckCount: len(o.MainDeck),
			Underworld:    copyCards(o.Underworld),
		}
	}
	return view
}

func copyCards(src []cards.Card) []cards.Card {
	out := make([]cards.Card, len(src))
	copy(out, src)
	return out
}

func copyField(src []FieldSlot) []FieldSlot {
	out := make([]FieldSlot, len(src))
	copy(out, src)
	for i := range out {
		if out[i].Contents != nil {
			contents := *out[i].Contents
			contents.Spirits = copyCards(contents.Spirits)
			out[i].Contents = &contents
		}
	}
	return out
}
