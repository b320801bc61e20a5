// Package cards defines the immutable card catalog types and deck
// construction used by the game engine. Card values are reference data:
// they are built once from the catalog and never mutated afterwards.
package cards

// Element is a typed resource on spirit cards and in casting costs.
type Element string

const (
	ElementRainbow Element = "rainbow" // matches any element
	ElementEarth   Element = "earth"
	ElementWater   Element = "water"
	ElementThunder Element = "thunder"
	ElementFire    Element = "fire"
	ElementWind    Element = "wind"
)

// Class partitions the catalog into the three card kinds.
type Class string

const (
	ClassSpirit   Class = "spirit"
	ClassElestral Class = "elestral"
	ClassRune     Class = "rune"
)

// Rune subclasses that resolve immediately when cast. Spirits attached to
// these cards can never be re-spent as cost sources.
const (
	SubclassInvoke  = "invoke"
	SubclassCounter = "counter"
	SubclassStadium = "stadium"
)

// Effect is an opaque descriptor for a card's scripted effect. Effect
// resolution is handled by a separate interpreter; the engine only carries
// the descriptor through.
type Effect struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// Card is a single catalog entry.
//
// Spirit cards carry an Element and no cost. Elestral and rune cards carry
// a Cost (one entry per spirit that must be expended to cast them) and an
// Effect descriptor. Attack/Defense are only meaningful for elestrals.
type Card struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Class      Class     `json:"class"`
	Subclasses []string  `json:"subclasses,omitempty"`
	Element    Element   `json:"element,omitempty"`
	Cost       []Element `json:"cost,omitempty"`
	Attack     int       `json:"attack,omitempty"`
	Defense    int       `json:"defense,omitempty"`
	Effect     Effect    `json:"effect,omitempty"`
}

// IsInstant reports whether the card is an invoke or counter rune. Instant
// runes resolve as they are cast, so their attached spirits are not
// eligible cost sources for later casts.
func (c Card) IsInstant() bool {
	if c.Class != ClassRune {
		return false
	}
	for _, s := range c.Subclasses {
		if s == SubclassInvoke || s == SubclassCounter {
			return true
		}
	}
	return false
}
