package game

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/elestrals-showdown/game-server/internal/cards"
	"github.com/elestrals-showdown/game-server/internal/dice"
	"github.com/elestrals-showdown/game-server/internal/randutil"
)

// recordingSender captures outbound events per player.
type recordingSender struct {
	mu     sync.Mutex
	events map[PlayerID][]Outbound
}

func newRecordingSender() *recordingSender {
	return &recordingSender{events: make(map[PlayerID][]Outbound)}
}

func (r *recordingSender) Send(to PlayerID, event Outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[to] = append(r.events[to], event)
}

// byType returns every event of the given type sent to a player.
func (r *recordingSender) byType(to PlayerID, typ OutboundType) []Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Outbound
	for _, ev := range r.events[to] {
		if ev.OutboundType() == typ {
			out = append(out, ev)
		}
	}
	return out
}

// lastView returns the most recent state sync sent to a player.
func (r *recordingSender) lastView(t *testing.T, to PlayerID) View {
	t.Helper()
	syncs := r.byType(to, OutSyncState)
	require.NotEmpty(t, syncs, "no sync_state sent to %s", to)
	return syncs[len(syncs)-1].(SyncStateData).View
}

// cycleReader repeats a fixed byte pattern forever, giving the dice
// roller a predictable script.
type cycleReader struct {
	data []byte
	pos  int
}

func (r *cycleReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.data[r.pos%len(r.data)]
		r.pos++
	}
	return len(p), nil
}

// scriptedRoller rolls 20 for the first roll of a tiebreak and 3 for the
// second, so the first player in rotation always wins.
func scriptedRoller() *dice.Roller {
	var data []byte
	data = append(data, bytes.Repeat([]byte{1}, 20)...) // sum 20 -> roll 20
	data = append(data, bytes.Repeat([]byte{0}, 19)...)
	data = append(data, 3) // sum 3 -> roll 3
	return dice.NewRoller(dice.WithSource(&cycleReader{data: data}))
}

func buildDeck(t *testing.T, main, spirit map[string]int) cards.Deck {
	t.Helper()
	deck, err := cards.BaseCatalog().BuildDeck(cards.DeckList{Main: main, Spirit: spirit})
	require.NoError(t, err)
	return deck
}

// standardDeck is 20 copies of one main card and 10 earth spirits, enough
// to survive the opening hand and several turns.
func standardDeck(t *testing.T, mainCard string) cards.Deck {
	t.Helper()
	return buildDeck(t,
		map[string]int{mainCard: 20},
		map[string]int{"spirit-earth": 10},
	)
}

func newTestSession(t *testing.T) (*Session, *recordingSender) {
	t.Helper()
	sender := newRecordingSender()
	state := NewState(DefaultConfig(), randutil.New(1))
	logger := log.New(io.Discard)
	s := NewSession("room-1", sender, DefaultConfig(), state, logger, WithRoller(scriptedRoller()))
	return s, sender
}

// connectTwo joins p1 and p2 with the given decks and confirms both, which
// fires the dice tiebreak. The scripted roller makes p1 the winner.
func connectTwo(s *Session, d1, d2 cards.Deck) {
	s.dispatch(PlayerConnectingEvent{Player: "p1", Deck: d1})
	s.dispatch(PlayerConnectedEvent{Player: "p1"})
	s.dispatch(PlayerConnectingEvent{Player: "p2", Deck: d2})
	s.dispatch(PlayerConnectedEvent{Player: "p2"})
}

// startRound drives a session through connect, dice, dealing and the
// mulligan check, landing in the game round with p1 as starting player.
func startRound(t *testing.T, s *Session, d1, d2 cards.Deck) {
	t.Helper()
	connectTwo(s, d1, d2)
	require.Equal(t, StateChooseStartingPlayer, s.State())
	s.dispatch(StartingPlayerPickedEvent{Player: "p1", StartingPlayer: "p1"})
	require.Equal(t, StateCheckMulligans, s.State())
	s.dispatch(NoMulliganEvent{Player: "p1"})
	s.dispatch(NoMulliganEvent{Player: "p2"})
	require.Equal(t, StateGameRound, s.State())
}
