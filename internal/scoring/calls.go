// Package scoring implements the party, announcement and settlement rules of a
// Doppelkopf round.
package scoring

import (
	"fmt"

	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
)

// Party is the side a hand plays for.
type Party string

const (
	Re     Party = "RE"
	Kontra Party = "KONTRA"
)

// Opponent returns the other party.
func (p Party) Opponent() Party {
	if p == Re {
		return Kontra
	}
	return Re
}

// PartyOf derives the party from the dealt cards: holding a queen of clubs makes Re.
func PartyOf(dealt []cards.Card) Party {
	if cards.Count(dealt, cards.ClubsQueen) > 0 {
		return Re
	}
	return Kontra
}

// CallType is a declaration made during a round.
type CallType string

const (
	CallRe     CallType = "RE"
	CallKontra CallType = "KONTRA"
	CallNo90   CallType = "NO_90"
	CallNo60   CallType = "NO_60"
	CallNo30   CallType = "NO_30"
	CallBlack  CallType = "BLACK"
)

// callLadder is the order in which announcements build on each other.
var callLadder = []CallType{CallNo90, CallNo60, CallNo30, CallBlack}

// MaxPlayed returns how many cards the calling hand may already have played.
func (t CallType) MaxPlayed() int {
	switch t {
	case CallRe, CallKontra:
		return 1
	case CallNo90:
		return 2
	case CallNo60:
		return 3
	case CallNo30:
		return 4
	case CallBlack:
		return 5
	}
	return -1
}

// Valid reports whether t is a known call type.
func (t CallType) Valid() bool {
	return t.MaxPlayed() >= 0
}

// Declared is a call already made in the round.
type Declared struct {
	Party Party
	Type  CallType
}

// CheckCall validates a new call of type t by a hand of party p that has already played
// played cards, given the calls declared so far. The returned error describes the
// violated rule.
func CheckCall(t CallType, p Party, played int, declared []Declared) error {
	if !t.Valid() {
		return fmt.Errorf("unknown call type %q", t)
	}
	if t == CallRe && p != Re {
		return fmt.Errorf("only the re party may call %s", t)
	}
	if t == CallKontra && p != Kontra {
		return fmt.Errorf("only the kontra party may call %s", t)
	}
	if played > t.MaxPlayed() {
		return fmt.Errorf("%s must be called before playing card %d", t, t.MaxPlayed()+2)
	}
	has := func(ct CallType) bool {
		for _, d := range declared {
			if d.Party == p && d.Type == ct {
				return true
			}
		}
		return false
	}
	if has(t) {
		return fmt.Errorf("%s was already called by the %s party", t, p)
	}
	if t == CallRe || t == CallKontra {
		return nil
	}
	if !has(partyCall(p)) {
		return fmt.Errorf("%s requires %s first", t, partyCall(p))
	}
	for i, ct := range callLadder {
		if ct == t && i > 0 && !has(callLadder[i-1]) {
			return fmt.Errorf("%s requires %s first", t, callLadder[i-1])
		}
	}
	return nil
}

func partyCall(p Party) CallType {
	if p == Re {
		return CallRe
	}
	return CallKontra
}
