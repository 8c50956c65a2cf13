// Package cards models the Doppelkopf deck and the card-level rules of a trick:
// trump order, demand, the follow rule and trick evaluation.
package cards

import (
	"fmt"
	"strings"
)

// Suit is one of the four French suits.
type Suit string

const (
	Clubs    Suit = "C"
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
)

// Suits lists the suits in their conventional order.
var Suits = []Suit{Clubs, Spades, Hearts, Diamonds}

// Rank is the face of a card.
type Rank string

const (
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Ranks lists the ranks used in a deck with nines, lowest face first.
var Ranks = []Rank{Nine, Ten, Jack, Queen, King, Ace}

// Card is a single playing card. Doppelkopf decks contain every card twice, so
// two equal Card values are legitimately different physical cards.
type Card struct {
	Suit Suit
	Rank Rank
}

// Common cards with special meaning in the rules.
var (
	Dulle        = Card{Hearts, Ten}
	ClubsQueen   = Card{Clubs, Queen}
	ClubsJack    = Card{Clubs, Jack}
	DiamondsAce  = Card{Diamonds, Ace}
	DiamondsNine = Card{Diamonds, Nine}
)

// String renders the card as suit letter followed by rank, e.g. "H10" or "CQ".
func (c Card) String() string {
	return string(c.Suit) + string(c.Rank)
}

// MarshalText implements encoding.TextMarshaler.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card %q", c.String())
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Valid reports whether suit and rank are known.
func (c Card) Valid() bool {
	return validSuit(c.Suit) && validRank(c.Rank)
}

// Points returns the card's eyes.
func (c Card) Points() int {
	switch c.Rank {
	case Ace:
		return 11
	case Ten:
		return 10
	case King:
		return 4
	case Queen:
		return 3
	case Jack:
		return 2
	default:
		return 0
	}
}

// Parse reads the text form produced by Card.String.
func Parse(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	c := Card{Suit: Suit(s[:1]), Rank: Rank(s[1:])}
	if !c.Valid() {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	return c, nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseAll parses a whitespace separated list of cards.
func ParseAll(s string) ([]Card, error) {
	fields := strings.Fields(s)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := Parse(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Points sums the eyes of the given cards.
func Points(cs []Card) int {
	total := 0
	for _, c := range cs {
		total += c.Points()
	}
	return total
}

// Index returns the position of the first card equal to c, or -1.
func Index(cs []Card, c Card) int {
	for i, x := range cs {
		if x == c {
			return i
		}
	}
	return -1
}

// Remove returns cs without the first copy of c. The input slice is not modified.
func Remove(cs []Card, c Card) ([]Card, bool) {
	i := Index(cs, c)
	if i < 0 {
		return cs, false
	}
	out := make([]Card, 0, len(cs)-1)
	out = append(out, cs[:i]...)
	return append(out, cs[i+1:]...), true
}

// Count returns how many copies of c are in cs.
func Count(cs []Card, c Card) int {
	n := 0
	for _, x := range cs {
		if x == c {
			n++
		}
	}
	return n
}

func validSuit(s Suit) bool {
	switch s {
	case Clubs, Spades, Hearts, Diamonds:
		return true
	}
	return false
}

func validRank(r Rank) bool {
	switch r {
	case Nine, Ten, Jack, Queen, King, Ace:
		return true
	}
	return false
}
