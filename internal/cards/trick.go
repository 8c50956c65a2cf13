package cards

import "fmt"

// Demand is what a trick requires subsequent cards to follow: trump or a plain suit.
type Demand string

const (
	DemandTrump  Demand = "TRUMP"
	DemandClubs  Demand = "CLUBS"
	DemandSpades Demand = "SPADES"
	DemandHearts Demand = "HEARTS"
)

// trumpOrder lists the trumps from highest to lowest.
var trumpOrder = []Card{
	{Hearts, Ten},
	{Clubs, Queen}, {Spades, Queen}, {Hearts, Queen}, {Diamonds, Queen},
	{Clubs, Jack}, {Spades, Jack}, {Hearts, Jack}, {Diamonds, Jack},
	{Diamonds, Ace}, {Diamonds, Ten}, {Diamonds, King}, {Diamonds, Nine},
}

// plainOrder lists the non-trump faces of a suit from lowest to highest.
var plainOrder = []Rank{Nine, King, Ten, Ace}

// IsTrump reports whether c belongs to the trump category of a normal game.
func (c Card) IsTrump() bool {
	return trumpIndex(c) >= 0
}

// Demand returns the demand a card establishes when it leads a trick.
func (c Card) Demand() Demand {
	if c.IsTrump() {
		return DemandTrump
	}
	switch c.Suit {
	case Clubs:
		return DemandClubs
	case Spades:
		return DemandSpades
	case Hearts:
		return DemandHearts
	}
	panic(fmt.Sprintf("cards: no demand for %s", c))
}

// Satisfies reports whether c follows demand d.
func (c Card) Satisfies(d Demand) bool {
	return c.Demand() == d
}

// CanFollow reports whether hand holds at least one card satisfying d.
func CanFollow(hand []Card, d Demand) bool {
	for _, c := range hand {
		if c.Satisfies(d) {
			return true
		}
	}
	return false
}

// Legal reports whether playing c from hand respects the follow rule under d.
// An empty demand means c leads the trick and anything goes.
func Legal(c Card, hand []Card, d Demand) bool {
	if d == "" || c.Satisfies(d) {
		return true
	}
	return !CanFollow(hand, d)
}

// Strength ranks c within a trick demanding d. Higher beats lower; zero never wins.
func Strength(c Card, d Demand) int {
	if i := trumpIndex(c); i >= 0 {
		return 100 + len(trumpOrder) - i
	}
	if c.Demand() != d {
		return 0
	}
	for i, r := range plainOrder {
		if r == c.Rank {
			return 1 + i
		}
	}
	return 0
}

// Winner returns the index of the winning card among played, in play order. The first
// card sets the demand; a later card wins only when strictly stronger, so of two equal
// cards the earlier one wins. played must not be empty.
func Winner(played []Card) int {
	d := played[0].Demand()
	best := 0
	for i := 1; i < len(played); i++ {
		if Strength(played[i], d) > Strength(played[best], d) {
			best = i
		}
	}
	return best
}

func trumpIndex(c Card) int {
	for i, t := range trumpOrder {
		if t == c {
			return i
		}
	}
	return -1
}
