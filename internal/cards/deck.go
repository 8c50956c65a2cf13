package cards

import (
	"math/rand"
	"time"
)

// HandSize returns the number of cards each of the four hands receives.
func HandSize(withNines bool) int {
	if withNines {
		return 12
	}
	return 10
}

// NewDeck builds an unshuffled deck: every card twice, nines only when withNines is set.
func NewDeck(withNines bool) []Card {
	deck := make([]Card, 0, 4*HandSize(withNines))
	for _, s := range Suits {
		for _, r := range Ranks {
			if r == Nine && !withNines {
				continue
			}
			c := Card{Suit: s, Rank: r}
			deck = append(deck, c, c)
		}
	}
	return deck
}

// IsDeck reports whether deck holds exactly the cards of NewDeck(withNines), in any order.
func IsDeck(deck []Card, withNines bool) bool {
	want := NewDeck(withNines)
	if len(deck) != len(want) {
		return false
	}
	count := make(map[Card]int, len(want)/2)
	for _, c := range want {
		count[c]++
	}
	for _, c := range deck {
		if count[c] == 0 {
			return false
		}
		count[c]--
	}
	return true
}

// Shuffle permutes deck in place. A non-nil seed makes the order reproducible.
func Shuffle(deck []Card, seed *int64) {
	var src rand.Source
	if seed != nil {
		src = rand.NewSource(*seed)
	} else {
		src = rand.NewSource(time.Now().UnixNano())
	}
	r := rand.New(src)
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}

// Deal splits deck into n consecutive hands of equal size. The deck length must be a
// multiple of n.
func Deal(deck []Card, n int) [][]Card {
	size := len(deck) / n
	hands := make([][]Card, n)
	for i := range hands {
		hand := make([]Card, size)
		copy(hand, deck[i*size:(i+1)*size])
		hands[i] = hand
	}
	return hands
}
