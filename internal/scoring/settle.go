package scoring

import (
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/samber/lo"
)

// Trick is a finished trick as seen by settlement: cards in play order, the hand
// index that played each card, and the winning hand index.
type Trick struct {
	Cards  []cards.Card
	Hands  []int
	Winner int
}

// Round is everything settlement needs to know about a finished round.
type Round struct {
	Parties []Party // indexed by hand
	Tricks  []Trick // in play order
	Calls   []Declared
}

// Reason is one line of the game value computation.
type Reason struct {
	Name   string `json:"name"`
	Party  Party  `json:"party"`
	Points int    `json:"points"`
}

// Outcome is the settlement of a round.
type Outcome struct {
	ReEyes       int
	KontraEyes   int
	ReTricks     int
	KontraTricks int
	Winner       Party // empty when neither party reached its target
	Value        int
	Reasons      []Reason
	Scores       []int // indexed by hand, sums to zero
}

// announced maps each NO_* call to the eyes its party needs and the eyes that suffice for
// the opponent.
var announced = map[CallType]struct{ own, against int }{
	CallNo90: {own: 151, against: 90},
	CallNo60: {own: 181, against: 60},
	CallNo30: {own: 211, against: 30},
}

// Settle computes the result of a round. Neither party wins only when both made a NO_* or
// BLACK announcement and both missed it.
func Settle(r Round) Outcome {
	out := Outcome{Scores: make([]int, len(r.Parties))}
	eyes := map[Party]int{}
	tricks := map[Party]int{}
	for _, t := range r.Tricks {
		p := r.Parties[t.Winner]
		eyes[p] += cards.Points(t.Cards)
		tricks[p]++
	}
	out.ReEyes, out.KontraEyes = eyes[Re], eyes[Kontra]
	out.ReTricks, out.KontraTricks = tricks[Re], tricks[Kontra]

	called := func(p Party, t CallType) bool {
		return lo.Contains(r.Calls, Declared{Party: p, Type: t})
	}
	// highest returns the strongest NO_*/BLACK announcement of p, or "".
	highest := func(p Party) CallType {
		for i := len(callLadder) - 1; i >= 0; i-- {
			if called(p, callLadder[i]) {
				return callLadder[i]
			}
		}
		return ""
	}
	reaches := func(p Party) bool {
		o := p.Opponent()
		// an own announcement binds the party to it
		if own := highest(p); own != "" {
			if own == CallBlack {
				return tricks[o] == 0
			}
			return eyes[p] >= announced[own].own
		}
		// an opponent announcement lowers what the party needs to win
		if theirs := highest(o); theirs != "" {
			if theirs == CallBlack {
				return tricks[p] > 0
			}
			return eyes[p] >= announced[theirs].against
		}
		// Re needs 121; when only Kontra announced, Kontra loses the 120:120 tie instead.
		need := map[Party]int{Re: 121, Kontra: 120}[p]
		if called(Kontra, CallKontra) && !called(Re, CallRe) {
			need = map[Party]int{Re: 120, Kontra: 121}[p]
		}
		return eyes[p] >= need
	}

	switch {
	case reaches(Re):
		out.Winner = Re
	case reaches(Kontra):
		out.Winner = Kontra
	default:
		return out
	}
	winner, loser := out.Winner, out.Winner.Opponent()

	add := func(name string, p Party, points int) {
		out.Reasons = append(out.Reasons, Reason{Name: name, Party: p, Points: points})
	}
	solo := lo.Count(r.Parties, Re) == 1
	add("won", winner, 1)
	if winner == Kontra && !solo {
		add("against_the_elders", winner, 1)
	}
	for _, th := range []struct {
		name  string
		below int
	}{{"no_90", 90}, {"no_60", 60}, {"no_30", 30}} {
		if eyes[loser] < th.below {
			add(th.name, winner, 1)
		}
	}
	if tricks[loser] == 0 {
		add("black", winner, 1)
	}
	for _, c := range r.Calls {
		switch c.Type {
		case CallRe:
			add("re_called", winner, 2)
		case CallKontra:
			add("kontra_called", winner, 2)
		default:
			add(string(c.Type)+"_called", winner, 1)
		}
	}

	if !solo {
		for _, x := range extras(r) {
			if x.Party == loser {
				x.Points = -x.Points
			}
			out.Reasons = append(out.Reasons, x)
		}
	}
	out.Value = lo.SumBy(out.Reasons, func(x Reason) int { return x.Points })

	for i, p := range r.Parties {
		factor := 1
		if p == Re && solo {
			factor = 3
		}
		if p == winner {
			out.Scores[i] = out.Value * factor
		} else {
			out.Scores[i] = -out.Value * factor
		}
	}
	return out
}

// extras collects the special points of a normal game, each worth one point for the
// party that earned it.
func extras(r Round) []Reason {
	var out []Reason
	for n, t := range r.Tricks {
		p := r.Parties[t.Winner]
		if cards.Points(t.Cards) >= 40 {
			out = append(out, Reason{Name: "doppelkopf", Party: p, Points: 1})
		}
		for i, c := range t.Cards {
			if c == cards.DiamondsAce && r.Parties[t.Hands[i]] != p {
				out = append(out, Reason{Name: "fox_caught", Party: p, Points: 1})
			}
		}
		if n == len(r.Tricks)-1 {
			if i := lo.IndexOf(t.Hands, t.Winner); i >= 0 && t.Cards[i] == cards.ClubsJack {
				out = append(out, Reason{Name: "charlie", Party: p, Points: 1})
			}
		}
	}
	return out
}
