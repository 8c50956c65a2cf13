package scoring

import (
	"testing"

	"github.com/jengryg/doppelkopf-srv-sub002/internal/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var normalParties = []Party{Re, Kontra, Re, Kontra}

// trick builds a trick whose cards were played by hands 0..3 in order.
func trick(t *testing.T, winner int, cs string) Trick {
	t.Helper()
	played, err := cards.ParseAll(cs)
	require.NoError(t, err)
	return Trick{Cards: played, Hands: []int{0, 1, 2, 3}, Winner: winner}
}

// repeat returns n copies of a 30-eye trick won by winner.
func repeat(t *testing.T, n, winner int) []Trick {
	out := make([]Trick, n)
	for i := range out {
		out[i] = trick(t, winner, "SA SA DK DK")
	}
	return out
}

func reasonNames(o Outcome) []string {
	names := make([]string, len(o.Reasons))
	for i, r := range o.Reasons {
		names[i] = r.Name
	}
	return names
}

func TestPartyOf(t *testing.T) {
	assert.Equal(t, Re, PartyOf([]cards.Card{cards.DiamondsAce, cards.ClubsQueen}))
	assert.Equal(t, Kontra, PartyOf([]cards.Card{cards.DiamondsAce, cards.Dulle}))
	assert.Equal(t, Re, Kontra.Opponent())
}

func TestSettleReWinsWithExtras(t *testing.T) {
	r := Round{
		Parties: normalParties,
		Tricks: []Trick{
			trick(t, 0, "HA HA SA SA"),   // 44, doppelkopf
			trick(t, 2, "CA CA C10 C10"), // 42, doppelkopf
			trick(t, 0, "S10 S10 HK HK"), // 28
			trick(t, 1, "DK DK CK CK"),   // 16
			trick(t, 0, "D10 D10 SK SK"), // 28
		},
	}
	o := Settle(r)

	assert.Equal(t, 142, o.ReEyes)
	assert.Equal(t, 16, o.KontraEyes)
	assert.Equal(t, 4, o.ReTricks)
	assert.Equal(t, 1, o.KontraTricks)
	assert.Equal(t, Re, o.Winner)
	assert.Equal(t, []string{"won", "no_90", "no_60", "no_30", "doppelkopf", "doppelkopf"}, reasonNames(o))
	assert.Equal(t, 6, o.Value)
	assert.Equal(t, []int{6, -6, 6, -6}, o.Scores)
}

func TestSettleTieGoesToKontra(t *testing.T) {
	r := Round{
		Parties: normalParties,
		Tricks:  append(repeat(t, 4, 0), repeat(t, 4, 1)...),
	}
	o := Settle(r)

	assert.Equal(t, 120, o.ReEyes)
	assert.Equal(t, 120, o.KontraEyes)
	assert.Equal(t, Kontra, o.Winner)
	assert.Equal(t, []string{"won", "against_the_elders"}, reasonNames(o))
	assert.Equal(t, []int{-2, 2, -2, 2}, o.Scores)
}

func TestSettleTieGoesToReWhenOnlyKontraCalled(t *testing.T) {
	r := Round{
		Parties: normalParties,
		Tricks:  append(repeat(t, 4, 0), repeat(t, 4, 1)...),
		Calls:   []Declared{{Party: Kontra, Type: CallKontra}},
	}
	o := Settle(r)

	assert.Equal(t, Re, o.Winner)
	assert.Equal(t, []string{"won", "kontra_called"}, reasonNames(o))
	assert.Equal(t, 3, o.Value)
	assert.Equal(t, []int{3, -3, 3, -3}, o.Scores)
}

func TestSettleFailedAnnouncementLosesToOpponent(t *testing.T) {
	r := Round{
		Parties: normalParties,
		Tricks: append(
			append(repeat(t, 4, 0), trick(t, 2, "C10 C10 D9 D9")),  // re 140
			append(repeat(t, 3, 1), trick(t, 3, "HK HK DJ D9"))..., // kontra 100
		),
		Calls: []Declared{{Party: Re, Type: CallRe}, {Party: Re, Type: CallNo90}},
	}
	o := Settle(r)

	assert.Equal(t, Kontra, o.Winner)
	assert.Equal(t, []string{"won", "against_the_elders", "re_called", "NO_90_called"}, reasonNames(o))
	assert.Equal(t, 5, o.Value)
	assert.Equal(t, []int{-5, 5, -5, 5}, o.Scores)
}

func TestSettleNobodyWinsWhenBothMissTheirAnnouncements(t *testing.T) {
	r := Round{
		Parties: normalParties,
		Tricks: append(
			append(repeat(t, 4, 0), trick(t, 2, "C10 C10 D9 D9")),  // re 140
			append(repeat(t, 3, 1), trick(t, 3, "HK HK DJ D9"))..., // kontra 100
		),
		Calls: []Declared{
			{Party: Re, Type: CallRe}, {Party: Re, Type: CallNo90},
			{Party: Kontra, Type: CallKontra}, {Party: Kontra, Type: CallNo90},
		},
	}
	o := Settle(r)

	assert.Equal(t, 140, o.ReEyes)
	assert.Equal(t, 100, o.KontraEyes)
	assert.Equal(t, Party(""), o.Winner)
	assert.Zero(t, o.Value)
	assert.Equal(t, []int{0, 0, 0, 0}, o.Scores)
}

func TestSettleAnnouncementLevels(t *testing.T) {
	ladder := func(upTo CallType) []Declared {
		calls := []Declared{{Party: Re, Type: CallRe}}
		for _, ct := range callLadder {
			calls = append(calls, Declared{Party: Re, Type: ct})
			if ct == upTo {
				break
			}
		}
		return calls
	}
	blank := trick(t, 1, "S9 S9 H9 H9")

	tests := []struct {
		name   string
		upTo   CallType
		tricks []Trick
		winner Party
		value  int
	}{
		{"no 90 missed at 150:90", CallNo90, append(repeat(t, 3, 1), repeat(t, 5, 0)...), Kontra, 5},
		{"no 60 missed at 180:60", CallNo60, append(repeat(t, 2, 1), repeat(t, 6, 0)...), Kontra, 6},
		{"no 30 missed at 210:30", CallNo30, append(repeat(t, 1, 1), repeat(t, 7, 0)...), Kontra, 7},
		{"black missed by one blank trick", CallBlack, append([]Trick{blank}, repeat(t, 8, 0)...), Kontra, 8},
		{"no 60 made at 210:30", CallNo60, append(repeat(t, 1, 1), repeat(t, 7, 0)...), Re, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Settle(Round{Parties: normalParties, Tricks: tt.tricks, Calls: ladder(tt.upTo)})
			assert.Equal(t, tt.winner, o.Winner)
			assert.Equal(t, tt.value, o.Value, "%v", reasonNames(o))
		})
	}
}

func TestSettleSilentSoloScoresThreefold(t *testing.T) {
	r := Round{
		Parties: []Party{Re, Kontra, Kontra, Kontra},
		Tricks: append(
			repeat(t, 3, 0),
			trick(t, 0, "HA HA SA SA"), // doppelkopf is not counted in a solo
		),
	}
	o := Settle(r)

	assert.Equal(t, Re, o.Winner)
	assert.Equal(t, []string{"won", "no_90", "no_60", "no_30", "black"}, reasonNames(o))
	assert.Equal(t, 5, o.Value)
	assert.Equal(t, []int{15, -5, -5, -5}, o.Scores)
}

func TestSettleSoloLossHasNoElderBonus(t *testing.T) {
	r := Round{
		Parties: []Party{Re, Kontra, Kontra, Kontra},
		Tricks:  append(repeat(t, 3, 0), repeat(t, 5, 1)...), // re 90, kontra 150
	}
	o := Settle(r)

	assert.Equal(t, Kontra, o.Winner)
	assert.Equal(t, []string{"won"}, reasonNames(o))
	assert.Equal(t, []int{-3, 1, 1, 1}, o.Scores)
}

func TestSettleLoserExtrasReduceValue(t *testing.T) {
	r := Round{
		Parties: normalParties,
		Tricks: append(
			append(repeat(t, 3, 0), trick(t, 0, "DA DA DK DK")), // re 120, fox caught by re
			repeat(t, 4, 1)...,
		),
	}
	o := Settle(r)

	assert.Equal(t, Kontra, o.Winner)
	require.Len(t, o.Reasons, 3)
	assert.Equal(t, Reason{Name: "fox_caught", Party: Re, Points: -1}, o.Reasons[2])
	assert.Equal(t, 1, o.Value)
	assert.Equal(t, []int{-1, 1, -1, 1}, o.Scores)
}

func TestSettleCharlie(t *testing.T) {
	r := Round{
		Parties: normalParties,
		Tricks:  append(repeat(t, 5, 0), trick(t, 0, "CJ DK DK D9")),
	}
	o := Settle(r)

	assert.Equal(t, Re, o.Winner)
	assert.Contains(t, o.Reasons, Reason{Name: "charlie", Party: Re, Points: 1})
}

func TestCheckCall(t *testing.T) {
	tests := []struct {
		name     string
		call     CallType
		party    Party
		played   int
		declared []Declared
		ok       bool
	}{
		{"re by re party", CallRe, Re, 0, nil, true},
		{"re after first card", CallRe, Re, 1, nil, true},
		{"re too late", CallRe, Re, 2, nil, false},
		{"re by kontra party", CallRe, Kontra, 0, nil, false},
		{"kontra by re party", CallKontra, Re, 0, nil, false},
		{"duplicate", CallKontra, Kontra, 0, []Declared{{Kontra, CallKontra}}, false},
		{"no 90 without re", CallNo90, Re, 0, nil, false},
		{"no 90 after re", CallNo90, Re, 2, []Declared{{Re, CallRe}}, true},
		{"no 90 after opponent call only", CallNo90, Re, 0, []Declared{{Kontra, CallKontra}}, false},
		{"no 60 skips no 90", CallNo60, Kontra, 0, []Declared{{Kontra, CallKontra}}, false},
		{"no 60 in order", CallNo60, Kontra, 3, []Declared{{Kontra, CallKontra}, {Kontra, CallNo90}}, true},
		{"black too late", CallBlack, Re, 6, []Declared{{Re, CallRe}, {Re, CallNo90}, {Re, CallNo60}, {Re, CallNo30}}, false},
		{"unknown", CallType("SOLO"), Re, 0, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCall(tt.call, tt.party, tt.played, tt.declared)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
