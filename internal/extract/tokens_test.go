package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindTime(t *testing.T) {
	cases := []struct {
		text   string
		expect string
		ok     bool
	}{
		{text: "Tee time 7:30 AM - 18 holes", expect: "7:30 AM", ok: true},
		{text: "2:15pm", expect: "2:15pm", ok: true},
		{text: "at 11:05 p.m. tonight", expect: "11:05 p.m.", ok: true},
		{text: "07:08 Am", expect: "07:08 Am", ok: true},
		{text: "17:30 PM", ok: false},
		{text: "13:00", ok: false},
		{text: "7:30 amazing", ok: false},
		{text: "no times here", ok: false},
	}
	for _, test := range cases {
		token, ok := FindTime(test.text)
		require.Equal(t, test.ok, ok, test.text)
		require.Equal(t, test.expect, token, test.text)
	}
}

func TestFindPrice(t *testing.T) {
	cases := []struct {
		text   string
		expect int
		ok     bool
	}{
		{text: "$52", expect: 52, ok: true},
		{text: "Green fee $ 68.00", expect: 68, ok: true},
		{text: "$52.50 w/ cart", expect: 53, ok: true},
		{text: "$52.49", expect: 52, ok: true},
		{text: "$1,200.00", expect: 1200, ok: true},
		{text: "52 dollars", ok: false},
		// oversized amounts are not prices, never read a prefix of them
		{text: "Green fee $12345", ok: false},
	}
	for _, test := range cases {
		price, ok := FindPrice(test.text)
		require.Equal(t, test.ok, ok, test.text)
		require.Equal(t, test.expect, price, test.text)
	}

	require.Equal(t, []int{52, 68, 9}, FindPrices("$52 then $68 and $9.10"))
}

func TestFindPlayersAndHoles(t *testing.T) {
	require.Equal(t, 4, FindPlayers("1 - 4 Players"))
	require.Equal(t, 3, FindPlayers("up to 3 golfers"))
	require.Equal(t, 2, FindPlayers("2 players"))
	require.Equal(t, 4, FindPlayers("2-4 players"))
	require.Equal(t, 0, FindPlayers("open slot"))

	require.Equal(t, 9, FindHoles("9 Holes"))
	require.Equal(t, 18, FindHoles("18-hole round"))
	require.Equal(t, 0, FindHoles("back nine"))

	require.True(t, HasCart("Riding CART included"))
	require.False(t, HasCart("walking only"))
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "7:30 AM $52", CleanText("  7:30 AM \n\t $52 "))
}
