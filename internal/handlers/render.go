package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/muscla87/cucu-telegram-game/internal/engine"
	"github.com/muscla87/cucu-telegram-game/internal/game"
)

const helpText = `Cucu: everybody gets one card, the lowest card loses.

/join - sit down at the table
/startgame - deal the cards (2 players or more)
/card - get your card in a private message
/keep - keep your card
/swap - swap your card with the next player (the last player swaps with the deck)
/status - who is playing and whose turn it is
/losers - who would lose if the game ended now
/newgame - clear the table once a game is over

A 10 blocks a swap and its holder sits out the turn. Players holding a 9 are skipped.`

func mention(username string) string {
	return "@" + username
}

func renderRoster(roster []string) string {
	names := make([]string, len(roster))
	for i, u := range roster {
		names[i] = mention(u)
	}
	return fmt.Sprintf("Players (%d): %s", len(roster), strings.Join(names, ", "))
}

func renderStarted(first string) string {
	return fmt.Sprintf("Cards are dealt! Use /card to see yours.\n%s, your turn: /keep or /swap", mention(first))
}

func renderResult(res engine.ActionResult) string {
	if res.Kind == engine.ResultShowdown {
		return "Showdown!\n" + renderLosers(res.Losers) + "\nStart over with /newgame"
	}

	var b strings.Builder
	actor := mention(res.ActingPlayer.Username)
	switch res.Kind {
	case engine.ResultKept:
		fmt.Fprintf(&b, "%s keeps their card.", actor)
	case engine.ResultSwapped:
		fmt.Fprintf(&b, "%s swapped cards.", actor)
	case engine.ResultBlocked:
		fmt.Fprintf(&b, "%s tried to swap with a 10. Blocked! The 10 sits this turn out.", actor)
	case engine.ResultSkipped:
		fmt.Fprintf(&b, "%s jumped over the 9s and swapped.", actor)
	}
	fmt.Fprintf(&b, "\n%s, your turn: /keep or /swap", mention(res.NextPlayer.Username))
	return b.String()
}

func renderLosers(losers []engine.PlayerState) string {
	if len(losers) == 0 {
		return "Nobody loses."
	}
	parts := make([]string, len(losers))
	for i, l := range losers {
		if l.CardValue != nil {
			parts[i] = fmt.Sprintf("%s (%d)", mention(l.Username), *l.CardValue)
		} else {
			parts[i] = mention(l.Username)
		}
	}
	return "Losers: " + strings.Join(parts, ", ")
}

func renderStatus(st game.Status) string {
	if len(st.Players) == 0 {
		return "No players yet. Use /join to sit down."
	}
	var b strings.Builder
	switch st.Phase {
	case engine.PhaseSetup:
		b.WriteString("Waiting for players. ")
	case engine.PhaseInProgress:
		b.WriteString("Game in progress. ")
	case engine.PhaseEnd:
		b.WriteString("Game over. ")
	}
	b.WriteString(renderRoster(st.Players))
	if st.Current != "" {
		fmt.Fprintf(&b, "\nTurn: %s", mention(st.Current))
	}
	return b.String()
}

// renderError turns a rejected command into a reply. ok is false for
// unexpected errors, which should be logged.
func renderError(err error) (msg string, ok bool) {
	switch {
	case errors.Is(err, engine.ErrNotYourTurn):
		return "Wait for your turn.", true
	case errors.Is(err, engine.ErrDuplicatePlayer):
		return "You are already at the table.", true
	case errors.Is(err, engine.ErrInsufficientPlayers):
		return "At least 2 players are needed. Use /join.", true
	case errors.Is(err, engine.ErrInvalidPhase):
		return "That can't be done right now. Check /status.", true
	case errors.Is(err, engine.ErrUnknownAction):
		return "Use /keep or /swap.", true
	}
	return "Something went wrong, please try again.", false
}
