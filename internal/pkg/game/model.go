package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidMove    = errors.New("invalid move")
	ErrInvalidOutcome = errors.New("invalid outcome")
)

// Move is the wire value the contracts accept: 1, 2 or 3.
type Move uint8

const (
	MoveRock     Move = 1
	MovePaper    Move = 2
	MoveScissors Move = 3
)

var Moves = []Move{MoveRock, MovePaper, MoveScissors}

func (m Move) Valid() bool {
	return m >= MoveRock && m <= MoveScissors
}

func (m Move) String() string {
	switch m {
	case MoveRock:
		return "Rock"
	case MovePaper:
		return "Paper"
	case MoveScissors:
		return "Scissors"
	default:
		return "?"
	}
}

func (m Move) Letter() string {
	switch m {
	case MoveRock:
		return "r"
	case MovePaper:
		return "p"
	case MoveScissors:
		return "s"
	default:
		return ""
	}
}

func MoveFromUint8(n uint8) (Move, error) {
	m := Move(n)
	if !m.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMove, n)
	}

	return m, nil
}

func MoveFromLetter(letter string) (Move, error) {
	switch strings.ToLower(strings.TrimSpace(letter)) {
	case "r":
		return MoveRock, nil
	case "p":
		return MovePaper, nil
	case "s":
		return MoveScissors, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMove, letter)
	}
}

// ParseMove accepts a letter ("r"), a label ("rock", any case) or a wire digit ("1").
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		return MoveFromUint8(uint8(n))
	}

	for _, m := range Moves {
		if s == strings.ToLower(m.String()) {
			return m, nil
		}
	}

	return MoveFromLetter(s)
}

func (m Move) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMove, uint8(m))
	}

	return []byte(m.String()), nil
}

func (m *Move) UnmarshalText(text []byte) error {
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

type Outcome string

const (
	OutcomeWin  Outcome = "Win"
	OutcomeLose Outcome = "Lose"
	OutcomeDraw Outcome = "Draw"

	OutcomeWon     Outcome = "WON"
	OutcomeLost    Outcome = "LOST"
	OutcomeDrawPvP Outcome = "DRAW"
)

// ParseHouseOutcome maps the result string of a GameResult event.
func ParseHouseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeWin, OutcomeLose, OutcomeDraw:
		return Outcome(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
}

func (o Outcome) IsWin() bool {
	return o == OutcomeWin || o == OutcomeWon
}

func (o Outcome) IsLoss() bool {
	return o == OutcomeLose || o == OutcomeLost
}

func (o Outcome) IsDraw() bool {
	return o == OutcomeDraw || o == OutcomeDrawPvP
}
