package solver

import (
	"fmt"
	"strings"
)

// Card identifies one of the 52 cards as rank*4 + suit. This matches the
// solver's chance-card indexing, so a Card doubles as the bit position in
// the PossibleCards bitmask.
type Card uint8

// Suit constants
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

// Rank constants (0-12 for 2-A)
const (
	Two uint8 = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const (
	// NumCards is the deck size; chance masks use the low 52 bits.
	NumCards = 52

	// FullDeck has one bit set per card.
	FullDeck uint64 = (1 << NumCards) - 1
)

// NewCard creates a card from rank and suit.
func NewCard(rank, suit uint8) Card {
	return Card(rank<<2 | suit)
}

// Rank returns the rank of the card (0-12).
func (c Card) Rank() uint8 {
	return uint8(c) >> 2
}

// Suit returns the suit of the card (0-3).
func (c Card) Suit() uint8 {
	return uint8(c) & 3
}

// Mask returns the card's bit in a 52-bit card mask.
func (c Card) Mask() uint64 {
	return 1 << uint64(c)
}

// String returns the string representation (e.g., "As", "Kh").
func (c Card) String() string {
	ranks := "23456789TJQKA"
	suits := "cdhs"

	rank := c.Rank()
	suit := c.Suit()

	if rank > 12 || suit > 3 {
		return "??"
	}

	return string(ranks[rank]) + string(suits[suit])
}

// ParseCard parses a string like "As" into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card string: %s", s)
	}

	var rank uint8
	switch s[0] {
	case '2':
		rank = Two
	case '3':
		rank = Three
	case '4':
		rank = Four
	case '5':
		rank = Five
	case '6':
		rank = Six
	case '7':
		rank = Seven
	case '8':
		rank = Eight
	case '9':
		rank = Nine
	case 'T', 't':
		rank = Ten
	case 'J', 'j':
		rank = Jack
	case 'Q', 'q':
		rank = Queen
	case 'K', 'k':
		rank = King
	case 'A', 'a':
		rank = Ace
	default:
		return 0, fmt.Errorf("invalid rank: %c", s[0])
	}

	var suit uint8
	switch s[1] {
	case 'c', 'C':
		suit = Clubs
	case 'd', 'D':
		suit = Diamonds
	case 'h', 'H':
		suit = Hearts
	case 's', 'S':
		suit = Spades
	default:
		return 0, fmt.Errorf("invalid suit: %c", s[1])
	}

	return NewCard(rank, suit), nil
}

// ParseBoard parses a run of card strings like "9d5s3d" or "9d 5s 3d".
func ParseBoard(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid board string: %s", s)
	}

	cards := make([]Card, 0, len(s)/2)
	seen := uint64(0)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		if seen&c.Mask() != 0 {
			return nil, fmt.Errorf("duplicate card on board: %s", c)
		}
		seen |= c.Mask()
		cards = append(cards, c)
	}
	return cards, nil
}

// BoardString formats a board as space-separated cards ("9d 5s 3d").
func BoardString(board []Card) string {
	parts := make([]string, len(board))
	for i, c := range board {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// BoardMask returns the combined card mask of a board.
func BoardMask(board []Card) uint64 {
	var mask uint64
	for _, c := range board {
		mask |= c.Mask()
	}
	return mask
}

// HolePair is one private two-card combination in a range.
type HolePair [2]Card

// String returns the concatenated card form ("AhAd").
func (h HolePair) String() string {
	return h[0].String() + h[1].String()
}

// Mask returns the combined card mask of the pair.
func (h HolePair) Mask() uint64 {
	return h[0].Mask() | h[1].Mask()
}

// ParseHolePair parses a four-character string like "AhAd".
func ParseHolePair(s string) (HolePair, error) {
	if len(s) != 4 {
		return HolePair{}, fmt.Errorf("invalid hole pair string: %s", s)
	}
	c1, err := ParseCard(s[:2])
	if err != nil {
		return HolePair{}, err
	}
	c2, err := ParseCard(s[2:])
	if err != nil {
		return HolePair{}, err
	}
	if c1 == c2 {
		return HolePair{}, fmt.Errorf("hole pair repeats a card: %s", s)
	}
	return HolePair{c1, c2}, nil
}

// ParseRange parses a comma-separated list of hole pairs like
// "AsAh,KdKc". Duplicate combos are rejected.
func ParseRange(s string) ([]HolePair, error) {
	var holes []HolePair
	seen := make(map[HolePair]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := ParseHolePair(part)
		if err != nil {
			return nil, err
		}
		if h[0] > h[1] {
			h[0], h[1] = h[1], h[0]
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate combo in range: %s", part)
		}
		seen[h] = true
		holes = append(holes, h)
	}
	if len(holes) == 0 {
		return nil, fmt.Errorf("empty range: %q", s)
	}
	return holes, nil
}

// HolesToStrings formats a range's hole pairs in order.
func HolesToStrings(holes []HolePair) []string {
	out := make([]string, len(holes))
	for i, h := range holes {
		out[i] = h.String()
	}
	return out
}
