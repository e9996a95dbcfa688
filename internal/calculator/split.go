package calculator

import (
	"errors"

	"github.com/mmynk/splitledger/internal/money"
)

var ErrNoParticipants = errors.New("expense has no participants")

// Share is the result of splitting one expense equally.
type Share struct {
	// PerParticipant is what every participant is charged, truncated to the
	// currency's minor unit.
	PerParticipant money.Money

	// Residue is total - PerParticipant*Participants: at most Participants-1
	// minor units. It is reported, not charged to anyone.
	Residue money.Money

	Participants int
}

// SplitEqually divides total among n participants.
// Example: 100.00 among 3 is 33.33 each with 0.01 residue.
func SplitEqually(total money.Money, n int, currency money.Currency) (Share, error) {
	if n <= 0 {
		return Share{}, ErrNoParticipants
	}
	per, residue := currency.Split(total, n)
	return Share{PerParticipant: per, Residue: residue, Participants: n}, nil
}
