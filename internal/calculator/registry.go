package calculator

import (
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var ErrUnknownParticipant = errors.New("participant not found")

// Registry resolves participant IDs to display metadata. Balances never
// depend on it; it only makes warnings readable.
type Registry interface {
	Lookup(id string) (models.Participant, error)
}

// MapRegistry is an in-memory Registry built from a participant snapshot.
type MapRegistry map[string]models.Participant

func NewRegistry(participants []models.Participant) MapRegistry {
	reg := make(MapRegistry, len(participants))
	for _, p := range participants {
		reg[p.ID] = p
	}
	return reg
}

func (r MapRegistry) Lookup(id string) (models.Participant, error) {
	p, ok := r[id]
	if !ok {
		return models.Participant{}, ErrUnknownParticipant
	}
	return p, nil
}
