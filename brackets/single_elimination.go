package brackets

import (
	"fmt"
	"math/bits"
	"math/rand"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/google/uuid"
)

// Shuffler permutes n elements through swap, with the contract of rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

var _ BracketGenerator = (*SingleEliminationGenerator)(nil)

type SingleEliminationGenerator struct {
	shuffle Shuffler
}

// NewSingleEliminationGenerator returns a generator that pairs participants
// after a uniform random permutation.
func NewSingleEliminationGenerator() *SingleEliminationGenerator {
	return &SingleEliminationGenerator{shuffle: rand.Shuffle}
}

// NewSingleEliminationGeneratorWithShuffler is used where pairing must be reproducible.
func NewSingleEliminationGeneratorWithShuffler(shuffle Shuffler) *SingleEliminationGenerator {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &SingleEliminationGenerator{shuffle: shuffle}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// RoundsFor returns ceil(log2(n)) for n >= 2.
func RoundsFor(n int) int {
	if n < 2 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// MatchCountFor returns the number of matches in a bracket for n participants:
// one less than the next power of two.
func MatchCountFor(n int) int {
	if n < 2 {
		return 0
	}
	return (1 << RoundsFor(n)) - 1
}

// GenerateBracket builds every round up front. Matches are returned parents
// first (final, then semi-finals, down to round 1), so each NextMatchID points
// at a match that appears earlier in the slice.
//
// The first `byes` round-1 matches get a single occupant in slot A who is
// already recorded as winner and copied into the linked round-2 slot.
func (g *SingleEliminationGenerator) GenerateBracket(params GenerateBracketParams) ([]*models.Match, error) {
	participants := params.Participants
	n := len(participants)

	if n < MinParticipants {
		return nil, fmt.Errorf("%w: found %d, minimum %d", ErrNotEnoughParticipants, n, MinParticipants)
	}

	seen := make(map[uuid.UUID]struct{}, n)
	for _, p := range participants {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	numRounds := RoundsFor(n)
	bracketSize := 1 << numRounds
	numByes := bracketSize - n

	allMatches := make([]*models.Match, 0, bracketSize-1)
	matchesByRound := make(map[int][]*models.Match, numRounds)

	for round := numRounds; round >= 1; round-- {
		inRound := 1 << (numRounds - round)
		shells := make([]*models.Match, inRound)
		for i := range shells {
			shells[i] = &models.Match{
				ID:           uuid.New(),
				TournamentID: params.TournamentID,
				RoundNumber:  round,
				MatchOrder:   i,
				Version:      1,
			}
		}
		matchesByRound[round] = shells
		allMatches = append(allMatches, shells...)
	}

	for round := 1; round < numRounds; round++ {
		next := matchesByRound[round+1]
		for i, m := range matchesByRound[round] {
			nextID := next[i/2].ID
			m.NextMatchID = &nextID
			m.WinnerToSlotA = i%2 == 0
		}
	}

	shuffled := make([]models.Member, n)
	copy(shuffled, participants)
	g.shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	firstRound := matchesByRound[1]
	participantIdx := 0
	for i, m := range firstRound {
		a := shuffled[participantIdx].ID
		participantIdx++
		m.ParticipantAID = &a

		if i < numByes {
			winner := a
			m.WinnerID = &winner
			continue
		}

		b := shuffled[participantIdx].ID
		participantIdx++
		m.ParticipantBID = &b
	}

	if numRounds > 1 {
		secondRound := matchesByRound[2]
		for i, m := range firstRound {
			if m.WinnerID == nil {
				continue
			}
			secondRound[i/2].PlaceWinner(*m.WinnerID, m.WinnerToSlotA)
		}
	}

	return allMatches, nil
}
