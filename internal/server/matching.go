package server

import (
	"math"
	"sort"
	"time"
)

// compatibility is the share of equal answers among questions both answered,
// as a rounded percentage.
func compatibility(a, b Participant) int {
	shared, equal := 0, 0
	for questionID, answer := range a.Responses {
		other, ok := b.Responses[questionID]
		if !ok {
			continue
		}
		shared++
		if other == answer {
			equal++
		}
	}
	if shared == 0 {
		return 0
	}
	return int(math.Round(100 * float64(equal) / float64(shared)))
}

type candidatePair struct {
	i, j  int
	score int
}

// pairParticipants pairs the highest-scoring couples first. With an odd count
// the remaining participant gets a wild card with leaderID (or the first
// other participant), who keeps their primary match.
func pairParticipants(participants []Participant, leaderID string, newID func() string, at time.Time) []Match {
	if len(participants) < 2 {
		return nil
	}
	pairs := make([]candidatePair, 0, len(participants)*(len(participants)-1)/2)
	for i := 0; i < len(participants); i++ {
		for j := i + 1; j < len(participants); j++ {
			pairs = append(pairs, candidatePair{i: i, j: j, score: compatibility(participants[i], participants[j])})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		if pairs[a].score != pairs[b].score {
			return pairs[a].score > pairs[b].score
		}
		if pairs[a].i != pairs[b].i {
			return pairs[a].i < pairs[b].i
		}
		return pairs[a].j < pairs[b].j
	})

	paired := make([]bool, len(participants))
	matches := make([]Match, 0, len(participants)/2+1)
	for _, pair := range pairs {
		if paired[pair.i] || paired[pair.j] {
			continue
		}
		paired[pair.i] = true
		paired[pair.j] = true
		matches = append(matches, Match{
			ID:                 newID(),
			ParticipantID:      participants[pair.i].ID,
			PartnerID:          participants[pair.j].ID,
			CompatibilityScore: pair.score,
			CreatedAt:          at,
		})
	}

	for i, p := range participants {
		if paired[i] {
			continue
		}
		partner := -1
		for j, other := range participants {
			if j != i && other.ID == leaderID {
				partner = j
				break
			}
		}
		if partner < 0 {
			for j := range participants {
				if j != i {
					partner = j
					break
				}
			}
		}
		matches = append(matches, Match{
			ID:                 newID(),
			ParticipantID:      p.ID,
			PartnerID:          participants[partner].ID,
			CompatibilityScore: compatibility(p, participants[partner]),
			IsWildCard:         true,
			CreatedAt:          at,
		})
	}
	return matches
}
