package server

import "sort"

type leaderboardEntry struct {
	AnonymousID  string  `json:"anonymousId"`
	DisplayName  string  `json:"displayName"`
	Outfit       string  `json:"outfit"`
	AverageScore float64 `json:"averageScore"`
	VoteCount    int     `json:"voteCount"`
}

// buildLeaderboard ranks outfits by average score, then vote count, then id.
func buildLeaderboard(event Event) []leaderboardEntry {
	totals := make(map[string]int)
	counts := make(map[string]int)
	for _, vote := range event.Votes {
		totals[vote.OwnerID] += vote.Score
		counts[vote.OwnerID]++
	}
	entries := make([]leaderboardEntry, 0, len(event.Participants))
	for _, p := range event.Participants {
		if p.Outfit == "" {
			continue
		}
		entry := leaderboardEntry{
			AnonymousID: p.ID,
			DisplayName: p.DisplayName,
			Outfit:      p.Outfit,
			VoteCount:   counts[p.ID],
		}
		if entry.VoteCount > 0 {
			entry.AverageScore = float64(totals[p.ID]) / float64(entry.VoteCount)
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AverageScore != entries[j].AverageScore {
			return entries[i].AverageScore > entries[j].AverageScore
		}
		if entries[i].VoteCount != entries[j].VoteCount {
			return entries[i].VoteCount > entries[j].VoteCount
		}
		return entries[i].AnonymousID < entries[j].AnonymousID
	})
	return entries
}

// leaderID is the top voted outfit owner, or the first participant when no
// votes were cast.
func leaderID(event Event) string {
	board := buildLeaderboard(event)
	if len(board) > 0 && board[0].VoteCount > 0 {
		return board[0].AnonymousID
	}
	if len(event.Participants) > 0 {
		return event.Participants[0].ID
	}
	return ""
}
