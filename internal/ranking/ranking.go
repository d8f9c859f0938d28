// Package ranking assigns competition ranks to (key, total) pairs.
//
// Every call is independent: callers pass the full key universe for one scope
// (global departments, one apartment's classrooms, one apartment's managers).
package ranking

import (
	"fmt"
	"sort"
)

// Mode 排名方式
type Mode string

const (
	// ModeDense 并列不跳号：1,1,2,3
	ModeDense Mode = "dense"
	// ModeCompetition 并列跳号：1,1,3,4
	ModeCompetition Mode = "competition"
)

// ParseMode validates a configured ranking mode. Empty selects ModeDense.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDense:
		return ModeDense, nil
	case ModeCompetition:
		return ModeCompetition, nil
	}
	return "", fmt.Errorf("unknown ranking mode %q", s)
}

// Entry is one group's total within a ranking scope. Totals are <= 0 in practice:
// a higher total means fewer deductions and a better rank.
type Entry[K comparable] struct {
	Key   K
	Total int
}

// Rank dispatches on mode.
func Rank[K comparable](mode Mode, entries []Entry[K]) map[K]int {
	if mode == ModeCompetition {
		return Competition(entries)
	}
	return Dense(entries)
}

// Dense ranks entries by total descending. Equal totals share a rank and the next
// distinct total gets the previous rank plus one, so ranks are exactly 1..K for K
// distinct totals. Keys must be unique.
func Dense[K comparable](entries []Entry[K]) map[K]int {
	sorted := sortByTotal(entries)
	ranks := make(map[K]int, len(sorted))
	rank := 0
	for i, e := range sorted {
		if i == 0 || e.Total != sorted[i-1].Total {
			rank++
		}
		ranks[e.Key] = rank
	}
	return ranks
}

// Competition ranks entries by total descending, advancing the rank by the size of
// each tie group (1,1,3).
func Competition[K comparable](entries []Entry[K]) map[K]int {
	sorted := sortByTotal(entries)
	ranks := make(map[K]int, len(sorted))
	rank := 0
	for i, e := range sorted {
		if i == 0 || e.Total != sorted[i-1].Total {
			rank = i + 1
		}
		ranks[e.Key] = rank
	}
	return ranks
}

func sortByTotal[K comparable](entries []Entry[K]) []Entry[K] {
	sorted := make([]Entry[K], len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total > sorted[j].Total
	})
	return sorted
}
