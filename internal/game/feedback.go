// internal/game/feedback.go
//
// Guess evaluation and the pure presentation helpers built on it.

package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Score colors guess against target.
//
// Exact positions are marked first and the unmatched target letters form a
// per-letter budget. Each remaining guess letter spends one unit of its
// budget to become Present; once a letter's budget is empty, further copies
// are Absent. Inputs are assumed already validated as lowercase a-z words of
// equal length; any other byte is scored Absent.
func Score(target, guess string) []Mark {
	n := len(guess)
	res := make([]Mark, n)

	// Letter budget for the non‑correct positions (a–z).
	var counts [26]int

	for i := 0; i < n; i++ {
		if i < len(target) && guess[i] == target[i] {
			res[i] = MarkCorrect
		} else if i < len(target) {
			if j := idx(target[i]); j >= 0 {
				counts[j]++
			}
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkCorrect {
			continue
		}
		if j := idx(guess[i]); j >= 0 && counts[j] > 0 {
			res[i] = MarkPresent
			counts[j]--
		} else {
			res[i] = MarkAbsent
		}
	}
	return res
}

// Solved returns true if every mark is Correct.
func Solved(marks []Mark) bool {
	if len(marks) == 0 {
		return false
	}
	for _, m := range marks {
		if m != MarkCorrect {
			return false
		}
	}
	return true
}

// Keyboard folds all guesses into the best mark seen per letter, keyed by
// the single-letter string. Letters never guessed are absent from the map.
func Keyboard(target string, guesses []string) map[string]Mark {
	out := make(map[string]Mark)
	for _, g := range guesses {
		for i, m := range Score(target, g) {
			k := g[i : i+1]
			if rank(m) > rank(out[k]) {
				out[k] = m
			}
		}
	}
	return out
}

// ShareGrid renders the spoiler-free result block players paste into chat:
//
//	Wordle Bot 4/6
//
//	⬛🟨⬛⬛⬛
//	...
//
// Unsolved games show X instead of the guess count.
func ShareGrid(g *Game) string {
	var b strings.Builder
	score := "X"
	if g.Status == StatusWon {
		score = strconv.Itoa(len(g.Guesses))
	}
	fmt.Fprintf(&b, "Wordle Bot %s/%d\n", score, MaxGuesses)
	for _, w := range g.Words() {
		b.WriteString("\n")
		for _, m := range Score(g.Target, w) {
			b.WriteString(tile(m))
		}
	}
	return b.String()
}

func tile(m Mark) string {
	switch m {
	case MarkCorrect:
		return "🟩"
	case MarkPresent:
		return "🟨"
	default:
		return "⬛"
	}
}

func rank(m Mark) int {
	switch m {
	case MarkCorrect:
		return 3
	case MarkPresent:
		return 2
	case MarkAbsent:
		return 1
	default:
		return 0
	}
}

// idx maps a lowercase ASCII letter to 0..25, or -1.
func idx(c byte) int {
	if c < 'a' || c > 'z' {
		return -1
	}
	return int(c - 'a')
}
