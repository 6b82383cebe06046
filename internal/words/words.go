// internal/words/words.go
//
// Word pools for the game engine.
//
// Responsibilities:
//   - Load the answer pool and the dictionary pool from configured files or
//     fall back to the lists embedded in the assets package.
//   - Answer exact-membership queries over answers ∪ dictionary.
//   - Draw uniformly random answers.
//
// Word Lists:
//   - "answers":    hidden targets are drawn from here only.
//   - "dictionary": accepted guesses that are never chosen as targets.
//
// Load behavior:
//   1. AnswersFile and AllowedFile both set: read each file.
//   2. Only AllowedFile set: use it for both pools.
//   3. Neither set: embedded defaults.
//
// A Set is immutable after construction and safe for concurrent use.

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"

	"github.com/robalobadob/wordle/apps/bot-engine/assets"
)

// WordLength is the only word length the game accepts.
const WordLength = 5

// ErrEmptyAnswers is returned when no usable answer survives loading.
var ErrEmptyAnswers = errors.New("words: answers list is empty")

// Set is the membership oracle over the two pools.
type Set struct {
	answers  []string            // deduplicated, load order
	isAnswer map[string]struct{} // same words as answers
	valid    map[string]struct{} // answers ∪ dictionary
}

// Sources names optional on-disk word lists.
type Sources struct {
	AnswersFile string
	AllowedFile string
}

// New builds a Set from raw lists. Entries are trimmed, lowercased and
// filtered to 5-letter a–z words; every answer is also a valid guess.
func New(answers, dictionary []string) (*Set, error) {
	ans := normalize(answers)
	if len(ans) == 0 {
		return nil, ErrEmptyAnswers
	}
	s := &Set{
		isAnswer: make(map[string]struct{}, len(ans)),
		valid:    make(map[string]struct{}, len(ans)+len(dictionary)),
	}
	for _, w := range ans {
		if _, dup := s.isAnswer[w]; dup {
			continue
		}
		s.isAnswer[w] = struct{}{}
		s.valid[w] = struct{}{}
		s.answers = append(s.answers, w)
	}
	for _, w := range normalize(dictionary) {
		s.valid[w] = struct{}{}
	}
	return s, nil
}

// Load reads word pools according to src (see package doc).
func Load(src Sources) (*Set, error) {
	switch {
	case src.AnswersFile != "" && src.AllowedFile != "":
		ans, err := readWordFile(src.AnswersFile)
		if err != nil {
			return nil, err
		}
		dict, err := readWordFile(src.AllowedFile)
		if err != nil {
			return nil, err
		}
		return New(ans, dict)

	case src.AllowedFile != "":
		all, err := readWordFile(src.AllowedFile)
		if err != nil {
			return nil, err
		}
		return New(all, nil)

	default:
		ans, err := assets.AnswersList()
		if err != nil {
			return nil, err
		}
		dict, err := assets.AllowedList()
		if err != nil {
			return nil, err
		}
		return New(ans, dict)
	}
}

// IsValid reports whether s is an acceptable guess: exactly five letters
// and, case-insensitively, a member of either pool.
func (s *Set) IsValid(w string) bool {
	if len(w) != WordLength {
		return false
	}
	_, ok := s.valid[strings.ToLower(w)]
	return ok
}

// IsAnswer reports whether w belongs to the answer pool.
func (s *Set) IsAnswer(w string) bool {
	_, ok := s.isAnswer[strings.ToLower(w)]
	return ok
}

// RandomAnswer returns a cryptographically random answer. Each call draws
// again; nothing is cached.
func (s *Set) RandomAnswer() string {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(s.answers))))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(err)
	}
	return s.answers[nBig.Int64()]
}

// Counts returns pool sizes: (answers, answers ∪ dictionary).
func (s *Set) Counts() (answersCount int, allowedCount int) {
	return len(s.answers), len(s.valid)
}

// readWordFile loads whitespace-separated words from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, strings.Fields(line)...)
	}
	return out, sc.Err()
}

// normalize lowercases and keeps only valid 5-letter alphabetic words.
func normalize(list []string) []string {
	out := make([]string, 0, len(list))
	for _, w := range list {
		w = strings.TrimSpace(strings.ToLower(w))
		if len(w) == WordLength && isAlpha(w) {
			out = append(out, w)
		}
	}
	return out
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
