// assets/embed.go
//
// Embedded static data shipped with the binary:
//   - answers.txt / allowed.txt: default word pools.
//   - sql/*.sql: SQLite schema migrations, applied in lexical order.

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed allowed.txt answers.txt sql/*.sql
var FS embed.FS

// readWords splits whitespace-separated words from an embedded file,
// skipping '#' comment lines. Entries are lowercased; length filtering
// is left to the words package.
func readWords(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, w := range strings.Fields(line) {
			out = append(out, strings.ToLower(w))
		}
	}
	return out, sc.Err()
}

// AnswersList returns the embedded answer pool.
func AnswersList() ([]string, error) {
	return readWords("answers.txt")
}

// AllowedList returns the embedded dictionary pool (guess-only words).
func AllowedList() ([]string, error) {
	return readWords("allowed.txt")
}

// Migrations exposes the embedded sql directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// sql/ is embedded at build time; a miss here is a build defect.
		panic(err)
	}
	return sub
}
