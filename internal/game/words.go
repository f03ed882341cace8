package game

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
)

// WordList хранит словарь для раздачи досок.
// Потокобезопасен: несколько комнат могут тянуть слова одновременно.
type WordList struct {
	mu    sync.Mutex
	words []string
}

// LoadWordList reads a word list from path, one word per line.
// Blank lines and lines starting with '#' are skipped; words containing the
// field separator are rejected because they cannot travel the wire.
func LoadWordList(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list %s: %w", path, err)
	}
	defer f.Close()

	var words []string
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if strings.Contains(w, "|") {
			return nil, fmt.Errorf("word list %s: word %q contains the field separator", path, w)
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading word list %s: %w", path, err)
	}
	return &WordList{words: words}, nil
}

// NewWordList builds a list from an in-memory slice (tests, embedded defaults).
func NewWordList(words []string) *WordList {
	return &WordList{words: words}
}

// Len returns the number of distinct words available.
func (wl *WordList) Len() int {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	return len(wl.words)
}

// Draw возвращает n уникальных случайных слов. Если словарь короче,
// недостающие места добиваются плейсхолдерами WORD<i> — раздача
// никогда не падает из-за бедного словаря.
func (wl *WordList) Draw(n int) []string {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	idx := rand.Perm(len(wl.words))
	out := make([]string, 0, n)
	for _, i := range idx {
		if len(out) == n {
			break
		}
		out = append(out, wl.words[i])
	}
	for i := len(out); i < n; i++ {
		out = append(out, fmt.Sprintf("WORD%d", i+1))
	}
	return out
}
