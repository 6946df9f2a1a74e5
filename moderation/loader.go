package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
)

//go:embed words/*.txt
var wordFiles embed.FS

// Wordlists is the deduplicated union of the embedded censored words
// plus the detected language of each file, reported at startup.
type Wordlists struct {
	Words     []string
	Languages []string
}

// LoadWordlists reads every embedded wordlist. One word per line,
// blank lines and '#' comments skipped.
func LoadWordlists() (Wordlists, error) {
	entries, err := wordFiles.ReadDir("words")
	if err != nil {
		return Wordlists{}, err
	}

	seen := make(map[string]struct{})
	var result Wordlists
	for _, entry := range entries {
		data, err := wordFiles.ReadFile("words/" + entry.Name())
		if err != nil {
			return Wordlists{}, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		var fileWords []string
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			fileWords = append(fileWords, word)
		}
		if err := scanner.Err(); err != nil {
			return Wordlists{}, err
		}

		result.Words = append(result.Words, fileWords...)
		lang := whatlanggo.DetectLang(strings.Join(fileWords, " "))
		result.Languages = append(result.Languages, whatlanggo.LangToString(lang))
	}
	return result, nil
}
