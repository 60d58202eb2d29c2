package usecase

import "strings"

const (
	chunkWords   = 400
	chunkOverlap = 20
)

// chunkText splits a document into word-window chunks of size words with the
// given overlap between consecutive windows. Whitespace runs collapse to
// single spaces. Overlap is clamped below size so the window always advances.
func chunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = chunkWords
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := size - overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
