package parser

import (
	"strings"

	"policy-rag/internal/models"
)

// SplitText splits content into chunks of at most maxChars characters, each
// consecutive pair sharing exactly overlapChars characters. Both parameters
// count characters (runes), so a cut never lands inside a multi-byte
// encoding. The final chunk keeps its natural length; trailing text is never
// dropped.
func SplitText(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 || len(content) == 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(content)
	if len(runes) <= maxChars {
		return []string{content}
	}

	step := maxChars - overlapChars
	var chunks []string
	for start := 0; ; start += step {
		end := start + maxChars
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// SplitPassages chunks the extracted pages of one document into passages,
// numbering chunks sequentially across the whole document.
func SplitPassages(filename string, pages []Page, maxChars, overlapChars int) []models.Passage {
	var passages []models.Passage
	chunkID := 0
	for _, page := range pages {
		for _, chunk := range SplitText(page.Text, maxChars, overlapChars) {
			chunkID++
			passages = append(passages, models.Passage{
				Content:        chunk,
				SourceFilename: filename,
				PageNumber:     page.Number,
				ChunkID:        chunkID,
			})
		}
	}
	return passages
}

// JoinPassages reassembles the original text from consecutive passages of a
// single text block by dropping each passage's leading overlap, counted in
// characters.
func JoinPassages(passages []models.Passage, overlapChars int) string {
	var content strings.Builder
	for i, p := range passages {
		text := p.Content
		if i > 0 {
			if runes := []rune(text); len(runes) > overlapChars {
				text = string(runes[overlapChars:])
			}
		}
		content.WriteString(text)
	}
	return content.String()
}
