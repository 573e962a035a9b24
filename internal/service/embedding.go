package service

import (
	"strings"
	"unicode"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/pantry-chef/backend/internal/models"
)

// GenerateEmbedding returns a cheap deterministic text vector used to order
// search results on postgres: word count, vowel share and consonant share
// (both scaled to 0..100).
func GenerateEmbedding(text string) pgvector.Vector {
	text = strings.ToLower(text)
	var vowels, consonants, letters float32
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if strings.ContainsRune("aeiou", r) {
			vowels++
		} else {
			consonants++
		}
	}

	vec := make([]float32, models.EmbeddingDimensions)
	vec[0] = float32(len(strings.Fields(text)))
	if letters > 0 {
		vec[1] = 100 * vowels / letters
		vec[2] = 100 * consonants / letters
	}
	return pgvector.NewVector(vec)
}
