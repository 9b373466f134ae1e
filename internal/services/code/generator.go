package code

import (
	"github.com/codebreakergame/codebreaker-go/internal/dependencies/random"
	"github.com/codebreakergame/codebreaker-go/internal/model"
)

// digits is the full alphabet a secret code draws from. Codes never
// repeat a digit, so the maximum code length is the alphabet size.
const digits = "0123456789"

// Generator produces secret codes of unique random digits
type Generator struct {
	random random.Random
}

// NewGenerator creates a new Generator
func NewGenerator(random random.Random) *Generator {
	return &Generator{random: random}
}

// Generate returns a code of n distinct decimal digits. n must be in
// [1, 10]; anything longer would exhaust the digit alphabet.
func (g *Generator) Generate(n int) (string, error) {
	if n < 1 || n > len(digits) {
		return "", model.ErrCodeLengthInvalid
	}

	// Partial Fisher-Yates over the alphabet: draws exactly n digits
	// with no duplicates and no retry loop.
	pool := []byte(digits)
	for i := 0; i < n; i++ {
		j := i + g.random.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return string(pool[:n]), nil
}
