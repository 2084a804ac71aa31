package models

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	// DefaultOrderPrefix starts every order code.
	DefaultOrderPrefix = "KKMT"

	orderCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	orderCodeDigits  = "0123456789"
)

var orderCodePattern = regexp.MustCompile(`^[A-Z]{4}[A-Z]{3}[0-9]{3}$`)

// GenerateOrderCode returns prefix + 3 random letters + 3 random digits.
// intn may be nil, in which case math/rand/v2 is used.
func GenerateOrderCode(prefix string, intn func(n int) int) string {
	if prefix == "" {
		prefix = DefaultOrderPrefix
	}
	if intn == nil {
		intn = rand.IntN
	}

	var b strings.Builder
	b.Grow(len(prefix) + 6)
	b.WriteString(prefix)
	for i := 0; i < 3; i++ {
		b.WriteByte(orderCodeLetters[intn(len(orderCodeLetters))])
	}
	for i := 0; i < 3; i++ {
		b.WriteByte(orderCodeDigits[intn(len(orderCodeDigits))])
	}
	return b.String()
}

// ValidOrderCode reports whether code has the order code shape.
func ValidOrderCode(code string) bool {
	return orderCodePattern.MatchString(code)
}
