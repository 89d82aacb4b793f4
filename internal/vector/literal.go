package vector

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pgvector/pgvector-go"
)

var ErrNonFinite = errors.New("vector contains non-finite value")

// Literal renders v in pgvector's text input form, e.g. "[0.1,0.2]".
// Values use the shortest representation that round-trips a float32.
func Literal(v []float32) string {
	return pgvector.NewVector(v).String()
}

// NullableLiteral returns nil for an empty vector so it is stored as NULL.
// Vectors holding NaN or Inf are rejected, since pgvector cannot store them.
func NullableLiteral(v []float32) (*string, error) {
	if len(v) == 0 {
		return nil, nil
	}
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, fmt.Errorf("element %d: %w", i, ErrNonFinite)
		}
	}
	s := Literal(v)
	return &s, nil
}

func ParseLiteral(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("parse vector literal: malformed %q", truncate(s, 32))
	}
	if strings.TrimSpace(s[1:len(s)-1]) == "" {
		return []float32{}, nil
	}
	var v pgvector.Vector
	if err := v.Scan(s); err != nil {
		return nil, fmt.Errorf("parse vector literal: %w", err)
	}
	return v.Slice(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
