package providers

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota": ErrorQuota,
		"ollama embedding error 429: slow down": ErrorRate,
		"dial tcp 127.0.0.1:11434: connect: connection refused": ErrorTransient,
		"context deadline exceeded (Client.Timeout exceeded)":   ErrorTransient,
		"ollama embedding error 404: model not found":           ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
	if got := ClassifyError(nil); got != "" {
		t.Fatalf("nil error classified as %s", got)
	}
}
