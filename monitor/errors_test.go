package monitor

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifySourceError(t *testing.T) {
	se := &SourceError{Kind: KindInvalidToken, Op: "liveChatMessages.list", Err: errors.New("pageTokenInvalid")}
	if got := Classify(se); got != KindInvalidToken {
		t.Fatalf("Classify = %v", got)
	}
	// classification survives wrapping
	wrapped := fmt.Errorf("fetch: %w", se)
	if got := Classify(wrapped); got != KindInvalidToken {
		t.Fatalf("Classify(wrapped) = %v", got)
	}
}

func TestClassifyPlainError(t *testing.T) {
	if got := Classify(errors.New("something odd")); got != KindUnclassified {
		t.Fatalf("Classify = %v", got)
	}
}

func TestSessionFatal(t *testing.T) {
	cases := []struct {
		kind  ErrorKind
		fatal bool
	}{
		{KindTransient, false},
		{KindInvalidToken, true},
		{KindNotFound, true},
		{KindPermissionDenied, true},
		{KindUnclassified, true},
	}
	for _, c := range cases {
		if got := sessionFatal(c.kind); got != c.fatal {
			t.Errorf("sessionFatal(%v) = %v, want %v", c.kind, got, c.fatal)
		}
	}
}

func TestErrorKindString(t *testing.T) {
	want := map[ErrorKind]string{
		KindTransient:        "transient",
		KindInvalidToken:     "invalid_token",
		KindNotFound:         "not_found",
		KindPermissionDenied: "permission_denied",
		KindUnclassified:     "unclassified",
	}
	for kind, s := range want {
		if kind.String() != s {
			t.Errorf("%d.String() = %q, want %q", kind, kind.String(), s)
		}
	}
}

func TestSourceErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	se := &SourceError{Kind: KindNotFound, Op: "op", Err: inner}
	if !errors.Is(se, inner) {
		t.Fatal("SourceError must unwrap to its cause")
	}
}
