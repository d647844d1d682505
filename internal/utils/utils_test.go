package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	if got := AtoiDefault("42", 7); got != 42 {
		t.Fatalf("got %d", got)
	}
	if got := AtoiDefault("", 7); got != 7 {
		t.Fatalf("got %d", got)
	}
	if got := AtoiDefault("notanumber", 7); got != 7 {
		t.Fatalf("got %d", got)
	}
	if got := AtoiDefault("-3", 7); got != -3 {
		t.Fatalf("got %d", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("hi", 5); got != "hi" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("hi", 0); got != "hi" {
		t.Fatalf("got %q", got)
	}
}
