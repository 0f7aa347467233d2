package httpstatus

import "testing"

func TestText(t *testing.T) {
	if got := Text(200); got != "OK" {
		t.Fatalf("expected OK, got %q", got)
	}
	if got := Text(418); got != "I'm a teapot" {
		t.Fatalf("expected teapot, got %q", got)
	}
	if got := Text(999); got != "Unknown" {
		t.Fatalf("expected Unknown for unregistered code, got %q", got)
	}
}

func TestLabel(t *testing.T) {
	if got := Label(404); got != "404 (Not Found)" {
		t.Fatalf("expected exact histogram key, got %q", got)
	}
	if got := Label(999); got != "999 (Unknown)" {
		t.Fatalf("expected Unknown label, got %q", got)
	}
}
