package urlparse

import "testing"

func TestDecompose_SchemelessURL(t *testing.T) {
	normalized, path, params := Decompose("example.com/widgets?color=red")
	if normalized != "https://example.com/widgets" {
		t.Fatalf("expected https scheme prepended, got %q", normalized)
	}
	if path != "/widgets" {
		t.Fatalf("expected path /widgets, got %q", path)
	}
	if params["color"] != "red" {
		t.Fatalf("expected color=red, got %v", params)
	}
}

func TestDecompose_SchemelessWithEmbeddedURL(t *testing.T) {
	normalized, path, params := Decompose("example.com/r?to=https://x")
	if normalized != "https://example.com/r" {
		t.Fatalf("expected normalization despite embedded scheme, got %q", normalized)
	}
	if path != "/r" {
		t.Fatalf("expected path /r, got %q", path)
	}
	if params["to"] != "https://x" {
		t.Fatalf("expected embedded URL kept as value, got %v", params)
	}
}

func TestDecompose_StripsQueryAndFragment(t *testing.T) {
	normalized, _, _ := Decompose("https://example.com/a?x=1#section")
	if normalized != "https://example.com/a" {
		t.Fatalf("expected query and fragment stripped, got %q", normalized)
	}
}

func TestDecompose_DropsBlankValues(t *testing.T) {
	_, _, params := Decompose("https://example.com/?a=1&b=&c=3")
	if _, ok := params["b"]; ok {
		t.Fatalf("expected blank-valued key dropped, got %v", params)
	}
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %v", params)
	}
}

func TestDecompose_RepeatedKeyKeepsLast(t *testing.T) {
	_, _, params := Decompose("https://example.com/?a=first&a=last")
	if params["a"] != "last" {
		t.Fatalf("expected last value to win, got %q", params["a"])
	}
}

func TestDecompose_Malformed(t *testing.T) {
	normalized, path, params := Decompose("https://exa mple.com/x")
	if normalized != "" || path != "" {
		t.Fatalf("expected empty results for malformed input, got %q %q", normalized, path)
	}
	if params == nil || len(params) != 0 {
		t.Fatalf("expected empty non-nil params, got %v", params)
	}
}

func TestDecompose_Empty(t *testing.T) {
	normalized, path, params := Decompose("")
	if normalized != "" || path != "" || len(params) != 0 {
		t.Fatalf("expected all-empty result, got %q %q %v", normalized, path, params)
	}
}
