package uaparse

import "testing"

const (
	chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	googlebot     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
	iphoneSafari  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

func TestClassify_Desktop(t *testing.T) {
	f := Classify(chromeWindows)
	if f.BrowserFamily != "Chrome" {
		t.Fatalf("expected Chrome, got %q", f.BrowserFamily)
	}
	if f.OSFamily != "Windows" {
		t.Fatalf("expected Windows, got %q", f.OSFamily)
	}
	if !f.IsPC || f.IsMobile || f.IsTablet || f.IsBot || f.IsTouchCapable {
		t.Fatalf("expected desktop flags only, got %+v", f)
	}
}

func TestClassify_Bot(t *testing.T) {
	f := Classify(googlebot)
	if !f.IsBot {
		t.Fatalf("expected bot flag, got %+v", f)
	}
}

func TestClassify_MobileIsTouchCapable(t *testing.T) {
	f := Classify(iphoneSafari)
	if !f.IsMobile {
		t.Fatalf("expected mobile flag, got %+v", f)
	}
	if !f.IsTouchCapable {
		t.Fatalf("expected touch capable to follow mobile, got %+v", f)
	}
	if f.IsPC {
		t.Fatalf("did not expect PC flag, got %+v", f)
	}
}

func TestClassify_Empty(t *testing.T) {
	if f := Classify("   "); f != (Facets{}) {
		t.Fatalf("expected zero facets for blank input, got %+v", f)
	}
}
