package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"city":"Berlin","regionName":"Berlin","country":"Germany"}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second)
	got, err := r.Resolve(context.Background(), "93.184.216.34")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "Berlin, Berlin, Germany" {
		t.Fatalf("expected joined location, got %q", got)
	}
	if gotPath != "/93.184.216.34" {
		t.Fatalf("expected ip in request path, got %q", gotPath)
	}
}

func TestResolve_ForwardedChainUsesFirstHop(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"city":"","regionName":"","country":"Germany"}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second)
	got, err := r.Resolve(context.Background(), "1.2.3.4, 10.0.0.1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if gotPath != "/1.2.3.4" {
		t.Fatalf("expected only the first hop looked up, got %q", gotPath)
	}
	if got != "Germany" {
		t.Fatalf("expected empty segments elided, got %q", got)
	}
}

func TestResolve_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/empty":
			w.Write([]byte(`{"city":"","regionName":"","country":""}`))
		default:
			w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	r := NewResolver(srv.URL, time.Second)
	for _, ip := range []string{"bad", "empty", "garbage", ""} {
		if _, err := r.Resolve(context.Background(), ip); err == nil {
			t.Fatalf("expected error for %q lookup", ip)
		}
	}
}
