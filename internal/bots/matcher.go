// Package bots matches user-agent strings against known bot signatures.
package bots

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/whowhywhen/whowhywhen/internal/model"
)

// SignatureSource supplies the signature snapshot, in insertion order.
// Implemented by repository.BotRepository.
type SignatureSource interface {
	ListSignatures(ctx context.Context) ([]model.BotSignature, error)
}

type compiledSignature struct {
	id      int64
	pattern string
	re      *regexp.Regexp // nil when the pattern is a plain substring
}

func (s compiledSignature) matches(ua string) bool {
	if s.re != nil {
		return s.re.MatchString(ua)
	}
	return strings.Contains(ua, s.pattern)
}

// Matcher tests user agents against a cached snapshot of bot signatures.
// The snapshot is loaded on first use and only changes through an explicit
// Refresh; a failed load is retried on the next Match so a transient source
// error never disables matching for the process lifetime.
type Matcher struct {
	source SignatureSource

	mu         sync.RWMutex
	loaded     bool
	signatures []compiledSignature
}

// NewMatcher returns a Matcher over source. Nothing is loaded until the
// first Match or an explicit Refresh.
func NewMatcher(source SignatureSource) *Matcher {
	return &Matcher{source: source}
}

// Match tests ua against every cached signature in insertion order and
// returns the first matching signature's ID. ok is false when ua is empty
// or nothing matches.
func (m *Matcher) Match(ctx context.Context, ua string) (id int64, ok bool, err error) {
	if ua == "" {
		return 0, false, nil
	}
	m.mu.RLock()
	loaded := m.loaded
	signatures := m.signatures
	m.mu.RUnlock()

	if !loaded {
		if err := m.Refresh(ctx); err != nil {
			return 0, false, err
		}
		m.mu.RLock()
		signatures = m.signatures
		m.mu.RUnlock()
	}

	for _, sig := range signatures {
		if sig.matches(ua) {
			return sig.id, true, nil
		}
	}
	return 0, false, nil
}

// Refresh replaces the cached snapshot with the source's current
// signatures. Callers that import signatures at runtime must call this
// explicitly; the cache is otherwise stable for the process lifetime.
func (m *Matcher) Refresh(ctx context.Context) error {
	list, err := m.source.ListSignatures(ctx)
	if err != nil {
		return fmt.Errorf("load bot signatures: %w", err)
	}
	compiled := make([]compiledSignature, 0, len(list))
	for _, sig := range list {
		if sig.Pattern == "" {
			continue
		}
		entry := compiledSignature{id: sig.ID, pattern: sig.Pattern}
		if re, err := regexp.Compile(sig.Pattern); err == nil {
			entry.re = re
		}
		compiled = append(compiled, entry)
	}
	m.mu.Lock()
	m.loaded = true
	m.signatures = compiled
	m.mu.Unlock()
	return nil
}
