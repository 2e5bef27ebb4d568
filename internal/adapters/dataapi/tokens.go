package dataapi

import "sync"

// TokenStore holds the bearer credential attached to requests
// an empty token means anonymous requests
type TokenStore interface {
	Token() string
	Set(token string)
	Clear()
}

// MemoryTokens is an in-process TokenStore
type MemoryTokens struct {
	mu  sync.RWMutex
	tok string
}

// NewMemoryTokens returns a store seeded with tok, which may be empty
func NewMemoryTokens(tok string) *MemoryTokens { return &MemoryTokens{tok: tok} }

// Token returns the current credential
func (m *MemoryTokens) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tok
}

// Set replaces the credential
func (m *MemoryTokens) Set(tok string) {
	m.mu.Lock()
	m.tok = tok
	m.mu.Unlock()
}

// Clear drops the credential
func (m *MemoryTokens) Clear() { m.Set("") }
