package httpclient

import (
	"crypto/rand"
	"math/big"
	"sync/atomic"
)

// DefaultBrowserAgents provides a realistic set of modern desktop browser User-Agents.
var DefaultBrowserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// AgentPool rotates User-Agents for scraped sources.
type AgentPool struct {
	uas     []string
	counter atomic.Uint64
}

// NewAgentPool creates a pool. An empty slice falls back to DefaultBrowserAgents.
func NewAgentPool(uas []string) *AgentPool {
	if len(uas) == 0 {
		uas = DefaultBrowserAgents
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &AgentPool{uas: copied}
}

// Next returns the next User-Agent in round-robin order.
func (p *AgentPool) Next() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// Random returns a random User-Agent, falling back to Next if crypto/rand fails.
func (p *AgentPool) Random() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.Next()
	}
	return p.uas[n.Int64()]
}
