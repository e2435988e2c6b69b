package resolver

import "github.com/poiesic/stilbar/core"

// ResolveMonitor provides hooks to observe the resolution process.
// Implement this interface to track which strategies were tried and what
// they matched during a lookup.
type ResolveMonitor interface {
	Start(input string)
	AfterNormalization(cleaned, normalized string)
	PartialCandidate(fragment, codeKey string)
	StrategyMatched(strategy Strategy, compound *core.Compound)
	FallbackUsed(symbol string)
	Finish(result *Result, err error)
}

// noopMonitor is a no-op implementation of ResolveMonitor
type noopMonitor struct{}

var _ ResolveMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                               {}
func (n *noopMonitor) AfterNormalization(_, _ string)               {}
func (n *noopMonitor) PartialCandidate(_, _ string)                 {}
func (n *noopMonitor) StrategyMatched(_ Strategy, _ *core.Compound) {}
func (n *noopMonitor) FallbackUsed(_ string)                        {}
func (n *noopMonitor) Finish(_ *Result, _ error)                    {}
