// Package mode maps the operating persona (architect or auditor) to its
// retrieval depth and prompt framing.
package mode

import (
	"errors"
	"fmt"
)

// ErrUnknown reports a mode value outside the closed set. This is a
// configuration bug and callers fail loudly instead of guessing a default.
var ErrUnknown = errors.New("unknown mode")

// Mode is the operating persona controlling retrieval depth and prompt
// framing. The set is closed: Architect and Auditor only.
type Mode string

const (
	Architect Mode = "architect"
	Auditor   Mode = "auditor"
)

// Parse converts a configuration string into a Mode.
func Parse(s string) (Mode, error) {
	switch Mode(s) {
	case Architect, Auditor:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknown, s)
	}
}

// Strategy is what a mode implies at query time: how many chunks to retrieve,
// which persona fronts the prompt, and an optional instruction fragment
// appended to it.
type Strategy struct {
	K       int
	Persona string
	Augment string
}

const architectPersona = `You are a Senior Cloud Architect. Answer the question based ONLY on the provided Terraform context. When an architecture diagram would help the explanation, include one as a fenced ` + "```mermaid" + ` block.`

const auditorPersona = `You are a Senior Security Auditor reviewing Terraform infrastructure code. Answer the question based ONLY on the provided context, correlating findings across resources where relevant.`

const auditorAugment = `Assess every finding against named compliance frameworks such as the CIS AWS Foundations Benchmark, SOC 2, and PCI DSS, and call out any violations explicitly.`

// Selector is the table-driven mapping from mode to strategy. Depths come
// from configuration; auditor depth always exceeds architect depth.
type Selector struct {
	strategies map[Mode]Strategy
}

// NewSelector builds a selector with the given per-mode retrieval depths.
func NewSelector(architectK, auditorK int) *Selector {
	return &Selector{
		strategies: map[Mode]Strategy{
			Architect: {K: architectK, Persona: architectPersona},
			Auditor:   {K: auditorK, Persona: auditorPersona, Augment: auditorAugment},
		},
	}
}

// Select returns the strategy for a mode. Pure mapping, total over the two
// modes; anything else is ErrUnknown.
func (s *Selector) Select(m Mode) (Strategy, error) {
	strat, ok := s.strategies[m]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", ErrUnknown, m)
	}
	return strat, nil
}
