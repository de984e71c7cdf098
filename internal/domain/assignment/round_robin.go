// Package assignment implements round-robin agent selection across an
// inbox's eligible agents.
package assignment

import "sync"

// AgentRole is the role required for round-robin eligibility.
const AgentRole = "agent"

// Agent is the selector's view of an inbox member. Callers convert from
// their own agent representation.
type Agent struct {
	ID        uint
	Name      string
	Role      string
	Available bool
}

// RoundRobin selects the next eligible agent for each inbox. The
// last-assigned pointer is explicit per-inbox cursor state, which keeps the
// algorithm deterministic for a fixed eligible-agent ordering.
// Thread-safe.
type RoundRobin struct {
	mu           sync.Mutex
	lastAssigned map[uint]uint // inbox id -> last assigned agent id
}

// NewRoundRobin creates an empty round-robin selector.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{
		lastAssigned: make(map[uint]uint),
	}
}

// Eligible filters the inbox member list down to available agents with the
// agent role, preserving order.
func Eligible(members []Agent) []Agent {
	var eligible []Agent
	for _, a := range members {
		if a.Role == AgentRole && a.Available {
			eligible = append(eligible, a)
		}
	}
	return eligible
}

// Next returns the agent after the last-assigned one in the eligible
// ordering, wrapping to the first when the cursor is at the end or points at
// an agent no longer eligible. Returns nil when no agent is eligible; the
// enclosing operation leaves the conversation unassigned without failing.
func (r *RoundRobin) Next(inboxID uint, eligible []Agent) *Agent {
	if len(eligible) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lastID, ok := r.lastAssigned[inboxID]
	selected := &eligible[0]
	if ok {
		for i := range eligible {
			if eligible[i].ID == lastID {
				selected = &eligible[(i+1)%len(eligible)]
				break
			}
		}
	}

	r.lastAssigned[inboxID] = selected.ID
	return selected
}

// Observe records an assignment made outside the selector (manual
// assignment) so the cursor stays aligned with reality.
func (r *RoundRobin) Observe(inboxID, agentID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastAssigned[inboxID] = agentID
}

// Reset clears the cursor for an inbox.
func (r *RoundRobin) Reset(inboxID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lastAssigned, inboxID)
}
