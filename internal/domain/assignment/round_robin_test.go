package assignment

import "testing"

func agents(ids ...uint) []Agent {
	out := make([]Agent, len(ids))
	for i, id := range ids {
		out[i] = Agent{ID: id, Name: "agent", Role: AgentRole, Available: true}
	}
	return out
}

func TestRoundRobinEmpty(t *testing.T) {
	r := NewRoundRobin()
	if got := r.Next(1, nil); got != nil {
		t.Fatalf("expected nil for empty eligible set, got %+v", got)
	}
}

func TestRoundRobinCycles(t *testing.T) {
	r := NewRoundRobin()
	eligible := agents(10, 20, 30)

	var got []uint
	for i := 0; i < 6; i++ {
		got = append(got, r.Next(1, eligible).ID)
	}

	want := []uint{10, 20, 30, 10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("selection %d = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRoundRobinNeverRepeatsWithTwoAgents(t *testing.T) {
	r := NewRoundRobin()
	eligible := agents(1, 2)

	prev := r.Next(5, eligible).ID
	for i := 0; i < 10; i++ {
		next := r.Next(5, eligible).ID
		if next == prev {
			t.Fatalf("agent %d assigned twice in a row", next)
		}
		prev = next
	}
}

func TestRoundRobinWrapsWhenCursorGone(t *testing.T) {
	r := NewRoundRobin()

	// Agent 30 was last assigned, then went offline.
	r.Observe(1, 30)
	eligible := agents(10, 20)

	if got := r.Next(1, eligible).ID; got != 10 {
		t.Fatalf("expected wrap to first eligible agent, got %d", got)
	}
}

func TestRoundRobinPerInboxCursors(t *testing.T) {
	r := NewRoundRobin()
	eligible := agents(1, 2, 3)

	if got := r.Next(1, eligible).ID; got != 1 {
		t.Fatalf("inbox 1 first pick = %d, want 1", got)
	}
	// A different inbox starts its own cycle.
	if got := r.Next(2, eligible).ID; got != 1 {
		t.Fatalf("inbox 2 first pick = %d, want 1", got)
	}
	if got := r.Next(1, eligible).ID; got != 2 {
		t.Fatalf("inbox 1 second pick = %d, want 2", got)
	}
}

func TestEligibleFilters(t *testing.T) {
	members := []Agent{
		{ID: 1, Role: AgentRole, Available: true},
		{ID: 2, Role: "administrator", Available: true},
		{ID: 3, Role: AgentRole, Available: false},
		{ID: 4, Role: AgentRole, Available: true},
	}

	eligible := Eligible(members)
	if len(eligible) != 2 || eligible[0].ID != 1 || eligible[1].ID != 4 {
		t.Fatalf("Eligible() = %+v, want agents 1 and 4", eligible)
	}
}
