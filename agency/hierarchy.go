/*
hierarchy.go - Downline resolution

PURPOSE:
  Resolves the set of agents recruited beneath a given agent. Non-admin
  callers only see production for themselves plus their downline, so
  this is the scoping primitive for the scoreboard.

DESIGN:
  - Builds a children index from UplineID links and walks it
    breadth-first
  - Cycle-safe: a visited set guards against bad upline data (an agent
    can never appear twice, and a cycle terminates)
  - The root itself is NOT included in the result; callers add "self"
    when they want self-plus-downline scoping

SEE ALSO:
  - api/handlers.go: Scoreboard scoping for non-admin callers
*/
package agency

// DownlineOf returns the ids of every agent hierarchically beneath
// rootID, walking UplineID links over the given roster. The root is
// excluded. Order is breadth-first and deterministic for a fixed
// roster order.
func DownlineOf(rootID string, roster []Agent) []string {
	children := make(map[string][]string, len(roster))
	for _, a := range roster {
		if a.UplineID == "" {
			continue
		}
		children[a.UplineID] = append(children[a.UplineID], a.ID)
	}

	var downline []string
	visited := map[string]bool{rootID: true}
	queue := append([]string(nil), children[rootID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		downline = append(downline, id)
		queue = append(queue, children[id]...)
	}
	return downline
}

// ScopeToDownline filters roster to rootID plus its downline,
// preserving roster order.
func ScopeToDownline(rootID string, roster []Agent) []Agent {
	allowed := map[string]bool{rootID: true}
	for _, id := range DownlineOf(rootID, roster) {
		allowed[id] = true
	}

	scoped := make([]Agent, 0, len(roster))
	for _, a := range roster {
		if allowed[a.ID] {
			scoped = append(scoped, a)
		}
	}
	return scoped
}
