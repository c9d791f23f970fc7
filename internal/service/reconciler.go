package service

import "timer-sync-server/internal/domain"

// Reconcile decides which of the candidate and the stored document is
// authoritative. It performs no I/O; persisting the outcome is up to the
// caller. A nil stored document means the store was empty or unreadable.
//
// Richness dominates: a richer candidate always wins and a poorer one
// always loses, whatever the timestamps say. Only on equal richness does
// updatedAt decide, and equal timestamps go to the candidate.
func Reconcile(candidate, stored *domain.Document) domain.Decision {
	clientRichness := Richness(candidate)

	if stored == nil {
		return domain.Decision{
			Kind:           domain.DecisionInitialize,
			Document:       candidate,
			ClientRichness: clientRichness,
		}
	}

	serverRichness := Richness(stored)
	decision := domain.Decision{
		ClientRichness: clientRichness,
		ServerRichness: serverRichness,
	}

	switch {
	case clientRichness > serverRichness:
		decision.Kind = domain.DecisionAccept
	case clientRichness < serverRichness:
		decision.Kind = domain.DecisionReject
	case domain.CompareUpdatedAt(candidate, stored) >= 0:
		decision.Kind = domain.DecisionAccept
	default:
		decision.Kind = domain.DecisionReject
	}

	if decision.Kind == domain.DecisionAccept {
		decision.Document = candidate
	} else {
		decision.Document = stored
	}

	return decision
}
