package domain

import "time"

type DecisionKind int

const (
	// DecisionInitialize means nothing usable was stored; the candidate
	// becomes the first stored document.
	DecisionInitialize DecisionKind = iota

	// DecisionAccept means the candidate replaces the stored document.
	DecisionAccept

	// DecisionReject means the stored document stays authoritative and is
	// returned to the caller.
	DecisionReject
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionInitialize:
		return "initialize"
	case DecisionAccept:
		return "accept"
	case DecisionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Persists reports whether the winning document must be saved.
func (k DecisionKind) Persists() bool {
	return k == DecisionInitialize || k == DecisionAccept
}

// Decision is the reconciler's verdict. Document is the winner: the
// candidate for Initialize and Accept, the stored document for Reject.
type Decision struct {
	Kind           DecisionKind
	Document       *Document
	ClientRichness int
	ServerRichness int
}

type SyncStatus string

const (
	SyncStatusAccepted SyncStatus = "accepted"
	SyncStatusConflict SyncStatus = "conflict"
)

type SyncResponse struct {
	Status     SyncStatus `json:"status"`
	ServerData *Document  `json:"serverData"`
}

type FetchStatus string

const (
	FetchStatusEmpty FetchStatus = "empty"
	FetchStatusOK    FetchStatus = "ok"
)

type FetchResponse struct {
	Status     FetchStatus `json:"status"`
	ServerData *Document   `json:"serverData"`
	Richness   int         `json:"richness"`
	UpdatedAt  int64       `json:"updatedAt"`
}

type StreamTicketRequest struct {
	DeviceID string `json:"deviceId" validate:"omitempty,max=128,printascii"`
}

type StreamTicket struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expiresAt"`
}
