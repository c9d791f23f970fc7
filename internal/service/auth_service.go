package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"timer-sync-server/internal/domain"
	"timer-sync-server/pkg/hash"
	"timer-sync-server/pkg/jwt"
)

// AuthService checks the shared bearer secret and issues websocket stream
// tickets signed with it.
type AuthService struct {
	token     string
	tokenHash string
	ticketTTL time.Duration
	ticketKey string
}

func NewAuthService(token, tokenHash string, ticketTTL time.Duration) *AuthService {
	return &AuthService{
		token:     token,
		tokenHash: tokenHash,
		ticketTTL: ticketTTL,
		ticketKey: newTicketKey(token),
	}
}

// newTicketKey signs stream tickets with the plaintext secret when there is
// one. A bcrypt hash is not secret enough to sign with, so hash-only
// deployments get a random key and tickets do not survive a restart.
func newTicketKey(token string) string {
	if token != "" {
		return token
	}

	key := make([]byte, 32)
	rand.Read(key)
	return hex.EncodeToString(key)
}

// VerifyBearer reports whether candidate equals the configured secret.
// With nothing configured every candidate is refused.
func (s *AuthService) VerifyBearer(candidate string) bool {
	if candidate == "" {
		return false
	}

	if s.token != "" {
		return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.token)) == 1
	}

	if s.tokenHash != "" {
		return hash.Compare(s.tokenHash, candidate) == nil
	}

	return false
}

func (s *AuthService) IssueTicket(deviceID string) (*domain.StreamTicket, error) {
	ticket, expiresAt, err := jwt.GenerateTicket(deviceID, s.ticketTTL, s.ticketKey)
	if err != nil {
		return nil, err
	}

	return &domain.StreamTicket{
		Ticket:    ticket,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) ValidateTicket(ticket string) (*jwt.Claims, error) {
	return jwt.ValidateTicket(ticket, s.ticketKey)
}
