package hash

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{
			name:    "valid token",
			token:   "b7f1c2e9a4d84f0c9e3a",
			wantErr: false,
		},
		{
			name:    "minimum length token",
			token:   "abcdefghijkl",
			wantErr: false,
		},
		{
			name:    "token too short",
			token:   "short",
			wantErr: true,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: true,
		},
		{
			name:    "token too long",
			token:   strings.Repeat("x", 73),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := Hash(tt.token)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Hash() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Hash() unexpected error = %v", err)
				return
			}

			if hash == tt.token {
				t.Error("Hash() returned unhashed token")
			}

			if !strings.HasPrefix(hash, "$2a$10$") {
				t.Errorf("Hash() invalid bcrypt format, got = %s", hash[:10])
			}
		})
	}
}

func TestHashDifferentOutputs(t *testing.T) {
	token := "same-token-value"

	hash1, err := Hash(token)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	hash2, err := Hash(token)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if hash1 == hash2 {
		t.Error("Hash() should generate different hashes for same token (salt)")
	}
}

func TestCompare(t *testing.T) {
	token := "timer-sync-shared-secret"
	hash, err := Hash(token)
	if err != nil {
		t.Fatalf("Failed to generate hash: %v", err)
	}

	tests := []struct {
		name        string
		hashedToken string
		token       string
		wantErr     bool
	}{
		{name: "correct token", hashedToken: hash, token: token, wantErr: false},
		{name: "incorrect token", hashedToken: hash, token: "other-secret-value", wantErr: true},
		{name: "empty token", hashedToken: hash, token: "", wantErr: true},
		{name: "case sensitive", hashedToken: hash, token: strings.ToUpper(token), wantErr: true},
		{name: "garbage hash", hashedToken: "not-a-hash", token: token, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Compare(tt.hashedToken, tt.token)

			if tt.wantErr {
				if err == nil {
					t.Error("Compare() expected error but got none")
				}
			} else if err != nil {
				t.Errorf("Compare() unexpected error = %v", err)
			}
		})
	}
}

func BenchmarkCompare(b *testing.B) {
	token := "benchmark-shared-secret"
	hash, _ := Hash(token)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = Compare(hash, token)
	}
}
