package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	if !strings.Contains(buf.String(), "Usage: hashpw") {
		t.Errorf("usage missing synopsis: %q", buf.String())
	}
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantErr  error
	}{
		{name: "valid password", password: "validpass123", confirm: "validpass123"},
		{name: "minimum length password", password: "123456", confirm: "123456"},
		{name: "too short password", password: "12345", confirm: "12345", wantErr: errTooShort},
		{name: "empty password", password: "", confirm: "", wantErr: errTooShort},
		{name: "mismatched passwords", password: "password123", confirm: "password456", wantErr: errMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hashPassword([]byte(tt.password), []byte(tt.confirm), bcrypt.MinCost)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := bcrypt.CompareHashAndPassword(hash, []byte(tt.password)); err != nil {
				t.Errorf("hash does not verify: %v", err)
			}
		})
	}
}

func TestPrompt(t *testing.T) {
	answers := [][]byte{[]byte("secret-pass"), []byte("secret-pass")}
	read := func() ([]byte, error) {
		next := answers[0]
		answers = answers[1:]
		return next, nil
	}

	var out bytes.Buffer
	hash, err := prompt(&out, read, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("prompt failed: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte("secret-pass")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if !strings.Contains(out.String(), "New Password: ") || !strings.Contains(out.String(), "Confirm Password: ") {
		t.Errorf("unexpected prompts: %q", out.String())
	}
}

func TestPromptReadError(t *testing.T) {
	boom := errors.New("no tty")
	_, err := prompt(&bytes.Buffer{}, func() ([]byte, error) { return nil, boom }, bcrypt.MinCost)
	if !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
}
