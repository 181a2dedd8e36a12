package auth

import (
	"testing"
)

func TestStaticSecret(t *testing.T) {
	v := StaticSecret("6749467")
	tests := []struct {
		in   string
		want bool
	}{
		{"6749467", true},
		{"6749467 ", false},
		{"", false},
		{"674946", false},
	}
	for _, tt := range tests {
		if got := v.Verify(tt.in); got != tt.want {
			t.Errorf("Verify(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBcryptHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	v, err := NewBcryptHash(hash)
	if err != nil {
		t.Fatalf("NewBcryptHash: %v", err)
	}
	if !v.Verify("s3cret") {
		t.Error("expected correct password to verify")
	}
	if v.Verify("wrong") {
		t.Error("expected wrong password to fail")
	}

	if _, err := NewBcryptHash("not-a-hash"); err == nil {
		t.Error("expected error for invalid hash")
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestFromConfig(t *testing.T) {
	hash, err := HashPassword("hashed")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		password    string
		hash        string
		accept      string
		wantDefault bool
		wantErr     bool
	}{
		{"default", "", "", DefaultPassword, true, false},
		{"plain", "plain", "", "plain", false, false},
		{"hash wins", "plain", hash, "hashed", false, false},
		{"bad hash", "", "xyz", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, usedDefault, err := FromConfig(tt.password, tt.hash)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FromConfig: %v", err)
			}
			if usedDefault != tt.wantDefault {
				t.Errorf("usedDefault = %v, want %v", usedDefault, tt.wantDefault)
			}
			if !v.Verify(tt.accept) {
				t.Errorf("expected %q to verify", tt.accept)
			}
		})
	}
}
