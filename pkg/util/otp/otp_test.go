package otp

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"default length", 6, false},
		{"min length", 4, false},
		{"max length", 10, false},
		{"too short", 3, true},
		{"too long", 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Generate(tt.length)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if len(code) != tt.length {
				t.Errorf("expected %d digits, got %d", tt.length, len(code))
			}
			for _, c := range code {
				if c < '0' || c > '9' {
					t.Errorf("expected numeric OTP, got %q", code)
				}
			}
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	code, err := GenerateDefault()
	if err != nil {
		t.Fatalf("GenerateDefault failed: %v", err)
	}

	hash := Hash(code)

	if err := Verify(hash, code); err != nil {
		t.Errorf("Verify failed for correct code: %v", err)
	}
	if err := Verify(hash, "000000"); err != ErrMismatch && code != "000000" {
		t.Errorf("expected ErrMismatch for wrong code, got %v", err)
	}

	// whitespace is normalized
	if err := Verify(hash, "  "+code+"  "); err != nil {
		t.Errorf("Verify failed for padded code: %v", err)
	}
}
