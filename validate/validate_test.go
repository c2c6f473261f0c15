package validate

import "testing"

type contact struct {
	Name  string `validate:"required,notblank"`
	Email string `validate:"required,email"`
	Phone string `validate:"required,phone"`
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		val     contact
		wantErr string
	}{
		{"valid", contact{"Ada", "ada@example.com", "+91 98765-43210"}, ""},
		{"parens", contact{"Ada", "ada@example.com", "(555) 123 4567"}, ""},
		{"missing name", contact{"", "ada@example.com", "5551234567"}, "Name is a required field"},
		{"blank name", contact{" \t ", "ada@example.com", "5551234567"}, "Name must not be blank"},
		{"bad email", contact{"Ada", "ada", "5551234567"}, "Email must be a valid email address"},
		{"letters in phone", contact{"Ada", "ada@example.com", "call me"}, "Phone must be a valid phone number"},
		{"short phone", contact{"Ada", "ada@example.com", "123"}, "Phone must be a valid phone number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.val)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestVar(t *testing.T) {
	if err := Var("method", "card", "oneof=card upi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Var("method", "cash", "oneof=card upi"); err == nil {
		t.Fatal("expected an error for a value outside the set")
	}
}

func TestCheckID(t *testing.T) {
	if err := CheckID(GenerateID()); err != nil {
		t.Fatalf("generated id rejected: %v", err)
	}
	if err := CheckID("not-an-id"); err == nil {
		t.Fatal("expected malformed id to be rejected")
	}
}
