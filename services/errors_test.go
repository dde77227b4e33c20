package services

import "testing"

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"purpose_of_grant": "purpose of grant is required",
		"institution":      "institution is required",
	}}
	// field names are sorted for a stable message
	want := "validation failed: institution, purpose_of_grant"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	empty := &ValidationError{}
	if empty.Error() != "validation failed" {
		t.Errorf("unexpected message %q", empty.Error())
	}
}

func TestCallerIsAdmin(t *testing.T) {
	if (Caller{Role: "applicant"}).IsAdmin() {
		t.Error("applicant must not be admin")
	}
	if !(Caller{Role: "admin"}).IsAdmin() {
		t.Error("admin role not recognized")
	}
}
