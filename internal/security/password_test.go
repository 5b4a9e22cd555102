package security

import "testing"

func TestSetPasswordRejectsShort(t *testing.T) {
	var p PasswordAuth
	if err := p.SetPassword("short"); err != ErrPasswordTooShort {
		t.Fatalf("err = %v, want ErrPasswordTooShort", err)
	}
}

func TestValidatePasswordRoundTrip(t *testing.T) {
	var p PasswordAuth
	if err := p.SetPassword("correct horse battery staple"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if !p.Validate("correct horse battery staple") {
		t.Fatal("expected correct password to validate")
	}
	if p.Validate("wrong password entirely") {
		t.Fatal("expected wrong password to be rejected")
	}
	if p.AuthSuccesses != 1 || p.AuthFailures != 1 {
		t.Fatalf("counters = %+v", p)
	}
}

func TestSetPasswordMarksChanged(t *testing.T) {
	var p PasswordAuth
	if p.Changed() {
		t.Fatal("fresh PasswordAuth should not report changed")
	}
	p.SetPassword("new-password-1")
	if !p.Changed() {
		t.Fatal("expected Changed() after SetPassword")
	}
}

func TestResetRestoresDefaultAndClearsChanged(t *testing.T) {
	mac := [6]byte{0, 0, 0xAB, 0xCD, 0xEF, 0x12}
	var p PasswordAuth
	p.SetPassword("some-other-password")
	if err := p.Reset(mac); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if p.Changed() {
		t.Fatal("expected Changed() false after Reset")
	}
	if !p.Validate(DefaultPassword(mac)) {
		t.Fatal("expected factory default password to validate after Reset")
	}
}

func TestDefaultPasswordDerivedFromMacTail(t *testing.T) {
	mac := [6]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	if got, want := DefaultPassword(mac), "33445566"; got != want {
		t.Fatalf("DefaultPassword = %q, want %q", got, want)
	}
}
