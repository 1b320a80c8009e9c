package auth

import (
	"context"
	"testing"
	"time"

	"github.com/eplancompare/eplancompare/internal/storage"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	u, err := svc.Register(ctx, "dana", "s3cret", "editor")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.PasswordHash == "s3cret" {
		t.Fatal("password stored in the clear")
	}

	if _, err := svc.Register(ctx, "dana", "other", "viewer"); err == nil {
		t.Error("expected duplicate username to fail")
	}

	if _, err := svc.Authenticate(ctx, "dana", "s3cret"); err != nil {
		t.Errorf("Authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "dana", "wrong"); err == nil {
		t.Error("expected bad password to fail")
	}
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret"); err == nil {
		t.Error("expected unknown user to fail")
	}
}

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	u, err := svc.Register(ctx, "dana", "s3cret", "viewer")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	tok, raw, err := svc.CreateToken(ctx, u.ID, "ci", "viewer", nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if tok.TokenHash == raw {
		t.Fatal("raw token stored unhashed")
	}

	got, err := svc.ValidateToken(ctx, raw)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.ID != tok.ID {
		t.Errorf("validated token %s, want %s", got.ID, tok.ID)
	}

	if _, err := svc.ValidateToken(ctx, "bogus"); err == nil {
		t.Error("expected bogus token to fail")
	}

	past := time.Now().Add(-time.Hour)
	_, rawExpired, err := svc.CreateToken(ctx, u.ID, "old", "viewer", &past)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, rawExpired); err == nil {
		t.Error("expected expired token to fail")
	}
}

func TestEnforceRoles(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	viewer, err := svc.Register(ctx, "viewer", "pw", "viewer")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := svc.Register(ctx, "admin", "pw", "admin")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		sub, obj, act string
		want          bool
	}{
		{viewer.ID, ObjAnalyses, "read", true},
		{viewer.ID, ObjAnalyses, "write", false},
		{viewer.ID, ObjTariff, "read", true},
		{admin.ID, ObjSettings, "write", true},
	}
	for _, tc := range cases {
		got, err := svc.Enforce(tc.sub, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("Enforce(%s,%s,%s): %v", tc.sub, tc.obj, tc.act, err)
		}
		if got != tc.want {
			t.Errorf("Enforce(%s,%s,%s) = %v, want %v", tc.sub, tc.obj, tc.act, got, tc.want)
		}
	}
}

func TestParseExpirationDuration(t *testing.T) {
	if exp, err := ParseExpirationDuration("never"); err != nil || exp != nil {
		t.Errorf("never = %v, %v", exp, err)
	}
	if exp, err := ParseExpirationDuration("30d"); err != nil || exp == nil {
		t.Errorf("30d = %v, %v", exp, err)
	}
	if exp, err := ParseExpirationDuration("2h30m"); err != nil || exp == nil {
		t.Errorf("2h30m = %v, %v", exp, err)
	}
	if _, err := ParseExpirationDuration("soon"); err == nil {
		t.Error("expected error for unparseable input")
	}
	if _, err := ParseExpirationDuration("01/02/2006"); err == nil {
		t.Error("expected error for a past date")
	}
}
