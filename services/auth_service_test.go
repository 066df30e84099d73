package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Aldiyar97/quiz-league/services"
)

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := services.NewAuthService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, services.RegisterInput{
		Username: "  alice  ",
		Email:    "Alice@Example.COM",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("username = %q, want trimmed %q", user.Username, "alice")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked in register response")
	}
	if user.Lives.Current != services.DefaultMaxLives || user.Lives.Max != services.DefaultMaxLives {
		t.Fatalf("life pool = %+v, want full default pool", user.Lives)
	}
	if user.Lives.RegenerationRate != services.DefaultRegenerationRate {
		t.Fatalf("regeneration rate = %d, want %d", user.Lives.RegenerationRate, services.DefaultRegenerationRate)
	}

	logged, err := svc.Login(ctx, services.LoginInput{Email: "alice@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("logged in as user %d, want %d", logged.ID, user.ID)
	}
	if logged.PasswordHash != "" {
		t.Fatal("password hash leaked in login response")
	}

	_, err = svc.Login(ctx, services.LoginInput{Email: "alice@example.com", Password: "wrong horse"})
	if !errors.Is(err, services.ErrAuthInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrAuthInvalidCredentials", err)
	}
	_, err = svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	if !errors.Is(err, services.ErrAuthInvalidCredentials) {
		t.Fatalf("unknown email error = %v, want ErrAuthInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := services.NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, services.RegisterInput{Username: "  ", Email: "a@b.c", Password: "long enough"})
	if !errors.Is(err, services.ErrUsernameRequired) {
		t.Fatalf("got %v, want ErrUsernameRequired", err)
	}

	_, err = svc.Register(ctx, services.RegisterInput{Username: "alice", Email: "a@b.c", Password: "short"})
	if !errors.Is(err, services.ErrPasswordTooShort) {
		t.Fatalf("got %v, want ErrPasswordTooShort", err)
	}
}

func TestRegisterConflicts(t *testing.T) {
	repo := newFakeUserRepo()
	svc := services.NewAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, services.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(ctx, services.RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "correct horse"})
	if !errors.Is(err, services.ErrAuthEmailTaken) {
		t.Fatalf("got %v, want ErrAuthEmailTaken", err)
	}

	_, err = svc.Register(ctx, services.RegisterInput{Username: "alice", Email: "other@example.com", Password: "correct horse"})
	if !errors.Is(err, services.ErrAuthUsernameTaken) {
		t.Fatalf("got %v, want ErrAuthUsernameTaken", err)
	}
}
