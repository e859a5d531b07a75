package services

import (
	"context"
	"regexp"
	"testing"

	"esarbank/internal/models"
	"esarbank/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func signupInput(email string) SignupInput {
	return SignupInput{
		FirstName:   "Asha",
		LastName:    "Rao",
		Email:       email,
		Password:    "password123",
		Address1:    "12 Marine Drive",
		City:        "Mumbai",
		State:       "MH",
		PostalCode:  "400002",
		DateOfBirth: "1990-04-12",
	}
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, details, err := svc.Signup(ctx, signupInput("asha@example.com"))
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID to be set")
		}
		if details.IFSC != "ESARMUM123" {
			t.Errorf("expected IFSC ESARMUM123, got %s", details.IFSC)
		}
		if !regexp.MustCompile(`^22710\d{9}$`).MatchString(details.AccountNumber) {
			t.Errorf("unexpected account number %q", details.AccountNumber)
		}
		if !regexp.MustCompile(`^\d{1,9}$`).MatchString(details.CustomerID) {
			t.Errorf("unexpected customer id %q", details.CustomerID)
		}
		if n := testutil.CountRows(t, db, &models.Account{}); n != 0 {
			t.Errorf("expected no account before confirmation, got %d", n)
		}
	})

	t.Run("password_is_hashed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, _, err := svc.Signup(ctx, signupInput("hash@example.com"))
		testutil.AssertNoError(t, err)

		if user.Password == "password123" {
			t.Fatal("expected password to be hashed")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")); err != nil {
			t.Errorf("stored hash does not match password: %v", err)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, _, err := svc.Signup(ctx, signupInput("dup@example.com"))
		testutil.AssertNoError(t, err)

		_, _, err = svc.Signup(ctx, signupInput("DUP@example.com"))
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("missing_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		input := signupInput("nopass@example.com")
		input.Password = ""
		_, _, err := svc.Signup(ctx, input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("email_normalized_to_lowercase", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, _, err := svc.Signup(ctx, signupInput("Asha@EXAMPLE.com"))
		testutil.AssertNoError(t, err)

		if user.Email != "asha@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created := testutil.CreateTestUser(t, db)

		user, err := svc.GetUserByID(ctx, created.ID)
		testutil.AssertNoError(t, err)
		if user.Email != created.Email {
			t.Errorf("expected email %s, got %s", created.Email, user.Email)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetUserByID(ctx, "0192b1a4-9c1e-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("malformed_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.GetUserByID(ctx, "not-a-uuid")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created := testutil.CreateTestUser(t, db)

		user, err := svc.Authenticate(ctx, created.Email, testutil.TestPassword)
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)
		created := testutil.CreateTestUser(t, db)

		_, err := svc.Authenticate(ctx, created.Email, "wrongpassword")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.Authenticate(ctx, "nobody@example.com", testutil.TestPassword)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}
