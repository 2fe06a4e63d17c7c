package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestBaseModel_BeforeCreate(t *testing.T) {
	t.Run("generates UUID if not set", func(t *testing.T) {
		model := &BaseModel{}
		err := model.BeforeCreate(nil)
		if err != nil {
			t.Fatalf("BeforeCreate returned error: %v", err)
		}
		if model.ID == uuid.Nil {
			t.Error("expected ID to be generated, got nil UUID")
		}
	})

	t.Run("preserves existing UUID", func(t *testing.T) {
		existingID := uuid.New()
		model := &BaseModel{ID: existingID}
		err := model.BeforeCreate(nil)
		if err != nil {
			t.Fatalf("BeforeCreate returned error: %v", err)
		}
		if model.ID != existingID {
			t.Errorf("expected ID to remain %s, got %s", existingID, model.ID)
		}
	})
}

func TestBaseModel_DeletedAt(t *testing.T) {
	model := BaseModel{}

	if model.DeletedAt.Valid {
		t.Error("expected DeletedAt to be invalid (null) by default")
	}

	var deletedAt gorm.DeletedAt
	deletedAt.Valid = true

	model.DeletedAt = deletedAt
	if !model.DeletedAt.Valid {
		t.Error("expected DeletedAt to be valid after setting")
	}
}

func TestUser_RoleConstants(t *testing.T) {
	if UserRoleAdmin != "admin" {
		t.Errorf("expected UserRoleAdmin to be 'admin', got %s", UserRoleAdmin)
	}
	if UserRoleUser != "user" {
		t.Errorf("expected UserRoleUser to be 'user', got %s", UserRoleUser)
	}
}

func TestAuthProvider_Constants(t *testing.T) {
	if AuthProviderLocal != "local" {
		t.Errorf("expected AuthProviderLocal to be 'local', got %s", AuthProviderLocal)
	}
	if AuthProviderPhone != "phone" {
		t.Errorf("expected AuthProviderPhone to be 'phone', got %s", AuthProviderPhone)
	}
	if AuthProviderGoogle != "google" {
		t.Errorf("expected AuthProviderGoogle to be 'google', got %s", AuthProviderGoogle)
	}
}

func TestUser_HasPassword(t *testing.T) {
	hash := "$2a$12$notarealhashbutlongenough"
	empty := ""

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"user with hash", User{PasswordHash: &hash}, true},
		{"user with empty hash", User{PasswordHash: &empty}, false},
		{"user without hash", User{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasPassword(); got != tt.want {
				t.Errorf("User.HasPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_Lifecycle(t *testing.T) {
	now := time.Now()

	t.Run("active session", func(t *testing.T) {
		session := &Session{ExpiresAt: now.Add(time.Hour)}
		if session.Expired(now) {
			t.Error("expected session not to be expired")
		}
		if !session.Active(now) {
			t.Error("expected session to be active")
		}
	})

	t.Run("expired session", func(t *testing.T) {
		session := &Session{ExpiresAt: now.Add(-time.Minute)}
		if !session.Expired(now) {
			t.Error("expected session to be expired")
		}
		if session.Active(now) {
			t.Error("expected expired session to be inactive")
		}
	})

	t.Run("revoked session is inactive even before expiry", func(t *testing.T) {
		session := &Session{ExpiresAt: now.Add(time.Hour), Revoked: true}
		if session.Expired(now) {
			t.Error("expected revoked session not to read as expired")
		}
		if session.Active(now) {
			t.Error("expected revoked session to be inactive")
		}
	})
}

func TestSession_TableName(t *testing.T) {
	session := Session{}
	if session.TableName() != "sessions" {
		t.Errorf("expected table name 'sessions', got %s", session.TableName())
	}
}

func TestOtpChallenge_Expired(t *testing.T) {
	now := time.Now()

	challenge := &OtpChallenge{ExpiresAt: now.Add(5 * time.Minute)}
	if challenge.Expired(now) {
		t.Error("expected fresh challenge not to be expired")
	}

	challenge.ExpiresAt = now.Add(-time.Second)
	if !challenge.Expired(now) {
		t.Error("expected past-deadline challenge to be expired")
	}
}

func TestOtpPurpose_Constants(t *testing.T) {
	if OtpPurposeLogin != "login" {
		t.Errorf("expected OtpPurposeLogin to be 'login', got %s", OtpPurposeLogin)
	}
	if OtpPurposeEmailChange != "email_change" {
		t.Errorf("expected OtpPurposeEmailChange to be 'email_change', got %s", OtpPurposeEmailChange)
	}
}

func TestApplicationStatus_Constants(t *testing.T) {
	if ApplicationStatusApplied != "applied" {
		t.Errorf("expected ApplicationStatusApplied to be 'applied', got %s", ApplicationStatusApplied)
	}
	if ApplicationStatusShortlisted != "shortlisted" {
		t.Errorf("expected ApplicationStatusShortlisted to be 'shortlisted', got %s", ApplicationStatusShortlisted)
	}
	if ApplicationStatusRejected != "rejected" {
		t.Errorf("expected ApplicationStatusRejected to be 'rejected', got %s", ApplicationStatusRejected)
	}
}

func TestAuditLog_BeforeCreate(t *testing.T) {
	log := &AuditLog{
		Action:       "auth.login",
		ResourceType: "session",
		IPAddress:    "127.0.0.1",
	}

	if err := log.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate returned error: %v", err)
	}
	if log.ID == uuid.Nil {
		t.Error("expected ID to be generated")
	}
	if log.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}

	stamped := log.CreatedAt
	if err := log.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate returned error: %v", err)
	}
	if !log.CreatedAt.Equal(stamped) {
		t.Error("expected existing CreatedAt to be preserved")
	}
}

func TestLinkedAccount_Model(t *testing.T) {
	userID := uuid.New()
	account := LinkedAccount{
		UserID:         userID,
		Provider:       AuthProviderGoogle,
		ProviderUserID: "google-subject-123",
		Email:          "person@example.com",
	}

	if account.UserID != userID {
		t.Errorf("expected UserID %s, got %s", userID, account.UserID)
	}
	if account.Provider != AuthProviderGoogle {
		t.Errorf("expected Provider google, got %s", account.Provider)
	}
	if account.TableName() != "linked_accounts" {
		t.Errorf("expected table name 'linked_accounts', got %s", account.TableName())
	}
}
