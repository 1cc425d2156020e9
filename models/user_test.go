package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserIsLocked(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		lockUntil *time.Time
		want      bool
	}{
		{"never locked", nil, false},
		{"lock expired", &past, false},
		{"lock active", &future, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{LockUntil: tt.lockUntil}
			assert.Equal(t, tt.want, user.IsLocked(now))
		})
	}
}

func TestUserRoleValues(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		isAdmin bool
	}{
		{"user role", RoleUser, false},
		{"admin role", RoleAdmin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{Email: "test@example.com", Role: tt.role}
			assert.Equal(t, tt.isAdmin, user.IsAdmin())
		})
	}
}
