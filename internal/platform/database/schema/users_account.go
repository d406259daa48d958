// Copyright (c) 2026 Sentra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema centralizes the physical table and column names of the
// PostgreSQL database. Repositories build their queries from these
// definitions so a rename happens in exactly one place.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table             string
	ID                string
	Email             string
	FirstName         string
	LastName          string
	Password          string
	VerificationCode  string
	PasswordResetCode string
	Verified          string
	CreatedAt         string
	UpdatedAt         string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:             "users.account",
	ID:                "id",
	Email:             "email",
	FirstName:         "firstname",
	LastName:          "lastname",
	Password:          "passwordhash",
	VerificationCode:  "verificationcode",
	PasswordResetCode: "passwordresetcode",
	Verified:          "verified",
	CreatedAt:         "createdat",
	UpdatedAt:         "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.FirstName, t.LastName, t.Password,
		t.VerificationCode, t.PasswordResetCode, t.Verified,
		t.CreatedAt, t.UpdatedAt,
	}
}
