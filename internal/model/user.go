package model

import "time"

// User represents an application user record as stored in the
// `user_detail` table.  Each field corresponds to a column in the
// database.  Handlers define separate response types with JSON tags;
// these structs are used by the repository layer.
//
// Fields:
//  ID             – primary key identifier of the user.
//  PhoneNumber    – unique phone number, the login identifier.
//  Email          – optional unique email address (empty when absent).
//  FirstName      – given name, also carried inside issued tokens.
//  LastName       – family name.
//  HashedPassword – hex digest of the password (never the plaintext).
//  Active         – whether the account is active; inactive users cannot upload.
//  RegisterDate   – timestamp of creation.
type User struct {
	ID             uint64    // user_detail.user_id
	PhoneNumber    string    // user_detail.phone_number
	Email          string    // user_detail.email (nullable)
	FirstName      string    // user_detail.first_name
	LastName       string    // user_detail.last_name
	HashedPassword string    // user_detail.hashed_password
	Active         bool      // user_detail.active
	RegisterDate   time.Time // user_detail.register_date
}
