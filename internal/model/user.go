package model

import "time"

// User is a marketplace account.  Accounts are owned by the account
// directory; the booking engine only needs to know that one exists.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Name      – display name.
//  Email     – unique email address.
//  CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    // users.id
	Name      string    // users.name
	Email     string    // users.email
	CreatedAt time.Time // users.created_at
}
