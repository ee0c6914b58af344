package auth

import "time"

type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is what a session knows about the account behind it.
type Identity struct {
	AccountID int64
	Username  string
}

func (a Account) Identity() Identity {
	return Identity{AccountID: a.ID, Username: a.Username}
}
