// Package user defines the account model used throughout the application,
// particularly for authentication and short link ownership.
package user

// User represents a registered account.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	// Firstname is required at signup; Lastname may be empty.
	Firstname string
	Lastname  string

	// Email is unique across all users.
	Email string

	// Password holds the hex-encoded HMAC digest of the plaintext password,
	// never the plaintext itself. Salt is the hex-encoded key the digest
	// was computed with.
	Password string
	Salt     string
}
