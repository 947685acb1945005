// Package link defines the short link model: a unique short code mapped
// to a target URL and owned by exactly one user.
package link

// ShortLink represents a single short code -> target URL mapping.
type ShortLink struct {
	// ID is the unique identifier of the link, meaning a UUID.
	ID string

	// Code is the short code, unique across all links.
	Code string

	// TargetURL is the URL the code redirects to.
	TargetURL string

	// UserID identifies the owning user.
	UserID string
}
