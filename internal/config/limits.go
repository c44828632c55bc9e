package config

const (
	// DefaultVersion is the version label a document starts with and the one
	// access checks fall back to when the caller names none.
	DefaultVersion = "1"

	// MaxDocumentIDLength is the maximum length for caller-chosen document
	// ids. Ids also appear in URLs, so they stay short.
	MaxDocumentIDLength = 128

	// MaxVersionLength is the maximum length for version labels.
	MaxVersionLength = 64

	// MaxTagLength is the maximum length for the free-form tag classifier.
	MaxTagLength = 64

	// MaxTitleLength is the maximum length for display titles.
	MaxTitleLength = 255

	// MaxUsernameLength is the maximum length for grantee usernames.
	MaxUsernameLength = 128
)
