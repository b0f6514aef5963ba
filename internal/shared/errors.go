package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthFailed       = fmt.Errorf("authentication failed")

	// Metadata provider errors
	ErrProvider            = fmt.Errorf("provider request failed")
	ErrUnsupportedProvider = fmt.Errorf("unsupported provider")

	// Import errors
	ErrDuplicateEntry = fmt.Errorf("already exists")
	ErrMalformedLine  = fmt.Errorf("malformed line")

	// Persistence errors
	ErrPersistence  = fmt.Errorf("persistence failed")
	ErrSongNotFound = fmt.Errorf("song not found")
	ErrInvalidSong  = fmt.Errorf("invalid song")
	ErrUserNotFound = fmt.Errorf("user not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
