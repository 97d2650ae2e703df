package mad

import "errors"

// Error kinds surfaced to callers. Test with errors.Is.
var (
	// ErrNotConfigured means the API key or client id is missing. No data
	// operation is attempted.
	ErrNotConfigured = errors.New("btmad is not configured: set the API key and client id")

	// ErrAuthorization means sign-in or token refresh failed.
	ErrAuthorization = errors.New("authorization failed: check credentials")

	// ErrLoad means the data document could not be located, created or read.
	ErrLoad = errors.New("loading data failed: verify that the data file is shared with this account and that permissions allow access")

	// ErrSave means the aggregate could not be written. The in-memory state
	// is kept and Persist may be retried.
	ErrSave = errors.New("saving data failed")

	// ErrValidation means a draft was rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the store holds no data, or a referenced entity does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoCurrentUser means the operation needs a selected user.
	ErrNoCurrentUser = errors.New("no user selected: select a user profile first")
)
