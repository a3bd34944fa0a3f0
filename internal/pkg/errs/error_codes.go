/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in notices sent back to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidEnvelope indicates that an incoming datagram could not be decoded.
	ErrInvalidEnvelope = 1002

	// ErrFieldTooLong indicates that a bounded envelope field exceeded its limit.
	ErrFieldTooLong = 1003

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1004
)

// 2xxx: Directory Business Logic Errors
const (
	// ErrUserNotFound indicates that the named user is absent from the directory.
	ErrUserNotFound = 2101

	// ErrDuplicateActive indicates a registration attempt for a currently active username.
	ErrDuplicateActive = 2102

	// ErrCapacityExceeded indicates that a bounded directory table is full.
	ErrCapacityExceeded = 2103

	// ErrGroupNotFound indicates that the named group is absent from the directory.
	ErrGroupNotFound = 2201

	// ErrAlreadyMember indicates that the user already belongs to the group.
	ErrAlreadyMember = 2202

	// ErrGroupFull indicates that the group has reached its member capacity.
	ErrGroupFull = 2203

	// ErrNotMember indicates that the user is not a member of the group.
	ErrNotMember = 2204

	// ErrAlreadyAdmin indicates that the user is already an administrator of the group.
	ErrAlreadyAdmin = 2301

	// ErrNotAdmin indicates that the user is not an administrator of the group.
	ErrNotAdmin = 2302

	// ErrLastAdmin indicates a demotion that would leave the group without administrators.
	ErrLastAdmin = 2303

	// ErrSelfMerge indicates an attempt to merge a group into itself.
	ErrSelfMerge = 2401

	// ErrSelfAction indicates an admin action targeting the requester themselves.
	ErrSelfAction = 2402
)

// 3xxx: Authorization and Session Errors
const (
	// ErrUnauthorized indicates a non-admin attempting an admin-only action.
	ErrUnauthorized = 3001

	// ErrTimeout indicates that a client-side wait for a correlated response expired.
	ErrTimeout = 3002
)

// 4xxx: Transport Errors
const (
	// ErrTransportUnavailable indicates a send or receive failure at the transport boundary.
	ErrTransportUnavailable = 4001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrSnapshotFailed indicates a failure persisting or restoring the directory snapshot.
	ErrSnapshotFailed = 5001
)
