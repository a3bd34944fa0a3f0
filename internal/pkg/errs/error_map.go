/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
client notices and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code
// reported by the ops API.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrInvalidEnvelope:   {Code: ErrInvalidEnvelope, Message: "Malformed message."},
	ErrFieldTooLong:      {Code: ErrFieldTooLong, Message: "Field '%s' is too long."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please slow down.", Status: http.StatusTooManyRequests},

	// 2xxx: Directory Business Logic Errors
	ErrUserNotFound:     {Code: ErrUserNotFound, Message: "User '%s' does not exist or is not connected."},
	ErrDuplicateActive:  {Code: ErrDuplicateActive, Message: "'%s' is already in use."},
	ErrCapacityExceeded: {Code: ErrCapacityExceeded, Message: "The server is full."},
	ErrGroupNotFound:    {Code: ErrGroupNotFound, Message: "Group '%s' does not exist."},
	ErrAlreadyMember:    {Code: ErrAlreadyMember, Message: "'%s' is already a member of the group."},
	ErrGroupFull:        {Code: ErrGroupFull, Message: "Group '%s' is full."},
	ErrNotMember:        {Code: ErrNotMember, Message: "'%s' is not a member of the group."},
	ErrAlreadyAdmin:     {Code: ErrAlreadyAdmin, Message: "'%s' is already an administrator of the group."},
	ErrNotAdmin:         {Code: ErrNotAdmin, Message: "'%s' is not an administrator of the group."},
	ErrLastAdmin:        {Code: ErrLastAdmin, Message: "Cannot demote the last administrator of the group."},
	ErrSelfMerge:        {Code: ErrSelfMerge, Message: "Cannot merge a group with itself."},
	ErrSelfAction:       {Code: ErrSelfAction, Message: "You cannot perform this action on yourself."},

	// 3xxx: Authorization and Session Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Only administrators may perform this action.", Status: http.StatusUnauthorized},
	ErrTimeout:      {Code: ErrTimeout, Message: "No response from the server."},

	// 4xxx: Transport Errors
	ErrTransportUnavailable: {Code: ErrTransportUnavailable, Message: "Could not reach the server."},

	// 5xxx: Internal System Errors
	ErrUnknown:        {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrSnapshotFailed: {Code: ErrSnapshotFailed, Message: "Directory snapshot operation failed.", Status: http.StatusInternalServerError},
}
