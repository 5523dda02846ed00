package service

import "errors"

var (
	// Validation failures, terminal for the triggering action.
	ErrSelfRequest  = errors.New("cannot send a friend request to yourself")
	ErrEmptyMessage = errors.New("message text is empty")

	// Conflicts with existing state.
	ErrAlreadyFriends       = errors.New("users are already friends")
	ErrDuplicateRequest     = errors.New("friend request already sent")
	ErrReverseRequestExists = errors.New("this user already sent you a request; accept it instead")

	ErrNotFound     = errors.New("record not found")
	ErrNotAllowed   = errors.New("operation not allowed for this user")
	ErrUserNotFound = errors.New("user not found")
)

// IsValidation reports whether err is a terminal input-validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrSelfRequest) || errors.Is(err, ErrEmptyMessage) || errors.Is(err, ErrEmptyPost)
}

// IsConflict reports whether err is a conflict with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyFriends) ||
		errors.Is(err, ErrDuplicateRequest) ||
		errors.Is(err, ErrReverseRequestExists)
}
