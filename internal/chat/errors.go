package chat

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for the transport layers.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "infrastructure"
	}
}

// Error is a recoverable business failure. Two errors match under errors.Is when
// their codes are equal, so the package-level sentinels can be compared against
// errors that carry extra detail.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// ChatID is the existing chat for duplicate_chat.
	ChatID uint
	// UserID names the missing user for user_not_found.
	UserID uint
	// Fields holds per-field reasons for validation_failed.
	Fields map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrChatNotFound        = &Error{Kind: KindNotFound, Code: "chat_not_found", Message: "Chat not found"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Code: "user_not_found", Message: "User not found"}
	ErrForbidden           = &Error{Kind: KindAuthorization, Code: "forbidden", Message: "Only the chat owner can do this"}
	ErrNotAParticipant     = &Error{Kind: KindAuthorization, Code: "not_a_participant", Message: "You are not a participant of this chat"}
	ErrCannotRemoveOwner   = &Error{Kind: KindAuthorization, Code: "cannot_remove_owner", Message: "The chat owner cannot be removed"}
	ErrDuplicateChat       = &Error{Kind: KindConflict, Code: "duplicate_chat", Message: "A direct chat with this user already exists"}
	ErrAlreadyAParticipant = &Error{Kind: KindConflict, Code: "already_a_participant", Message: "User is already a participant"}
	ErrNotAGroupChat       = &Error{Kind: KindConflict, Code: "not_a_group_chat", Message: "This operation is only available for group chats"}
	ErrUserNotAParticipant = &Error{Kind: KindConflict, Code: "user_not_a_participant", Message: "User is not a participant of this chat"}
	ErrValidation          = &Error{Kind: KindValidation, Code: "validation_failed", Message: "Validation failed"}
)

func duplicateChat(chatID uint) *Error {
	e := *ErrDuplicateChat
	e.ChatID = chatID
	return &e
}

func userNotFound(userID uint) *Error {
	e := *ErrUserNotFound
	e.UserID = userID
	e.Message = fmt.Sprintf("User %d not found", userID)
	return &e
}

func validation(field, reason string) *Error {
	e := *ErrValidation
	e.Fields = map[string]string{field: reason}
	return &e
}

// KindOf returns the Kind of err, or KindInfrastructure for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}
