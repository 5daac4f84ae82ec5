package middleware

import (
	"errors"
	"unicode/utf8"
)

const (
	maxMessageLength = 100000
	maxUserIDLength  = 128
)

// ValidateMessageContent checks an inbound or outbound message body.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("message cannot be empty")
	}
	if len(content) > maxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateUserID checks a conversation key taken from the path or body.
func ValidateUserID(id string) error {
	if len(id) == 0 {
		return errors.New("userId cannot be empty")
	}
	if len(id) > maxUserIDLength {
		return errors.New("userId exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("userId must be valid UTF-8")
	}
	return nil
}
