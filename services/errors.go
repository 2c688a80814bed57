package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrForbidden means the policy denied the action.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrNotFound means the addressed article or comment does not exist.
	ErrNotFound = errors.New("not found")
)

// Reasons a reply is rejected.
const (
	ReasonReplyNotFound   = "Reply-to comment not found."
	ReasonReplyOtherTopic = "Comment being replied to must be on the same article."
)

// ReplyIntegrityError rejects a reply whose target is missing or belongs to
// another article.
type ReplyIntegrityError struct {
	Reason string
}

func (e *ReplyIntegrityError) Error() string { return e.Reason }

// ValidationError carries per-field problems with a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
