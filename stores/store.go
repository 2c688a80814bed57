// Package stores persists users, articles and comments with GORM. Cascading
// deletes are applied here, inside transactions, rather than by foreign keys.
package stores

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrTitleTaken is returned when another article already uses the title.
var ErrTitleTaken = errors.New("article with this title already exists")

// ErrUsernameTaken is returned when the username is already registered.
var ErrUsernameTaken = errors.New("a user with that username already exists")

// ErrUnknownGroup is returned when assigning a group that does not exist.
var ErrUnknownGroup = errors.New("unknown group")
