// Package repository contains data access logic separated from HTTP
// handlers.  This file defines sentinel error values reused across the
// repositories so higher layers can distinguish failure scenarios: an
// ownership violation is not the same as a missing row, and a duplicate
// booking is a user-facing message rather than a fault.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into a generic
// "not authorized" response that does not reveal whether the resource
// exists for other users.
var ErrForbidden = errors.New("forbidden")

// ErrEventNotFound is returned when an event cannot be found.
var ErrEventNotFound = errors.New("event not found")

// ErrEventNotOpen is returned when a reservation targets an event that
// has not been approved by an administrator.
var ErrEventNotOpen = errors.New("event not open for booking")

// ErrEventFull is returned when capacity enforcement is on and the event
// already has max_participants reservations.
var ErrEventFull = errors.New("event full")

// ErrAlreadyReserved is returned when the user already holds a spot on
// the event.  This is a business-rule violation, not a system fault.
var ErrAlreadyReserved = errors.New("already reserved")

// ErrEmailExists is returned when registering with an email address that
// is already taken.
var ErrEmailExists = errors.New("email already exists")
