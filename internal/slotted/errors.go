package slotted

import "errors"

var (
	// ErrOutOfSpace is returned by Insert when the payload region cannot
	// hold another slot directory entry or data record.
	ErrOutOfSpace = errors.New("slotted: out of space")
	// ErrKeyNotFound is returned by Remove when no live slot has the key.
	ErrKeyNotFound = errors.New("slotted: key not found")
	// ErrSlotNotFound is returned by RemoveAt on an already-cleared slot.
	ErrSlotNotFound = errors.New("slotted: slot not found")
)
