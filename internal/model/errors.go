package model

import (
	"errors"
	"fmt"
)

var (
	// ErrRepoNotFound means the repository announcement could not be located
	// on any reachable relay. This also covers the case where no relay was
	// reachable at all; the gateway logs connect failures so the two are
	// distinguishable from the log, not from the error.
	ErrRepoNotFound = errors.New("unable to locate the repository, it may not exist in the given relays")

	ErrEventNotFound = errors.New("event not found in the specified relays")
	ErrIssueNotFound = errors.New("issue not found, make sure it is in the relays and the ID is an issue ID")
	ErrPatchNotFound = errors.New("patch not found, make sure it is in the relays and the ID is a patch ID")
	ErrPRNotFound    = errors.New("pull request not found, make sure it is in the relays and the ID is a pull request ID")

	ErrNotRootPatch = errors.New(`the given patch id is not a root patch, it must contain a ["t", "root"] tag`)
	ErrCannotReply  = errors.New("can't reply to this event: only git issues, patches, pull requests, and their comments can be replied to")

	ErrEmptyCoordinates = errors.New("at least one repository address is required")
	ErrEmptyContent     = errors.New("no content given")
)

// DecodeError reports a wire value that failed to decode into a domain type.
// The offending raw value is kept for diagnosability.
type DecodeError struct {
	What string
	Raw  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.What, e.Raw)
}

// TransitionError names a specific illegal status transition.
type TransitionError struct {
	Reason string
}

func (e *TransitionError) Error() string {
	return e.Reason
}
