package model

import "strconv"

// Family selects which entity family a status applies to. The original
// design specialized behavior per family at compile time; a runtime enum
// keeps the three variants uniformly testable.
type Family int

const (
	FamilyIssue Family = iota
	FamilyPatch
	FamilyPullRequest
)

func (f Family) String() string {
	switch f {
	case FamilyIssue:
		return "issue"
	case FamilyPatch:
		return "patch"
	default:
		return "pull request"
	}
}

// Kind returns the event kind of the family's root entity.
func (f Family) Kind() int {
	switch f {
	case FamilyIssue:
		return KindIssue
	case FamilyPatch:
		return KindPatch
	default:
		return KindPullRequest
	}
}

// Status is the computed lifecycle state of an issue, patch, or pull
// request. It is never stored on the entity; it is derived from the newest
// authorized status event at query time.
type Status int

const (
	StatusOpen Status = iota
	// StatusMergedApplied doubles as "Resolved" for issues; both map to the
	// same wire kind.
	StatusMergedApplied
	StatusClosed
	StatusDraft
)

// StatusKinds lists the wire kinds a family's status query must match.
func StatusKinds(f Family) []int {
	kinds := []int{KindStatusOpen, KindStatusMergedApplied, KindStatusClosed}
	if f != FamilyIssue {
		kinds = append(kinds, KindStatusDraft)
	}
	return kinds
}

// Kind maps the status to its wire kind. The mapping is bijective per
// family.
func (s Status) Kind() int {
	switch s {
	case StatusMergedApplied:
		return KindStatusMergedApplied
	case StatusClosed:
		return KindStatusClosed
	case StatusDraft:
		return KindStatusDraft
	default:
		return KindStatusOpen
	}
}

// StatusFromKind decodes a wire kind into a status for the given family.
// Unknown kinds fail decoding; they never silently default to Open.
func StatusFromKind(f Family, kind int) (Status, error) {
	switch kind {
	case KindStatusOpen:
		return StatusOpen, nil
	case KindStatusMergedApplied:
		return StatusMergedApplied, nil
	case KindStatusClosed:
		return StatusClosed, nil
	case KindStatusDraft:
		if f != FamilyIssue {
			return StatusDraft, nil
		}
	}
	return 0, &DecodeError{What: f.String() + " status kind", Raw: strconv.Itoa(kind)}
}

// Display renders the status for humans, respecting the family vocabulary.
func (s Status) Display(f Family) string {
	switch s {
	case StatusMergedApplied:
		if f == FamilyIssue {
			return "Resolved"
		}
		return "Merged/Applied"
	case StatusClosed:
		return "Closed"
	case StatusDraft:
		return "Draft"
	default:
		return "Open"
	}
}

func (s Status) IsOpen() bool          { return s == StatusOpen }
func (s Status) IsMergedApplied() bool { return s == StatusMergedApplied }
func (s Status) IsClosed() bool        { return s == StatusClosed }
func (s Status) IsDraft() bool         { return s == StatusDraft }
