package status

import (
	"github.com/nitcli/nit/internal/model"
)

// Guard validates that a transition command is legal from the current
// status. Each command carries its own guard so the error can name the
// exact rule that was violated.
type Guard func(current model.Status) error

func illegal(reason string) error {
	return &model.TransitionError{Reason: reason}
}

// Patch transitions.

func GuardPatchApply(current model.Status) error {
	switch {
	case current.IsMergedApplied():
		return illegal("You can't apply an already applied patch")
	case current.IsClosed():
		return illegal("You can't apply a closed patch")
	case current.IsDraft():
		return illegal("You can't apply a drafted patch")
	}
	return nil
}

func GuardPatchMerge(current model.Status) error {
	switch {
	case current.IsMergedApplied():
		return illegal("You can't merge an already merged/applied patch")
	case current.IsClosed():
		return illegal("You can't merge a closed patch")
	case current.IsDraft():
		return illegal("You can't merge a draft patch")
	}
	return nil
}

func GuardPatchClose(current model.Status) error {
	switch {
	case current.IsClosed():
		return illegal("You can't close an already closed patch")
	case current.IsMergedApplied():
		return illegal("You can't close a merged/applied patch")
	}
	return nil
}

func GuardPatchDraft(current model.Status) error {
	switch {
	case current.IsDraft():
		return illegal("You can't draft an already draft patch")
	case current.IsClosed():
		return illegal("You can't draft a closed patch")
	case current.IsMergedApplied():
		return illegal("You can't draft a merged/applied patch")
	}
	return nil
}

func GuardPatchReopen(current model.Status) error {
	switch {
	case current.IsOpen():
		return illegal("You can't reopen an already open patch")
	case current.IsMergedApplied():
		return illegal("You can't reopen a merged/applied patch")
	}
	return nil
}

// Pull request transitions.

func GuardPRApply(current model.Status) error {
	switch {
	case current.IsMergedApplied():
		return illegal("You can't apply an already applied pull request")
	case current.IsClosed():
		return illegal("You can't apply a closed pull request")
	case current.IsDraft():
		return illegal("Cannot apply a draft pull request")
	}
	return nil
}

func GuardPRMerge(current model.Status) error {
	switch {
	case current.IsMergedApplied():
		return illegal("You can't merge an already merged/applied pull request")
	case current.IsClosed():
		return illegal("You can't merge a closed pull request")
	case current.IsDraft():
		return illegal("You can't merge a draft pull request")
	}
	return nil
}

func GuardPRClose(current model.Status) error {
	switch {
	case current.IsClosed():
		return illegal("You can't close an already closed pull request")
	case current.IsMergedApplied():
		return illegal("You can't close a merged/applied pull request")
	}
	return nil
}

func GuardPRDraft(current model.Status) error {
	switch {
	case current.IsDraft():
		return illegal("You can't draft an already draft pull request")
	case current.IsClosed():
		return illegal("You can't draft a closed pull request")
	case current.IsMergedApplied():
		return illegal("You can't draft a merged/applied pull request")
	}
	return nil
}

func GuardPRReopen(current model.Status) error {
	switch {
	case current.IsOpen():
		return illegal("You can't reopen an already open pull request")
	case current.IsMergedApplied():
		return illegal("You can't reopen a merged/applied pull request")
	}
	return nil
}

// Issue transitions. Issues have no draft state and "resolved" shares
// the merged/applied wire kind.

func GuardIssueClose(current model.Status) error {
	if current.IsClosed() {
		return illegal("You can't close an already closed issue")
	}
	return nil
}

func GuardIssueResolve(current model.Status) error {
	switch {
	case current.IsMergedApplied():
		return illegal("You can't resolve an already resolved issue")
	case current.IsClosed():
		return illegal("You can't resolve a closed issue")
	}
	return nil
}

func GuardIssueReopen(current model.Status) error {
	if current.IsOpen() {
		return illegal("You can't reopen an already open issue")
	}
	return nil
}
