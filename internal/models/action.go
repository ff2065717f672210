package models

import (
	"fmt"
	"time"
)

type ActionKind uint8

const (
	ActionDelete ActionKind = iota + 1
	ActionTimeout
	ActionKick
	ActionNotify
)

func (a ActionKind) String() string {
	switch a {
	case ActionDelete:
		return "delete"
	case ActionTimeout:
		return "timeout"
	case ActionKick:
		return "kick"
	case ActionNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// Action is one remediation request.
type Action struct {
	Kind ActionKind
	// Duration of a timeout.
	Duration time.Duration
	// Message is the text of a notify action.
	Message string
	// Notice is DMed to the target once the action is authorized, before it runs.
	Notice string
	// Toggle is the guild setting that must be enabled; empty means always on.
	Toggle string
}

func NewDeleteAction(toggle string) Action {
	return Action{Kind: ActionDelete, Toggle: toggle}
}

func NewTimeoutAction(d time.Duration, toggle string) Action {
	return Action{Kind: ActionTimeout, Duration: d, Toggle: toggle}
}

func NewKickAction(notice, toggle string) Action {
	return Action{Kind: ActionKick, Notice: notice, Toggle: toggle}
}

func NewNotifyAction(message, toggle string) Action {
	return Action{Kind: ActionNotify, Message: message, Toggle: toggle}
}

// Target identifies what a remediation acts on.
type Target struct {
	GuildID    string
	ChannelID  string
	UserID     string
	MessageIDs []string
}

type OutcomeKind uint8

const (
	OutcomeApplied OutcomeKind = iota + 1
	OutcomeMissingPermission
	OutcomeDisabled
	OutcomeFailed
)

func (o OutcomeKind) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeMissingPermission:
		return "missing_permission"
	case OutcomeDisabled:
		return "disabled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one remediation attempt.
type Outcome struct {
	Action ActionKind
	Kind   OutcomeKind
	// Detail qualifies an applied outcome, e.g. the number of deleted messages.
	Detail string
	Err    error

	NoticeAttempted bool
	NoticeErr       error
}

func (o Outcome) Applied() bool {
	return o.Kind == OutcomeApplied
}

// ReportLine is the human-readable line used in reports.
func (o Outcome) ReportLine() string {
	var line string
	switch o.Kind {
	case OutcomeApplied:
		line = o.appliedLine()
	case OutcomeMissingPermission:
		line = "Missing permissions"
	case OutcomeDisabled:
		line = "Disabled"
	case OutcomeFailed:
		line = "Failed"
		if o.Err != nil {
			line = fmt.Sprintf("Failed: %v", o.Err)
		}
	default:
		line = "Unknown"
	}

	if o.NoticeAttempted {
		if o.NoticeErr != nil {
			line += " (could not DM member)"
		} else {
			line += " (member notified by DM)"
		}
	}
	return line
}

func (o Outcome) appliedLine() string {
	var base string
	switch o.Action {
	case ActionDelete:
		base = "Deleted"
	case ActionTimeout:
		base = "Timed out"
	case ActionKick:
		base = "Kicked"
	case ActionNotify:
		base = "Sent"
	default:
		base = "Applied"
	}
	if o.Detail != "" {
		return base + " " + o.Detail
	}
	return base
}
