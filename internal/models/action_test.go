package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeReportLine(t *testing.T) {
	cases := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{"applied delete", Outcome{Action: ActionDelete, Kind: OutcomeApplied, Detail: "5 messages"}, "Deleted 5 messages"},
		{"applied timeout", Outcome{Action: ActionTimeout, Kind: OutcomeApplied, Detail: "for 10s"}, "Timed out for 10s"},
		{"missing permission", Outcome{Action: ActionKick, Kind: OutcomeMissingPermission}, "Missing permissions"},
		{"disabled", Outcome{Action: ActionTimeout, Kind: OutcomeDisabled}, "Disabled"},
		{"failed", Outcome{Action: ActionKick, Kind: OutcomeFailed, Err: errors.New("boom")}, "Failed: boom"},
		{"kick with dm", Outcome{Action: ActionKick, Kind: OutcomeApplied, NoticeAttempted: true}, "Kicked (member notified by DM)"},
		{"kick dm blocked", Outcome{Action: ActionKick, Kind: OutcomeApplied, NoticeAttempted: true, NoticeErr: errors.New("403")}, "Kicked (could not DM member)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.outcome.ReportLine())
		})
	}
}

func TestStructuralKindString(t *testing.T) {
	assert.Equal(t, "role-create", StructuralRoleCreate.String())
	assert.Equal(t, "nickname-change", StructuralNicknameChange.String())
	assert.Equal(t, "unknown", StructuralKind(0).String())
	assert.Len(t, StructuralKinds(), 9)
}

func TestReportFields(t *testing.T) {
	r := NewReport("G1", "spam", "message-flood", "A member is spamming")
	r.AddField("Member", "alice").AddOutcome("Timeout", Outcome{Action: ActionTimeout, Kind: OutcomeDisabled})

	assert.NotEmpty(t, r.ID)
	v, ok := r.Field("Timeout")
	assert.True(t, ok)
	assert.Equal(t, "Disabled", v)

	_, ok = r.Field("Missing")
	assert.False(t, ok)
}
