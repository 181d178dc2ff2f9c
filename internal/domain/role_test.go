package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"technician", RoleTechnician, false},
		{"expert", RoleExpert, false},
		{"", "", true},
		{"admin", "", true},
		{"Technician", "", true},
		{"expert ", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrUnknownRole, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSessionLogValidate(t *testing.T) {
	valid := SessionLog{TaskType: TaskRepair, Summary: "replaced the pump seal"}
	require.NoError(t, valid.Validate())

	noTask := SessionLog{Summary: "something"}
	require.ErrorIs(t, noTask.Validate(), ErrMissingTaskType)

	noSummary := SessionLog{TaskType: TaskGeneral}
	require.ErrorIs(t, noSummary.Validate(), ErrMissingSummary)
}
