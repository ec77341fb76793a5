package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dErrors "carbonregistry/pkg/domain-errors"
)

func validHash() []byte { return make([]byte, DocumentHashLength) }

func newTestProject(t *testing.T) *Project {
	t.Helper()
	p, err := NewProject(1, "alice", validHash(), "T", "D", "L", 100, 500, 7)
	require.NoError(t, err)
	return p
}

func TestNewProjectHashLength(t *testing.T) {
	for _, n := range []int{0, 31, 33, 64} {
		_, err := NewProject(1, "alice", make([]byte, n), "T", "D", "L", 100, 500, 1)
		require.Error(t, err, "hash length %d", n)
		require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidHash))
	}

	p, err := NewProject(1, "alice", validHash(), "T", "D", "L", 100, 500, 1)
	require.NoError(t, err)
	require.Len(t, p.DocumentHash, DocumentHashLength)
}

func TestNewProjectDefaults(t *testing.T) {
	p := newTestProject(t)
	require.Equal(t, StatusPending, p.Status)
	require.True(t, p.Visible)
	require.Equal(t, uint64(7), p.RegisteredAt)
	require.Equal(t, uint64(1), p.NextUpdateSeq)
	require.Equal(t, uint64(1), p.NextTransferSeq)
}

func TestNewProjectCopiesHash(t *testing.T) {
	hash := validHash()
	p, err := NewProject(1, "alice", hash, "T", "D", "L", 100, 500, 1)
	require.NoError(t, err)
	hash[0] = 0xff
	require.Zero(t, p.DocumentHash[0])
}

func TestNewProjectFieldCaps(t *testing.T) {
	cases := []struct {
		name                         string
		title, description, location string
	}{
		{"title too long", strings.Repeat("t", MaxTitleLength+1), "D", "L"},
		{"description too long", "T", strings.Repeat("d", MaxDescription+1), "L"},
		{"location too long", "T", "D", strings.Repeat("l", MaxLocationLength+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProject(1, "alice", validHash(), tc.title, tc.description, tc.location, 100, 500, 1)
			require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidLength))
		})
	}

	// Exactly at the cap is fine.
	_, err := NewProject(1, "alice", validHash(),
		strings.Repeat("t", MaxTitleLength),
		strings.Repeat("d", MaxDescription),
		strings.Repeat("l", MaxLocationLength),
		100, 500, 1)
	require.NoError(t, err)
}

func TestNewProjectPositiveFigures(t *testing.T) {
	_, err := NewProject(1, "alice", validHash(), "T", "D", "L", 0, 500, 1)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParameter))

	_, err = NewProject(1, "alice", validHash(), "T", "D", "L", 100, 0, 1)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParameter))
}

func TestValidateTags(t *testing.T) {
	require.NoError(t, ValidateTags(nil))
	require.NoError(t, ValidateTags([]string{"a", "b"}))

	eleven := make([]string, MaxTags+1)
	err := ValidateTags(eleven)
	require.True(t, dErrors.HasCode(err, dErrors.CodeTagLimitExceeded))

	err = ValidateTags([]string{strings.Repeat("x", MaxTagLength+1)})
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidLength))
}

func TestCanUpdateMetadataNoteUsesDescriptionCap(t *testing.T) {
	p := newTestProject(t)
	require.NoError(t, p.CanUpdateMetadata("T2", "D2", "L2", strings.Repeat("n", MaxDescription)))

	err := p.CanUpdateMetadata("T2", "D2", "L2", strings.Repeat("n", MaxDescription+1))
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidLength))
}

func TestApplyMetadataLeavesLifecycleAlone(t *testing.T) {
	p := newTestProject(t)
	p.ApplyMetadata("T2", "D2", "L2")
	require.Equal(t, "T2", p.Title)
	require.Equal(t, StatusPending, p.Status)
	require.Equal(t, "alice", p.Owner.String())
	require.True(t, p.Visible)
}

func TestCanTransferTo(t *testing.T) {
	p := newTestProject(t)
	err := p.CanTransferTo("alice")
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidOwner))

	err = p.CanTransferTo("")
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidOwner))

	require.NoError(t, p.CanTransferTo("bob"))
}

func TestCanSetStatus(t *testing.T) {
	p := newTestProject(t)
	err := p.CanSetStatus(StatusPending)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatus))

	err = p.CanSetStatus("")
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatus))

	// Any non-empty, different label is accepted, not just the documented set.
	require.NoError(t, p.CanSetStatus(StatusVerified))
	require.NoError(t, p.CanSetStatus("under-review"))
}

func TestToggleVisibility(t *testing.T) {
	p := newTestProject(t)
	require.False(t, p.ToggleVisibility())
	require.True(t, p.ToggleVisibility())
}

func TestSequenceAllocation(t *testing.T) {
	p := newTestProject(t)
	require.Equal(t, uint64(1), p.AllocateUpdateSeq())
	require.Equal(t, uint64(2), p.AllocateUpdateSeq())
	require.Equal(t, uint64(1), p.AllocateTransferSeq())
	require.Equal(t, uint64(3), p.AllocateUpdateSeq())
}

func TestCollaboratorInvariants(t *testing.T) {
	now := time.Now()

	_, err := NewCollaborator(1, "", "verifier", nil, now)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParameter))

	_, err = NewCollaborator(1, "bob", strings.Repeat("r", MaxRoleLength+1), nil, now)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidLength))

	_, err = NewCollaborator(1, "bob", "verifier", make([]string, MaxPermissions+1), now)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParameter))

	c, err := NewCollaborator(1, "bob", "verifier", []string{PermissionUpdateStatus}, now)
	require.NoError(t, err)
	require.True(t, c.Grants(PermissionUpdateStatus))
	require.False(t, c.Grants("update-metadata"))
}

func TestCollaboratorGrantsExactMatch(t *testing.T) {
	c, err := NewCollaborator(1, "bob", "verifier", []string{"Update-Status"}, time.Now())
	require.NoError(t, err)
	require.False(t, c.Grants(PermissionUpdateStatus))
}

func TestRegistryStateAllocation(t *testing.T) {
	st := RegistryState{}
	require.Equal(t, "1", st.AllocateProjectID().String())
	require.Equal(t, "2", st.AllocateProjectID().String())
	require.Equal(t, uint64(2), st.ProjectCounter)
}
