package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "hydrosnap-client/pkg/errors"
)

func strPtr(s string) *string { return &s }

func validProfile() Profile {
	return Profile{
		ID:       "user-1",
		Email:    "ana@hydrosnap.example",
		FullName: "Ana Silva",
		Role:     RoleCentralAnalyst,
	}
}

func TestProfile_Validate_Success(t *testing.T) {
	p := validProfile()

	require.NoError(t, p.Validate())
}

func TestProfile_Validate_FieldPersonnelRequiresSite(t *testing.T) {
	p := validProfile()
	p.Role = RoleFieldPersonnel

	err := p.Validate()

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	p.SiteID = strPtr("ST-042")
	require.NoError(t, p.Validate())
}

func TestProfile_Validate_BadEmail(t *testing.T) {
	p := validProfile()
	p.Email = "not-an-email"

	err := p.Validate()

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestProfile_Validate_UnknownRole(t *testing.T) {
	p := validProfile()
	p.Role = Role("superuser")

	err := p.Validate()

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPatch_Apply_OverwritesOnlySetFields(t *testing.T) {
	p := validProfile()
	p.Location = strPtr("Porto Velho")

	patch := Patch{
		FullName: strPtr("Ana Souza"),
		Phone:    strPtr("555-0142"),
	}
	patch.Apply(&p)

	assert.Equal(t, "Ana Souza", p.FullName)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "555-0142", *p.Phone)
	// Unrelated pre-existing fields stay untouched.
	require.NotNil(t, p.Location)
	assert.Equal(t, "Porto Velho", *p.Location)
	assert.Equal(t, "ana@hydrosnap.example", p.Email)
}

func TestPatch_Merge_LastValueWinsPerField(t *testing.T) {
	first := Patch{Location: strPtr("A"), FullName: strPtr("Old Name")}
	second := Patch{Phone: strPtr("555"), FullName: strPtr("New Name")}

	merged := first.Merge(second)

	require.NotNil(t, merged.Location)
	assert.Equal(t, "A", *merged.Location)
	require.NotNil(t, merged.Phone)
	assert.Equal(t, "555", *merged.Phone)
	require.NotNil(t, merged.FullName)
	assert.Equal(t, "New Name", *merged.FullName)
}

func TestPatch_IsZero(t *testing.T) {
	assert.True(t, Patch{}.IsZero())
	assert.False(t, Patch{Email: strPtr("x@y.z")}.IsZero())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleFieldPersonnel.Valid())
	assert.True(t, RolePublic.Valid())
	assert.False(t, Role("admin").Valid())
}
