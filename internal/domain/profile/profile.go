// Package profile defines the user profile record synchronized between
// the device cache and the remote profiles table.
package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "hydrosnap-client/pkg/errors"
)

// Role identifies what a user is allowed to do in the monitoring network.
type Role string

const (
	RoleCentralAnalyst Role = "central_analyst"
	RoleSupervisor     Role = "supervisor"
	RoleFieldPersonnel Role = "field_personnel"
	RolePublic         Role = "public"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleCentralAnalyst, RoleSupervisor, RoleFieldPersonnel, RolePublic:
		return true
	}
	return false
}

// Profile is the identity-keyed user record. The JSON tags match the
// column names of the remote profiles table, so the same struct is used
// for the cache payload and the PostgREST row.
type Profile struct {
	ID           string     `json:"id" validate:"required"`
	Email        string     `json:"email" validate:"required,email"`
	Phone        *string    `json:"phone,omitempty"`
	FullName     string     `json:"full_name" validate:"required"`
	Role         Role       `json:"role" validate:"required,oneof=central_analyst supervisor field_personnel public"`
	Organization *string    `json:"organization,omitempty"`
	Location     *string    `json:"location,omitempty"`
	SiteID       *string    `json:"site_id,omitempty"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

var validate = validator.New()

// Validate checks structural validity of the profile. Field personnel
// must carry the site they are assigned to; other roles have no site.
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return apperrors.NewValidation(err.Error())
	}
	if p.Role == RoleFieldPersonnel && (p.SiteID == nil || *p.SiteID == "") {
		return apperrors.NewValidation("site_id is required for field personnel")
	}
	return nil
}

// Patch is a partial update to a profile. Nil fields are untouched;
// set fields overwrite, last value wins. The id is immutable and
// therefore not patchable.
type Patch struct {
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	FullName     *string `json:"full_name,omitempty"`
	Role         *Role   `json:"role,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Location     *string `json:"location,omitempty"`
	SiteID       *string `json:"site_id,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// IsZero reports whether the patch carries no fields at all.
func (p Patch) IsZero() bool {
	return p.Email == nil && p.Phone == nil && p.FullName == nil &&
		p.Role == nil && p.Organization == nil && p.Location == nil &&
		p.SiteID == nil && p.AvatarURL == nil && p.IsActive == nil
}

// Apply overwrites the target profile with the patch's set fields.
// Profile has no nested structures, so a field-wise overwrite is a
// full merge.
func (p Patch) Apply(target *Profile) {
	if p.Email != nil {
		target.Email = *p.Email
	}
	if p.Phone != nil {
		target.Phone = p.Phone
	}
	if p.FullName != nil {
		target.FullName = *p.FullName
	}
	if p.Role != nil {
		target.Role = *p.Role
	}
	if p.Organization != nil {
		target.Organization = p.Organization
	}
	if p.Location != nil {
		target.Location = p.Location
	}
	if p.SiteID != nil {
		target.SiteID = p.SiteID
	}
	if p.AvatarURL != nil {
		target.AvatarURL = p.AvatarURL
	}
	if p.IsActive != nil {
		target.IsActive = p.IsActive
	}
}

// Merge combines two patches; fields set in other win over fields set
// in p. Used to fold a new offline write into an already queued one.
func (p Patch) Merge(other Patch) Patch {
	merged := p
	if other.Email != nil {
		merged.Email = other.Email
	}
	if other.Phone != nil {
		merged.Phone = other.Phone
	}
	if other.FullName != nil {
		merged.FullName = other.FullName
	}
	if other.Role != nil {
		merged.Role = other.Role
	}
	if other.Organization != nil {
		merged.Organization = other.Organization
	}
	if other.Location != nil {
		merged.Location = other.Location
	}
	if other.SiteID != nil {
		merged.SiteID = other.SiteID
	}
	if other.AvatarURL != nil {
		merged.AvatarURL = other.AvatarURL
	}
	if other.IsActive != nil {
		merged.IsActive = other.IsActive
	}
	return merged
}
