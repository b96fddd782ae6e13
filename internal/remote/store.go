// Package remote talks to the hosted profile store. All calls are
// latency-bound and failure-prone; callers race them against a context
// deadline and treat network/timeout failures as the offline path.
package remote

import (
	"context"
	"io"

	"hydrosnap-client/internal/domain/profile"
)

// ProfileStore is the boundary to the remote profiles table and the
// avatar object bucket.
type ProfileStore interface {
	// ReadByID returns the current server-side profile, or a not-found
	// error when no row exists for the id.
	ReadByID(ctx context.Context, id string) (*profile.Profile, error)

	// Update applies a partial patch and returns the authoritative row
	// as stored by the server (including server-computed fields).
	Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error)

	// Insert creates the profile row. A duplicate id is reported as a
	// conflict error; callers fall back to a read.
	Insert(ctx context.Context, p profile.Profile) (*profile.Profile, error)

	// UploadAvatar stores the avatar object for the user and returns
	// its public URL.
	UploadAvatar(ctx context.Context, userID, filename string, data io.Reader, contentType string) (string, error)
}
