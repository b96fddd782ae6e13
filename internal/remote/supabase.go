package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"hydrosnap-client/internal/domain/profile"
	apperrors "hydrosnap-client/pkg/errors"
)

// SupabaseConfig carries the connection settings for the hosted store.
type SupabaseConfig struct {
	URL          string
	ProfileTable string
	AvatarBucket string
}

// SupabaseStore implements ProfileStore over PostgREST and the storage
// bucket of a Supabase project.
type SupabaseStore struct {
	client *supabase.Client
	cfg    SupabaseConfig
	logger *zap.Logger
}

// NewSupabaseStore wraps an initialized supabase client.
func NewSupabaseStore(client *supabase.Client, cfg SupabaseConfig, logger *zap.Logger) *SupabaseStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProfileTable == "" {
		cfg.ProfileTable = "profiles"
	}
	if cfg.AvatarBucket == "" {
		cfg.AvatarBucket = "avatars"
	}
	return &SupabaseStore{client: client, cfg: cfg, logger: logger}
}

// execute races a blocking client call against the context deadline.
// The underlying HTTP client does not take a context, so the loser's
// eventual settlement lands in the buffered channel and is discarded;
// it can never mutate state after the timeout branch has committed.
func (s *SupabaseStore) execute(ctx context.Context, op string, run func() ([]byte, error)) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		data, err := run()
		ch <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		s.logger.Debug("Remote call abandoned", zap.String("op", op), zap.Error(ctx.Err()))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewTimeout(op+" exceeded deadline", ctx.Err())
		}
		return nil, apperrors.NewNetwork(op+" cancelled", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, classifyRemoteError(op, r.err)
		}
		return r.data, nil
	}
}

// classifyRemoteError maps transport-level failures onto the error
// taxonomy. PostgREST surfaces constraint violations as opaque error
// strings, so conflicts are detected by the Postgres error code.
func classifyRemoteError(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "23505") || strings.Contains(strings.ToLower(msg), "duplicate key") {
		return apperrors.NewConflict(op+" hit an existing row", err)
	}
	return apperrors.NewNetwork(op+" failed", err)
}

func decodeRows(op string, data []byte) ([]profile.Profile, error) {
	var rows []profile.Profile
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, apperrors.NewInternal(op+": unexpected response shape", err)
	}
	return rows, nil
}

// ReadByID performs a point read on the profiles table.
func (s *SupabaseStore) ReadByID(ctx context.Context, id string) (*profile.Profile, error) {
	data, err := s.execute(ctx, "read profile", func() ([]byte, error) {
		data, _, err := s.client.From(s.cfg.ProfileTable).
			Select("*", "", false).
			Eq("id", id).
			Execute()
		return data, err
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows("read profile", data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFound(fmt.Sprintf("no profile row for id %s", id))
	}
	return &rows[0], nil
}

// Update patches the row and returns the server's representation of it.
func (s *SupabaseStore) Update(ctx context.Context, id string, patch profile.Patch) (*profile.Profile, error) {
	if patch.IsZero() {
		return nil, apperrors.NewValidation("empty profile patch")
	}

	data, err := s.execute(ctx, "update profile", func() ([]byte, error) {
		data, _, err := s.client.From(s.cfg.ProfileTable).
			Update(patch, "representation", "").
			Eq("id", id).
			Execute()
		return data, err
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows("update profile", data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFound(fmt.Sprintf("no profile row for id %s", id))
	}
	return &rows[0], nil
}

// Insert creates the row, reporting a duplicate id as a conflict.
func (s *SupabaseStore) Insert(ctx context.Context, p profile.Profile) (*profile.Profile, error) {
	data, err := s.execute(ctx, "insert profile", func() ([]byte, error) {
		data, _, err := s.client.From(s.cfg.ProfileTable).
			Insert(p, false, "", "representation", "").
			Execute()
		return data, err
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows("insert profile", data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewInternal("insert profile: server returned no row", nil)
	}
	return &rows[0], nil
}

// UploadAvatar stores the object under <userID>/<filename> and returns
// the public URL the profile row should reference.
func (s *SupabaseStore) UploadAvatar(ctx context.Context, userID, filename string, data io.Reader, contentType string) (string, error) {
	objectPath := fmt.Sprintf("%s/%s", userID, filename)
	upsert := true

	_, err := s.execute(ctx, "upload avatar", func() ([]byte, error) {
		_, err := s.client.Storage.UploadFile(s.cfg.AvatarBucket, objectPath, data, storage_go.FileOptions{
			ContentType: &contentType,
			Upsert:      &upsert,
		})
		return nil, err
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		strings.TrimRight(s.cfg.URL, "/"), s.cfg.AvatarBucket, objectPath)
	return url, nil
}
