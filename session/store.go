package session

import (
	"context"
	"errors"
	"log/slog"
)

// Store is the single durable record of session state. It wraps a Storage
// with the token codec and the fail-closed read policy.
type Store struct {
	storage Storage
	key     string
	logger  *slog.Logger
}

// NewStore returns a Store writing under key (DefaultKey when empty). A nil
// storage behaves as disabled storage.
func NewStore(storage Storage, key string, logger *slog.Logger) *Store {
	if storage == nil {
		storage = Disabled()
	}
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage: storage,
		key:     key,
		logger:  logger,
	}
}

// Key returns the record key.
func (s *Store) Key() string {
	return s.key
}

// Load returns the persisted pair, or the sentinel when the record is absent,
// the storage is unavailable, or the record cannot be decoded. Load never
// fails.
func (s *Store) Load(ctx context.Context) TokenPair {
	if s == nil {
		return Sentinel()
	}
	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("token storage read failed", slog.String("key", s.key), slog.String("error", err.Error()))
		}
		return Sentinel()
	}

	pair, err := Decode(data)
	if err != nil {
		s.logger.Warn("persisted token record ignored", slog.String("key", s.key), slog.String("error", err.Error()))
		return Sentinel()
	}
	return pair
}

// Save persists pair, replacing the previous record.
func (s *Store) Save(ctx context.Context, pair TokenPair) error {
	if s == nil {
		return ErrStorageUnavailable
	}
	data, err := Encode(pair)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, s.key, data)
}

// Clear removes the persisted record.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil {
		return ErrStorageUnavailable
	}
	return s.storage.Delete(ctx, s.key)
}
