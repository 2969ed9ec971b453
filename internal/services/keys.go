package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/pkg/models"
)

var ErrKeyNotFound = errors.New("key not found")

// KeyService persists API key records and decides whether a presented
// secret authorizes a request. The store only ever sees the fingerprint and
// the display suffix; the plaintext leaves the service exactly once, in the
// Create return value.
type KeyService struct {
	db      DatabaseQuerier
	codec   *KeyCodec
	logger  *logrus.Logger
	metrics *Metrics
}

type CreateKeyInput struct {
	Name     string
	Period   string
	Origin   string
	Value    int
	ImageURL *string
}

// CreatedKey pairs the persisted record with the one-time plaintext secret.
type CreatedKey struct {
	Record    models.APIKey
	Plaintext string
}

// KeyRef is the minimal projection returned by name lookups.
type KeyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewKeyService(db DatabaseQuerier, codec *KeyCodec, logger *logrus.Logger, metrics *Metrics) *KeyService {
	return &KeyService{
		db:      db,
		codec:   codec,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *KeyService) Codec() *KeyCodec {
	return s.codec
}

func (s *KeyService) Create(ctx context.Context, input CreateKeyInput) (*CreatedKey, error) {
	secret, last4, err := s.codec.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}

	record := models.APIKey{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Period:    input.Period,
		Origin:    input.Origin,
		Value:     input.Value,
		ImageURL:  input.ImageURL,
		HashedKey: s.codec.Fingerprint(secret),
		Last4:     last4,
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO api_keys (id, name, period, origin, value, image_url, hashed_key, last4)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		record.ID, record.Name, record.Period, record.Origin, record.Value,
		record.ImageURL, record.HashedKey, record.Last4,
	).Scan(&record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert key: %w", err)
	}

	s.metrics.KeysIssued.Inc()
	s.logger.WithFields(logrus.Fields{
		"key_id": record.ID,
		"name":   record.Name,
	}).Info("API key issued")

	return &CreatedKey{Record: record, Plaintext: secret}, nil
}

// List returns every key record, newest first. Hashes stay in the struct
// but are excluded from JSON serialization.
func (s *KeyService) List(ctx context.Context) ([]models.APIKey, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, period, origin, value, image_url, last4, created_at, revoked
		 FROM api_keys
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.Period, &k.Origin, &k.Value,
			&k.ImageURL, &k.Last4, &k.CreatedAt, &k.Revoked); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read key rows: %w", err)
	}

	return keys, nil
}

func (s *KeyService) Get(ctx context.Context, id string) (*models.APIKey, error) {
	var k models.APIKey
	err := s.db.QueryRow(ctx,
		`SELECT id, name, period, origin, value, image_url, last4, created_at, revoked
		 FROM api_keys
		 WHERE id = $1`, id).
		Scan(&k.ID, &k.Name, &k.Period, &k.Origin, &k.Value,
			&k.ImageURL, &k.Last4, &k.CreatedAt, &k.Revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}

	return &k, nil
}

// Revoke soft-deletes a key. It reports true whenever the id exists, even
// when the key was already revoked; the flag never reverts.
func (s *KeyService) Revoke(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE api_keys SET revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to revoke key: %w", err)
	}

	revoked := tag.RowsAffected() > 0
	if revoked {
		s.logger.WithField("key_id", id).Info("API key revoked")
	}
	return revoked, nil
}

// Verify maps a presented secret to a verdict. The lookup goes through the
// fingerprint, so no plaintext comparison ever happens.
func (s *KeyService) Verify(ctx context.Context, secret string) (models.Verdict, error) {
	var (
		id      string
		revoked bool
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, revoked FROM api_keys WHERE hashed_key = $1`,
		s.codec.Fingerprint(secret)).Scan(&id, &revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		s.metrics.KeyVerifications.WithLabelValues("not_found").Inc()
		return models.Verdict{Valid: false, Reason: models.VerifyNotFound}, nil
	}
	if err != nil {
		return models.Verdict{}, fmt.Errorf("failed to verify key: %w", err)
	}

	if revoked {
		s.metrics.KeyVerifications.WithLabelValues("revoked").Inc()
		return models.Verdict{Valid: false, Reason: models.VerifyRevoked}, nil
	}

	s.metrics.KeyVerifications.WithLabelValues("valid").Inc()
	return models.Verdict{Valid: true, KeyID: id}, nil
}

// FindByName returns the keys whose name matches exactly. Used by the echo
// demo endpoint.
func (s *KeyService) FindByName(ctx context.Context, name string) ([]KeyRef, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM api_keys WHERE name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys by name: %w", err)
	}
	defer rows.Close()

	refs := []KeyRef{}
	for rows.Next() {
		var ref KeyRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read key rows: %w", err)
	}

	return refs, nil
}
