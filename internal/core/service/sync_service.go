package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ITensEI/HCGateway/internal/core/crypto"
	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

type syncService struct {
	users   ports.UserRepository
	records ports.RecordRepository
	audit   ports.AuditSink
	log     zerolog.Logger
}

// NewSyncService returns a SyncService implementation. audit may be nil.
func NewSyncService(
	users ports.UserRepository,
	records ports.RecordRepository,
	audit ports.AuditSink,
	log zerolog.Logger,
) ports.SyncService {
	return &syncService{
		users:   users,
		records: records,
		audit:   audit,
		log:     log,
	}
}

// Upsert validates the whole batch before touching the store, then writes
// each record, updating the ones that already exist. Store failures do not
// stop the batch; they are reported together once every record was tried.
func (s *syncService) Upsert(ctx context.Context, p domain.Partition, raw []map[string]any) error {
	if err := validatePartition(p); err != nil {
		return err
	}

	// 1. Parse everything up front so a bad record leaves no partial writes.
	records := make([]*domain.Record, 0, len(raw))
	for i, fields := range raw {
		rec, err := domain.ParseRecord(fields)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}

	// 2. Encrypt with the owner's key.
	key, err := s.userKey(ctx, p.UserID)
	if err != nil {
		return err
	}
	docs := make([]*domain.StoredRecord, 0, len(records))
	for _, rec := range records {
		data, err := crypto.Encrypt(key, rec.Payload)
		if err != nil {
			return fmt.Errorf("encrypt record %s: %w", rec.ID, err)
		}
		start, end := rec.Range.Bounds()
		docs = append(docs, &domain.StoredRecord{
			ID:    rec.ID,
			Data:  data,
			App:   rec.Origin,
			Start: start,
			End:   end,
		})
	}

	// 3. Write; later duplicates of an ID in the same batch win.
	var failed []error
	for _, doc := range docs {
		if err := s.write(ctx, p, doc); err != nil {
			s.log.Error().Err(err).
				Str("user_id", p.UserID).
				Str("record_type", p.RecordType).
				Str("record_id", doc.ID).
				Msg("record write failed")
			failed = append(failed, fmt.Errorf("record %s: %w", doc.ID, err))
		}
	}

	from, to := domain.BatchSpan(records)
	s.log.Info().
		Str("user_id", p.UserID).
		Str("record_type", p.RecordType).
		Int("count", len(docs)-len(failed)).
		Str("from", from).
		Str("to", to).
		Msg("records synced")

	s.emit(domain.SyncEvent{
		UserID:     p.UserID,
		RecordType: p.RecordType,
		Op:         domain.SyncOpUpsert,
		Count:      len(docs) - len(failed),
		From:       from,
		To:         to,
	})

	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d records not stored: %w",
			domain.ErrDependencyUnavailable, len(failed), len(docs), errors.Join(failed...))
	}
	return nil
}

func (s *syncService) write(ctx context.Context, p domain.Partition, doc *domain.StoredRecord) error {
	err := s.records.Insert(ctx, p, doc)
	if errors.Is(err, domain.ErrRecordExists) {
		return s.records.Update(ctx, p, doc)
	}
	return err
}

// Fetch decrypts and rehydrates every record matching filter.
func (s *syncService) Fetch(ctx context.Context, p domain.Partition, filter domain.Filter) ([]map[string]any, error) {
	if err := validatePartition(p); err != nil {
		return nil, err
	}

	query, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	key, err := s.userKey(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	docs, err := s.records.Find(ctx, p, query)
	if err != nil {
		return nil, fmt.Errorf("%w: find records: %w", domain.ErrDependencyUnavailable, err)
	}

	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		payload, err := crypto.Decrypt(key, doc.Data)
		if err != nil {
			s.log.Error().Err(err).
				Str("user_id", p.UserID).
				Str("record_type", p.RecordType).
				Str("record_id", doc.ID).
				Msg("stored record could not be decrypted")
			return nil, fmt.Errorf("record %s: %w", doc.ID, err)
		}
		rec := &domain.Record{
			ID:      doc.ID,
			Origin:  doc.App,
			Range:   domain.TimeRangeFromBounds(doc.Start, doc.End),
			Payload: payload,
		}
		out = append(out, rec.Fields())
	}

	s.emit(domain.SyncEvent{
		UserID:     p.UserID,
		RecordType: p.RecordType,
		Op:         domain.SyncOpFetch,
		Count:      len(out),
	})
	return out, nil
}

// Delete removes the listed IDs. Unknown IDs are ignored.
func (s *syncService) Delete(ctx context.Context, p domain.Partition, ids []string) error {
	if err := validatePartition(p); err != nil {
		return err
	}
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: empty record id", domain.ErrInvalidRequest)
		}
	}

	var failed []error
	for _, id := range ids {
		if err := s.records.Delete(ctx, p, id); err != nil {
			s.log.Error().Err(err).
				Str("user_id", p.UserID).
				Str("record_type", p.RecordType).
				Str("record_id", id).
				Msg("record delete failed")
			failed = append(failed, fmt.Errorf("record %s: %w", id, err))
		}
	}

	s.emit(domain.SyncEvent{
		UserID:     p.UserID,
		RecordType: p.RecordType,
		Op:         domain.SyncOpDelete,
		Count:      len(ids) - len(failed),
	})

	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d deletes failed: %w",
			domain.ErrDependencyUnavailable, len(failed), len(ids), errors.Join(failed...))
	}
	return nil
}

// userKey derives the record key of userID from their current password hash.
func (s *syncService) userKey(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load user: %w", domain.ErrDependencyUnavailable, err)
	}
	return crypto.DeriveKey(user.PasswordHash), nil
}

func (s *syncService) emit(ev domain.SyncEvent) {
	if s.audit == nil {
		return
	}
	ev.At = time.Now().UTC()
	s.audit.Enqueue(ev)
}

func validatePartition(p domain.Partition) error {
	if p.UserID == "" {
		return domain.ErrInvalidToken
	}
	if p.RecordType == "" {
		return fmt.Errorf("%w: record type is required", domain.ErrInvalidRequest)
	}
	return nil
}
