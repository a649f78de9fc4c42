package repository

import (
	"context"
	"database/sql"
	"time"

	"lifeos/internal/model"

	"github.com/lib/pq"
)

const recordColumns = `id, user_id, content, record_types, amount, tags, emotion_score, record_time, created_at, updated_at`

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (model.LifeRecord, error) {
	var r model.LifeRecord
	var types []string
	err := s.Scan(&r.ID, &r.UserID, &r.Content, pq.Array(&types), &r.Amount, pq.Array(&r.Tags),
		&r.EmotionScore, &r.RecordTime, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.RecordTypes = toRecordTypes(types)
	return r, nil
}

func toRecordTypes(names []string) []model.RecordType {
	types := make([]model.RecordType, 0, len(names))
	for _, n := range names {
		if t, ok := model.ParseRecordType(n); ok {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = append(types, model.TypeDiary)
	}
	return types
}

func fromRecordTypes(types []model.RecordType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

func (r *RecordRepository) queryRecords(ctx context.Context, query string, args ...any) ([]model.LifeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.LifeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *RecordRepository) Insert(ctx context.Context, record *model.LifeRecord) error {
	if record.RecordTime.IsZero() {
		record.RecordTime = time.Now()
	}
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}

	return r.db.QueryRowContext(ctx, `
		INSERT INTO life_records(user_id, content, record_types, amount, tags, emotion_score, record_time)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, record.UserID, record.Content, pq.Array(fromRecordTypes(record.RecordTypes)), record.Amount,
		pq.Array(tags), record.EmotionScore, record.RecordTime).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

func (r *RecordRepository) FindByID(ctx context.Context, userID, id int64) (*model.LifeRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM life_records
		WHERE id = $1 AND user_id = $2
	`, id, userID))

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *RecordRepository) FindByUserID(ctx context.Context, userID int64) ([]model.LifeRecord, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM life_records
		WHERE user_id = $1
		ORDER BY record_time DESC
	`, userID)
}

// FindByUserIDAndTimeRange returns records with start <= record_time < end.
func (r *RecordRepository) FindByUserIDAndTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]model.LifeRecord, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM life_records
		WHERE user_id = $1 AND record_time >= $2 AND record_time < $3
		ORDER BY record_time DESC
	`, userID, start, end)
}

func (r *RecordRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]model.LifeRecord, error) {
	return r.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM life_records
		WHERE user_id = $1
		ORDER BY record_time DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
}

func (r *RecordRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM life_records WHERE user_id = $1
	`, userID).Scan(&count)
	return count, err
}

func (r *RecordRepository) CountByUserIDAndType(ctx context.Context, userID int64, recordType model.RecordType) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM life_records WHERE user_id = $1 AND $2 = ANY(record_types)
	`, userID, string(recordType)).Scan(&count)
	return count, err
}

// Update overwrites the editable fields of a record owned by userID. It
// reports false when no such record exists.
func (r *RecordRepository) Update(ctx context.Context, record *model.LifeRecord) (bool, error) {
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}

	err := r.db.QueryRowContext(ctx, `
		UPDATE life_records
		SET content = $1, record_types = $2, amount = $3, tags = $4, emotion_score = $5, record_time = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING updated_at
	`, record.Content, pq.Array(fromRecordTypes(record.RecordTypes)), record.Amount, pq.Array(tags),
		record.EmotionScore, record.RecordTime, record.ID, record.UserID).Scan(&record.UpdatedAt)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *RecordRepository) DeleteByID(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM life_records WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UserIDsActiveSince lists users with at least one record since the given time.
func (r *RecordRepository) UserIDsActiveSince(ctx context.Context, since time.Time) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM life_records WHERE record_time >= $1 ORDER BY user_id
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
