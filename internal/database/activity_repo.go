package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Xuzii/ai-vision-assistant/internal/models"
	"github.com/google/uuid"
)

type ActivityRepo struct {
	db *DB
}

func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

const activityColumns = `id, timestamp, camera_name, room, activity, details,
	category, category_confidence, person_name, person_detected,
	detection_confidence, skipped, skip_reason, tokens_used, cost,
	duration_minutes, image_path`

func (r *ActivityRepo) Insert(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO activities (` + activityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.conn.ExecContext(ctx, r.db.rebind(query),
		a.ID,
		a.Timestamp,
		a.CameraName,
		a.Room,
		a.Activity,
		a.Details,
		a.Category,
		a.CategoryConfidence,
		a.PersonName,
		a.PersonDetected,
		a.DetectionConf,
		a.Skipped,
		a.SkipReason,
		a.TokensUsed,
		a.Cost,
		a.DurationMinutes,
		a.ImagePath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = ?`

	row := r.db.conn.QueryRowContext(ctx, r.db.rebind(query), id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Camera   string
	Room     string
	Category string
	Person   string
	From     time.Time
	To       time.Time
	Search   string
	Limit    int
	Offset   int
}

// List returns matching activities newest-first plus the total match count
// before limit/offset.
func (r *ActivityRepo) List(ctx context.Context, f ListFilter) ([]*models.Activity, int, error) {
	where, params := buildActivityWhere(f)

	countQuery := "SELECT COUNT(*) FROM activities" + where
	var total int
	if err := r.db.conn.QueryRowContext(ctx, r.db.rebind(countQuery), params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + activityColumns + ` FROM activities` + where +
		` ORDER BY timestamp DESC LIMIT ? OFFSET ?`
	params = append(params, limit, f.Offset)

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), params...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, total, rows.Err()
}

func buildActivityWhere(f ListFilter) (string, []interface{}) {
	var conds []string
	var params []interface{}

	if f.Camera != "" {
		conds = append(conds, "camera_name = ?")
		params = append(params, f.Camera)
	}
	if f.Room != "" {
		conds = append(conds, "room = ?")
		params = append(params, f.Room)
	}
	if f.Category != "" && f.Category != "All" {
		conds = append(conds, "category = ?")
		params = append(params, f.Category)
	}
	if f.Person != "" {
		conds = append(conds, "person_name = ?")
		params = append(params, f.Person)
	}
	if !f.From.IsZero() {
		conds = append(conds, "timestamp >= ?")
		params = append(params, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, "timestamp <= ?")
		params = append(params, f.To)
	}
	if f.Search != "" {
		conds = append(conds, "(activity LIKE ? OR details LIKE ? OR room LIKE ?)")
		pattern := "%" + f.Search + "%"
		params = append(params, pattern, pattern, pattern)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

// TagPerson sets the person label on one activity row.
func (r *ActivityRepo) TagPerson(ctx context.Context, id, personName string) error {
	query := `UPDATE activities SET person_name = ? WHERE id = ?`
	res, err := r.db.conn.ExecContext(ctx, r.db.rebind(query), personName, id)
	if err != nil {
		return fmt.Errorf("failed to tag person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("activity not found: %s", id)
	}
	return nil
}

// ListUndated returns analyzed activities without a duration, in ascending
// timestamp order, for the duration-inference pass.
func (r *ActivityRepo) ListUndated(ctx context.Context) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE duration_minutes IS NULL AND skipped = ?
		ORDER BY timestamp ASC`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), false)
	if err != nil {
		return nil, fmt.Errorf("failed to query undated activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListAnalyzed returns all analyzed activities ascending, for a full
// duration recompute.
func (r *ActivityRepo) ListAnalyzed(ctx context.Context) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE skipped = ?
		ORDER BY timestamp ASC`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), false)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyzed activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *ActivityRepo) SetDuration(ctx context.Context, id string, minutes int) error {
	query := `UPDATE activities SET duration_minutes = ? WHERE id = ?`
	if _, err := r.db.conn.ExecContext(ctx, r.db.rebind(query), minutes, id); err != nil {
		return fmt.Errorf("failed to set duration: %w", err)
	}
	return nil
}

// ClearDurations wipes every computed duration so the inference pass can
// rebuild them from scratch.
func (r *ActivityRepo) ClearDurations(ctx context.Context) error {
	if _, err := r.db.conn.ExecContext(ctx, `UPDATE activities SET duration_minutes = NULL`); err != nil {
		return fmt.Errorf("failed to clear durations: %w", err)
	}
	return nil
}

// DistinctDates returns the distinct calendar dates (UTC midnight) with at
// least one analyzed activity, newest first.
func (r *ActivityRepo) DistinctDates(ctx context.Context) ([]time.Time, error) {
	query := `SELECT DISTINCT date(timestamp) FROM activities
		WHERE skipped = ?
		ORDER BY date(timestamp) DESC`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), false)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// DailySpend sums cost, tokens and request count over activities on or
// after dayStart. Skipped rows carry null cost and fall out of the sums.
func (r *ActivityRepo) DailySpend(ctx context.Context, dayStart time.Time) (*models.DailySpend, error) {
	query := `SELECT
			COALESCE(SUM(cost), 0),
			COALESCE(SUM(tokens_used), 0),
			COUNT(*)
		FROM activities
		WHERE timestamp >= ? AND cost IS NOT NULL`

	spend := &models.DailySpend{Date: dayStart}
	err := r.db.conn.QueryRowContext(ctx, r.db.rebind(query), dayStart).
		Scan(&spend.Cost, &spend.Tokens, &spend.Requests)
	if err != nil {
		return nil, fmt.Errorf("failed to sum daily spend: %w", err)
	}
	return spend, nil
}

type CategoryCost struct {
	Category string  `json:"category"`
	Cost     float64 `json:"cost"`
	Tokens   int     `json:"tokens"`
}

func (r *ActivityRepo) CostByCategory(ctx context.Context, from time.Time) ([]CategoryCost, error) {
	query := `SELECT category, COALESCE(SUM(cost), 0), COALESCE(SUM(tokens_used), 0)
		FROM activities
		WHERE timestamp >= ? AND category IS NOT NULL AND cost IS NOT NULL
		GROUP BY category
		ORDER BY SUM(cost) DESC`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), from)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost by category: %w", err)
	}
	defer rows.Close()

	var out []CategoryCost
	for rows.Next() {
		var c CategoryCost
		if err := rows.Scan(&c.Category, &c.Cost, &c.Tokens); err != nil {
			return nil, fmt.Errorf("failed to scan category cost: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CostHistory returns per-day spend for the trailing days window,
// newest first.
func (r *ActivityRepo) CostHistory(ctx context.Context, since time.Time) ([]models.DailySpend, error) {
	query := `SELECT date(timestamp),
			COALESCE(SUM(cost), 0),
			COALESCE(SUM(tokens_used), 0),
			COUNT(*)
		FROM activities
		WHERE timestamp >= ? AND cost IS NOT NULL
		GROUP BY date(timestamp)
		ORDER BY date(timestamp) DESC`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost history: %w", err)
	}
	defer rows.Close()

	var out []models.DailySpend
	for rows.Next() {
		var (
			s      models.DailySpend
			dayStr string
		)
		if err := rows.Scan(&dayStr, &s.Cost, &s.Tokens, &s.Requests); err != nil {
			return nil, fmt.Errorf("failed to scan cost history row: %w", err)
		}
		d, err := time.Parse("2006-01-02", dayStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date %q: %w", dayStr, err)
		}
		s.Date = d
		out = append(out, s)
	}
	return out, rows.Err()
}

type CountRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountBy groups analyzed activities since from by the given column.
// Column must be one of the fixed grouping names; anything else errors.
func (r *ActivityRepo) CountBy(ctx context.Context, column string, from time.Time) ([]CountRow, error) {
	switch column {
	case "room", "activity", "camera_name", "category":
	default:
		return nil, fmt.Errorf("unsupported grouping column: %s", column)
	}

	query := `SELECT ` + column + `, COUNT(*) FROM activities
		WHERE timestamp >= ? AND skipped = ? AND ` + column + ` IS NOT NULL AND ` + column + ` != ''
		GROUP BY ` + column + `
		ORDER BY COUNT(*) DESC
		LIMIT 10`

	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), from, false)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts by %s: %w", column, err)
	}
	defer rows.Close()

	var out []CountRow
	for rows.Next() {
		var row CountRow
		if err := rows.Scan(&row.Label, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row scanner) (*models.Activity, error) {
	a := &models.Activity{}
	err := row.Scan(
		&a.ID,
		&a.Timestamp,
		&a.CameraName,
		&a.Room,
		&a.Activity,
		&a.Details,
		&a.Category,
		&a.CategoryConfidence,
		&a.PersonName,
		&a.PersonDetected,
		&a.DetectionConf,
		&a.Skipped,
		&a.SkipReason,
		&a.TokensUsed,
		&a.Cost,
		&a.DurationMinutes,
		&a.ImagePath,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
