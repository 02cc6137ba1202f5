package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusevents/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `e.id, e.organizer_id, e.name, e.description, e.type, e.status, e.eligibility,
	e.start_date, e.end_date, e.registration_deadline, e.registration_limit, e.price, e.location,
	e.tags, e.form_fields, e.stock, e.purchase_limit, e.variants, e.upi_id, e.version,
	e.created_at, e.updated_at`

const entryColumns = `id, event_id, user_id, responses, registered_at, payment_status,
	payment_proof_url, note, attendance_marked, attendance_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// scanEvent scans eventColumns followed by any extra destinations.
func scanEvent(s rowScanner, extra ...any) (*domain.Event, error) {
	e := &domain.Event{}
	var typ, status, eligibility string
	var start, end, deadline sql.NullTime
	var formFields, variants []byte
	dest := []any{
		&e.ID, &e.OrganizerID, &e.Name, &e.Description, &typ, &status, &eligibility,
		&start, &end, &deadline, &e.RegistrationLimit, &e.Price, &e.Location,
		pq.Array(&e.Tags), &formFields, &e.Stock, &e.PurchaseLimit, &variants, &e.UPIID, &e.Version,
		&e.CreatedAt, &e.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.Type = domain.EventType(typ)
	e.Status = domain.EventStatus(status)
	e.Eligibility = domain.Eligibility(eligibility)
	e.StartDate = timePtr(start)
	e.EndDate = timePtr(end)
	e.RegistrationDeadline = timePtr(deadline)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	e.FormFields = []domain.FormField{}
	if len(formFields) > 0 {
		if err := json.Unmarshal(formFields, &e.FormFields); err != nil {
			return nil, fmt.Errorf("decode form_fields: %w", err)
		}
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &e.Variants); err != nil {
			return nil, fmt.Errorf("decode variants: %w", err)
		}
	}
	return e, nil
}

func scanEntry(s rowScanner) (*domain.Entry, error) {
	en := &domain.Entry{}
	var responses []byte
	var status string
	var attendedAt sql.NullTime
	err := s.Scan(&en.ID, &en.EventID, &en.UserID, &responses, &en.RegisteredAt, &status,
		&en.PaymentProofURL, &en.Note, &en.AttendanceMarked, &attendedAt)
	if err != nil {
		return nil, err
	}
	en.PaymentStatus = domain.PaymentStatus(status)
	en.AttendanceAt = timePtr(attendedAt)
	en.Responses = []domain.Response{}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &en.Responses); err != nil {
			return nil, fmt.Errorf("decode responses: %w", err)
		}
	}
	return en, nil
}

func marshalEventJSON(e *domain.Event) (formFields, variants []byte, err error) {
	fields := e.FormFields
	if fields == nil {
		fields = []domain.FormField{}
	}
	if formFields, err = json.Marshal(fields); err != nil {
		return nil, nil, fmt.Errorf("encode form_fields: %w", err)
	}
	vs := e.Variants
	if vs == nil {
		vs = []domain.Variant{}
	}
	if variants, err = json.Marshal(vs); err != nil {
		return nil, nil, fmt.Errorf("encode variants: %w", err)
	}
	return formFields, variants, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	formFields, variants, err := marshalEventJSON(e)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO events (organizer_id, name, description, type, status, eligibility,
			start_date, end_date, registration_deadline, registration_limit, price, location,
			tags, form_fields, stock, purchase_limit, variants, upi_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1, $19, $20)
		RETURNING id
	`
	err = r.DB.QueryRowContext(ctx, query,
		e.OrganizerID, e.Name, e.Description, string(e.Type), string(e.Status), string(e.Eligibility),
		e.StartDate, e.EndDate, e.RegistrationDeadline, e.RegistrationLimit, e.Price, e.Location,
		pq.Array(nonNil(e.Tags)), formFields, e.Stock, e.PurchaseLimit, variants, e.UPIID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return err
	}
	e.Version = 1
	return nil
}

// GetByID loads the event with all of its entries in insertion order.
func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	entries, err := r.entries(ctx, `SELECT `+entryColumns+` FROM event_entries WHERE event_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	e.Entries = entries
	e.RegistrationCount = len(entries)
	return e, nil
}

func (r *eventRepository) entries(ctx context.Context, query string, args ...any) ([]*domain.Entry, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		en, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, en)
	}
	return entries, rows.Err()
}

// List returns one page of events matching filter, newest first, with their
// entry counts, plus the total number of matches.
func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var where []string
	var args []any
	n := 1
	if filter.OrganizerID != "" {
		where = append(where, fmt.Sprintf("e.organizer_id = $%d", n))
		args = append(args, filter.OrganizerID)
		n++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, fmt.Sprintf("e.status = ANY($%d)", n))
		args = append(args, pq.Array(statuses))
		n++
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + eventColumns + `,
			(SELECT COUNT(*) FROM event_entries c WHERE c.event_id = e.id) AS registration_count
		FROM events e` + clause + `
		ORDER BY e.created_at DESC`
	if params.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", n, n+1)
		args = append(args, params.PageSize, params.Offset())
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		var count int
		e, err := scanEvent(rows, &count)
		if err != nil {
			return nil, 0, err
		}
		e.RegistrationCount = count
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListByParticipant returns the events userID holds entries on. Each event
// carries only that user's entries.
func (r *eventRepository) ListByParticipant(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.id IN (SELECT event_id FROM event_entries WHERE user_id = $1)
		ORDER BY e.start_date NULLS LAST, e.created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	byID := make(map[string]*domain.Event)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return events, nil
	}
	entries, err := r.entries(ctx, `SELECT `+entryColumns+` FROM event_entries WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	for _, en := range entries {
		if e, ok := byID[en.EventID]; ok {
			e.Entries = append(e.Entries, en)
		}
	}
	return events, nil
}

// ListTrending ranks Published and Ongoing events by entries created since since.
func (r *eventRepository) ListTrending(ctx context.Context, since time.Time, limit int) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `, COUNT(en.id) AS recent
		FROM events e
		LEFT JOIN event_entries en ON en.event_id = e.id AND en.registered_at >= $1
		WHERE e.status IN ('Published', 'Ongoing')
		GROUP BY e.id
		ORDER BY recent DESC, e.created_at DESC
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		var recent int
		e, err := scanEvent(rows, &recent)
		if err != nil {
			return nil, err
		}
		e.RecentRegistrations = recent
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update writes the editable fields when the stored version matches e.Version
// and bumps the version. A stale version gives ErrConflict.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	formFields, variants, err := marshalEventJSON(e)
	if err != nil {
		return err
	}
	query := `
		UPDATE events SET name = $1, description = $2, status = $3, eligibility = $4,
			start_date = $5, end_date = $6, registration_deadline = $7, registration_limit = $8,
			price = $9, location = $10, tags = $11, form_fields = $12, stock = $13,
			purchase_limit = $14, variants = $15, upi_id = $16, updated_at = $17,
			version = version + 1
		WHERE id = $18 AND version = $19
	`
	result, err := r.DB.ExecContext(ctx, query,
		e.Name, e.Description, string(e.Status), string(e.Eligibility),
		e.StartDate, e.EndDate, e.RegistrationDeadline, e.RegistrationLimit,
		e.Price, e.Location, pq.Array(nonNil(e.Tags)), formFields, e.Stock,
		e.PurchaseLimit, variants, e.UPIID, e.UpdatedAt,
		e.ID, e.Version,
	)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, e.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	e.Version++
	return nil
}

// lockEvent takes the event row lock for the rest of tx and returns its stock.
func lockEvent(ctx context.Context, tx *sql.Tx, eventID string) (int, error) {
	var stock int
	err := tx.QueryRowContext(ctx, `SELECT stock FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("lock event: %w", err)
	}
	return stock, nil
}

func (r *eventRepository) AppendEntry(ctx context.Context, entry *domain.Entry, limits domain.EntryLimits) error {
	responses, err := json.Marshal(entry.Responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stock, err := lockEvent(ctx, tx, entry.EventID)
	if err != nil {
		return err
	}
	var approved, held int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE payment_status = 'Approved'),
			COUNT(*) FILTER (WHERE user_id = $2 AND payment_status <> 'Rejected')
		FROM event_entries WHERE event_id = $1`,
		entry.EventID, entry.UserID).Scan(&approved, &held)
	if err != nil {
		return fmt.Errorf("count entries: %w", err)
	}
	if err := limits.Check(approved, held, stock); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_entries (id, event_id, user_id, responses, registered_at, payment_status,
			payment_proof_url, note, attendance_marked, attendance_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.EventID, entry.UserID, responses, entry.RegisteredAt, string(entry.PaymentStatus),
		entry.PaymentProofURL, entry.Note, entry.AttendanceMarked, entry.AttendanceAt,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return tx.Commit()
}

func (r *eventRepository) ResolveOrder(ctx context.Context, eventID, entryID string, status domain.PaymentStatus, note string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stock, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return err
	}
	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT payment_status FROM event_entries WHERE id = $1 AND event_id = $2 FOR UPDATE`,
		entryID, eventID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock entry: %w", err)
	}
	if current != string(domain.PaymentPending) {
		return domain.Conflict("order already " + strings.ToLower(current))
	}
	if status == domain.PaymentApproved {
		if stock <= 0 {
			return domain.Conflict("stock is exhausted")
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE events SET stock = GREATEST(stock - 1, 0), version = version + 1, updated_at = NOW() WHERE id = $1`,
			eventID)
		if err != nil {
			return fmt.Errorf("take stock: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE event_entries SET payment_status = $1, note = $2 WHERE id = $3`,
		string(status), note, entryID)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return tx.Commit()
}

func (r *eventRepository) SetAttendance(ctx context.Context, eventID, entryID string, marked bool, at *time.Time) (*time.Time, error) {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE event_entries SET attendance_marked = $1, attendance_at = $2
		WHERE id = $3 AND event_id = $4 AND attendance_marked <> $1`,
		marked, at, entryID, eventID)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 1 {
		return at, nil
	}

	// Already in the requested state, or missing.
	var stored sql.NullTime
	err = r.DB.QueryRowContext(ctx,
		`SELECT attendance_at FROM event_entries WHERE id = $1 AND event_id = $2`,
		entryID, eventID).Scan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !stored.Valid {
		return nil, nil
	}
	return &stored.Time, nil
}

// AdvanceStatuses moves Published events whose start has passed to Ongoing
// and Ongoing events whose end has passed to Completed.
func (r *eventRepository) AdvanceStatuses(ctx context.Context, now time.Time) (int64, int64, error) {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE events SET status = 'Ongoing', version = version + 1, updated_at = $1
		WHERE status = 'Published' AND start_date IS NOT NULL AND start_date <= $1`, now)
	if err != nil {
		return 0, 0, fmt.Errorf("start events: %w", err)
	}
	started, _ := result.RowsAffected()

	result, err = r.DB.ExecContext(ctx, `
		UPDATE events SET status = 'Completed', version = version + 1, updated_at = $1
		WHERE status = 'Ongoing' AND end_date IS NOT NULL AND end_date <= $1`, now)
	if err != nil {
		return started, 0, fmt.Errorf("complete events: %w", err)
	}
	completed, _ := result.RowsAffected()
	return started, completed, nil
}

func (r *eventRepository) DeleteByOrganizer(ctx context.Context, organizerID string) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE organizer_id = $1`, organizerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
