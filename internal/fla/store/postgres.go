package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"coppice/internal/fla/models"
	id "coppice/pkg/domain"
	"coppice/pkg/platform/sentinel"
	txcontext "coppice/pkg/platform/tx"
)

// PostgresStore persists application aggregates across the
// felling_applications, application_status_history, application_assignee_history,
// public_register and case_notes tables. History tables are insert-only.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Add(ctx context.Context, app *models.Application) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO felling_applications (id, case_reference, woodland_owner_id, created_by_id, date_received, final_action_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, app.ID.String(), app.CaseReference, app.WoodlandOwnerID.String(), app.CreatedByID.String(), app.DateReceived, app.FinalActionDate)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	for _, e := range app.StatusHistory {
		if err := s.AppendStatusHistory(ctx, e); err != nil {
			return err
		}
	}
	for _, e := range app.AssigneeHistory {
		if err := s.appendAssigneeHistory(ctx, e); err != nil {
			return err
		}
	}
	if app.PublicRegister != nil {
		if err := s.upsertRegister(ctx, app.ID, app.PublicRegister); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app := &models.Application{}
	var rawID, ownerID, creatorID string
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, case_reference, woodland_owner_id, created_by_id, date_received, final_action_date
		FROM felling_applications
		WHERE id = $1
	`, appID.String()).Scan(&rawID, &app.CaseReference, &ownerID, &creatorID, &app.DateReceived, &app.FinalActionDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select application: %w", err)
	}
	if app.ID, err = id.ParseApplicationID(rawID); err != nil {
		return nil, err
	}
	if app.WoodlandOwnerID, err = id.ParseUserID(ownerID); err != nil {
		return nil, err
	}
	if app.CreatedByID, err = id.ParseUserID(creatorID); err != nil {
		return nil, err
	}

	if app.StatusHistory, err = s.statusHistory(ctx, appID); err != nil {
		return nil, err
	}
	if app.AssigneeHistory, err = s.assigneeHistory(ctx, appID); err != nil {
		return nil, err
	}
	if app.PublicRegister, err = s.register(ctx, appID); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *PostgresStore) statusHistory(ctx context.Context, appID id.ApplicationID) ([]models.StatusHistoryEntry, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT status, created, created_by_id
		FROM application_status_history
		WHERE application_id = $1
		ORDER BY created
	`, appID.String())
	if err != nil {
		return nil, fmt.Errorf("select status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusHistoryEntry
	for rows.Next() {
		e := models.StatusHistoryEntry{ApplicationID: appID}
		var creator string
		if err := rows.Scan(&e.Status, &e.Created, &creator); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		if e.CreatedByID, err = id.ParseUserID(creator); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

func (s *PostgresStore) assigneeHistory(ctx context.Context, appID id.ApplicationID) ([]models.AssigneeHistoryEntry, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT role, user_id, assigned_at, unassigned_at
		FROM application_assignee_history
		WHERE application_id = $1
		ORDER BY assigned_at
	`, appID.String())
	if err != nil {
		return nil, fmt.Errorf("select assignee history: %w", err)
	}
	defer rows.Close()

	var history []models.AssigneeHistoryEntry
	for rows.Next() {
		e := models.AssigneeHistoryEntry{ApplicationID: appID}
		var user string
		if err := rows.Scan(&e.Role, &user, &e.AssignedAt, &e.UnassignedAt); err != nil {
			return nil, fmt.Errorf("scan assignee history: %w", err)
		}
		if e.UserID, err = id.ParseUserID(user); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

func (s *PostgresStore) register(ctx context.Context, appID id.ApplicationID) (*models.PublicRegisterRecord, error) {
	r := &models.PublicRegisterRecord{}
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT esri_id, exempt, exempt_reason,
		       consultation_published_at, consultation_expires_at, consultation_removed_at,
		       decision_published_at, decision_expires_at, decision_removed_at
		FROM public_register
		WHERE application_id = $1
	`, appID.String()).Scan(
		&r.EsriID, &r.Exempt, &r.ExemptReason,
		&r.ConsultationPublishedAt, &r.ConsultationExpiresAt, &r.ConsultationRemovedAt,
		&r.DecisionPublishedAt, &r.DecisionExpiresAt, &r.DecisionRemovedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select public register: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) AppendStatusHistory(ctx context.Context, entry models.StatusHistoryEntry) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO application_status_history (application_id, status, created, created_by_id)
		VALUES ($1, $2, $3, $4)
	`, entry.ApplicationID.String(), entry.Status, entry.Created, entry.CreatedByID.String())
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func (s *PostgresStore) appendAssigneeHistory(ctx context.Context, entry models.AssigneeHistoryEntry) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO application_assignee_history (application_id, role, user_id, assigned_at, unassigned_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ApplicationID.String(), entry.Role, entry.UserID.String(), entry.AssignedAt, entry.UnassignedAt)
	if err != nil {
		return fmt.Errorf("insert assignee history: %w", err)
	}
	return nil
}

func (s *PostgresStore) upsertRegister(ctx context.Context, appID id.ApplicationID, r *models.PublicRegisterRecord) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO public_register (application_id, esri_id, exempt, exempt_reason,
			consultation_published_at, consultation_expires_at, consultation_removed_at,
			decision_published_at, decision_expires_at, decision_removed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (application_id) DO UPDATE SET
			esri_id = EXCLUDED.esri_id,
			exempt = EXCLUDED.exempt,
			exempt_reason = EXCLUDED.exempt_reason,
			consultation_published_at = EXCLUDED.consultation_published_at,
			consultation_expires_at = EXCLUDED.consultation_expires_at,
			consultation_removed_at = EXCLUDED.consultation_removed_at,
			decision_published_at = EXCLUDED.decision_published_at,
			decision_expires_at = EXCLUDED.decision_expires_at,
			decision_removed_at = EXCLUDED.decision_removed_at
	`, appID.String(), r.EsriID, r.Exempt, r.ExemptReason,
		r.ConsultationPublishedAt, r.ConsultationExpiresAt, r.ConsultationRemovedAt,
		r.DecisionPublishedAt, r.DecisionExpiresAt, r.DecisionRemovedAt)
	if err != nil {
		return fmt.Errorf("upsert public register: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetFinalActionDate(ctx context.Context, appID id.ApplicationID, date time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE felling_applications SET final_action_date = $2 WHERE id = $1
	`, appID.String(), date)
	if err != nil {
		return fmt.Errorf("update final action date: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SetDecisionRegisterDetails(ctx context.Context, appID id.ApplicationID, publishedAt, expiresAt time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE public_register
		SET decision_published_at = $2, decision_expires_at = $3
		WHERE application_id = $1
	`, appID.String(), publishedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("update decision register details: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SetRemovalDate(ctx context.Context, appID id.ApplicationID, kind models.RegisterKind, removedAt time.Time) error {
	column := "consultation_removed_at"
	if kind == models.DecisionRegister {
		column = "decision_removed_at"
	}
	res, err := s.q(ctx).ExecContext(ctx, fmt.Sprintf(`
		UPDATE public_register SET %s = $2 WHERE application_id = $1
	`, column), appID.String(), removedAt)
	if err != nil {
		return fmt.Errorf("update register removal date: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) AddCaseNote(ctx context.Context, note models.CaseNote) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO case_notes (id, application_id, type, text, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, note.ID, note.ApplicationID.String(), note.Type, note.Text, note.CreatedByID.String(), note.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert case note: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCaseNotes(ctx context.Context, appID id.ApplicationID) ([]models.CaseNote, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, application_id, type, text, created_by_id, created_at
		FROM case_notes
		WHERE application_id = $1
		ORDER BY created_at
	`, appID.String())
	if err != nil {
		return nil, fmt.Errorf("list case notes: %w", err)
	}
	defer rows.Close()

	var notes []models.CaseNote
	for rows.Next() {
		var (
			note         models.CaseNote
			rawAppID     string
			rawCreatedBy string
		)
		if err := rows.Scan(&note.ID, &rawAppID, &note.Type, &note.Text, &rawCreatedBy, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan case note: %w", err)
		}
		if note.ApplicationID, err = id.ParseApplicationID(rawAppID); err != nil {
			return nil, err
		}
		if note.CreatedByID, err = id.ParseUserID(rawCreatedBy); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// currentStatusJoin selects each application's newest status entry.
const currentStatusJoin = `
	JOIN (
		SELECT DISTINCT ON (application_id) application_id, status
		FROM application_status_history
		ORDER BY application_id, created DESC
	) current ON current.application_id = a.id
`

func (s *PostgresStore) ListFinalActionDateDue(ctx context.Context, cutoff time.Time) ([]*models.Application, error) {
	return s.listByIDs(ctx, `
		SELECT a.id FROM felling_applications a`+currentStatusJoin+`
		WHERE current.status = ANY($1) AND a.final_action_date <= $2
	`, pq.Array(statusNames(models.ReviewStatuses)), cutoff)
}

func (s *PostgresStore) ListWithApplicantSince(ctx context.Context, cutoff time.Time) ([]*models.Application, error) {
	return s.listByIDs(ctx, `
		SELECT a.id FROM felling_applications a
		JOIN (
			SELECT DISTINCT ON (application_id) application_id, status, created
			FROM application_status_history
			ORDER BY application_id, created DESC
		) current ON current.application_id = a.id
		WHERE current.status = ANY($1) AND current.created <= $2
	`, pq.Array(statusNames(models.WithApplicantStatuses)), cutoff)
}

func (s *PostgresStore) ListRegisterExpiryDue(ctx context.Context, kind models.RegisterKind, now time.Time) ([]*models.Application, error) {
	expires, removed := "consultation_expires_at", "consultation_removed_at"
	if kind == models.DecisionRegister {
		expires, removed = "decision_expires_at", "decision_removed_at"
	}
	return s.listByIDs(ctx, fmt.Sprintf(`
		SELECT application_id FROM public_register
		WHERE %s IS NOT NULL AND %s <= $1 AND %s IS NULL
	`, expires, expires, removed), now)
}

func (s *PostgresStore) listByIDs(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select application ids: %w", err)
	}
	defer rows.Close()

	var ids []id.ApplicationID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan application id: %w", err)
		}
		appID, err := id.ParseApplicationID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, appID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	apps := make([]*models.Application, 0, len(ids))
	for _, appID := range ids {
		app, err := s.Get(ctx, appID)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func statusNames(set map[models.Status]bool) []string {
	names := make([]string, 0, len(set))
	for status := range set {
		names = append(names, string(status))
	}
	return names
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetApproverReview(ctx context.Context, review models.ApproverReview) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO approver_reviews (application_id, publish_to_decision_register, licence_duration_years)
		VALUES ($1, $2, $3)
		ON CONFLICT (application_id) DO UPDATE SET
			publish_to_decision_register = EXCLUDED.publish_to_decision_register,
			licence_duration_years = EXCLUDED.licence_duration_years
	`, review.ApplicationID.String(), review.PublishToDecisionRegister, review.ApprovedLicenceDurationYears)
	if err != nil {
		return fmt.Errorf("upsert approver review: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetApproverReview(ctx context.Context, appID id.ApplicationID) (models.ApproverReview, error) {
	review := models.ApproverReview{ApplicationID: appID, PublishToDecisionRegister: true}
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT publish_to_decision_register, licence_duration_years
		FROM approver_reviews
		WHERE application_id = $1
	`, appID.String()).Scan(&review.PublishToDecisionRegister, &review.ApprovedLicenceDurationYears)
	if errors.Is(err, sql.ErrNoRows) {
		return review, nil
	}
	if err != nil {
		return models.ApproverReview{}, fmt.Errorf("select approver review: %w", err)
	}
	return review, nil
}
