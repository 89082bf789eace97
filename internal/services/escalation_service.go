package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/harisalimughal/GoSeller-sub002/internal/audit"
	"github.com/harisalimughal/GoSeller-sub002/internal/config"
	"github.com/harisalimughal/GoSeller-sub002/internal/models"
)

// Clock abstracts time so threshold logic is testable without wall-clock
// waits. The scheduler never calls time.Now directly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// EscalationService owns the complaint SLA state machine: pending complaints
// escalate to master franchise after 6h, to corporate after 12h, and become
// fineable after 24h. Escalation level only ever increases, and every level
// change recomputes the fine percentage from the level.
type EscalationService struct {
	db        *sql.DB
	clock     Clock
	actor     string // service identity recorded on scheduler-driven changes
	cfg       *config.SettlementConfig
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewEscalationService(db *sql.DB, clock Clock, cfg *config.SettlementConfig) *EscalationService {
	return &EscalationService{
		db:        db,
		clock:     clock,
		actor:     cfg.SystemActor,
		cfg:       cfg,
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

// CreateComplaint registers a complaint from the intake event. Complaints
// start PENDING at sub-franchise level with the level-derived 2% fine.
func (es *EscalationService) CreateComplaint(ctx context.Context, event models.ComplaintCreationEvent) (*models.Complaint, error) {
	if err := es.validator.ValidateStruct(&event); err != nil {
		return nil, err
	}

	now := es.clock.Now()
	complaint := &models.Complaint{
		ID:              uuid.NewString(),
		OrderID:         event.OrderID,
		BuyerID:         event.BuyerID,
		SellerID:        event.SellerID,
		FranchiseID:     event.FranchiseID,
		ComplaintType:   event.ComplaintType,
		Priority:        event.Priority,
		Description:     event.Description,
		Status:          models.ComplaintStatusPending,
		EscalationLevel: models.LevelSubFranchise,
		FinePercentage:  models.FinePercentFor(models.LevelSubFranchise),
		FineStatus:      models.FineStatusPending,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := es.db.ExecContext(ctx, `
		INSERT INTO complaints
		(id, order_id, buyer_id, seller_id, franchise_id, complaint_type, priority, description,
		 status, escalation_level, fine_percentage, fine_amount, fine_status, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, TRUE, $13, $14)
	`, complaint.ID, complaint.OrderID, complaint.BuyerID, complaint.SellerID, complaint.FranchiseID,
		complaint.ComplaintType, complaint.Priority, complaint.Description,
		complaint.Status, complaint.EscalationLevel, complaint.FinePercentage,
		complaint.FineStatus, complaint.CreatedAt, complaint.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("complaint create failed: %w", err)
	}

	log.Printf("[ESCALATION] Complaint registered: id=%s order=%s priority=%s", complaint.ID, complaint.OrderID, complaint.Priority)
	return complaint, nil
}

// Scan finds open complaints whose age crossed an escalation threshold and
// returns one action per overdue complaint. It only reads; ApplyEscalation
// performs the writes, so a crashed pass loses nothing.
func (es *EscalationService) Scan(ctx context.Context) ([]models.EscalationAction, error) {
	now := es.clock.Now()

	rows, err := es.db.QueryContext(ctx, complaintSelect+`
		WHERE status IN ($1, $2, $3) AND is_active = TRUE AND escalation_level < $4
		  AND created_at <= $5
		ORDER BY created_at
		LIMIT $6
	`, models.ComplaintStatusPending, models.ComplaintStatusInProgress, models.ComplaintStatusEscalated,
		models.LevelCorporate, now.Add(-es.cfg.FirstEscalationAfter), es.cfg.ScanBatchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []models.EscalationAction
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			log.Printf("[ESCALATION] Scan row error, skipping: %v", err)
			continue
		}

		age := now.Sub(complaint.CreatedAt)
		target := es.targetLevel(age)
		if target <= complaint.EscalationLevel {
			continue
		}

		actions = append(actions, models.EscalationAction{
			ComplaintID: complaint.ID,
			NewLevel:    target,
			Reason:      fmt.Sprintf("unresolved for %s", age.Truncate(time.Minute)),
		})
	}
	return actions, rows.Err()
}

func (es *EscalationService) targetLevel(age time.Duration) models.EscalationLevel {
	if age >= es.cfg.FinalEscalationAfter {
		return models.LevelCorporate
	}
	if age >= es.cfg.FirstEscalationAfter {
		return models.LevelMasterFranchise
	}
	return models.LevelSubFranchise
}

// ApplyEscalation performs one scan-driven level transition. Idempotent per
// (complaint, level): the monotonic guard sits in the UPDATE's WHERE clause
// and the history insert is keyed on (complaint_id, level), so re-running a
// scan never double-appends.
func (es *EscalationService) ApplyEscalation(ctx context.Context, action models.EscalationAction) error {
	applied, err := es.escalateMonotonic(ctx, action.ComplaintID, action.NewLevel, es.actor, action.Reason)
	if err != nil {
		return err
	}
	if !applied {
		// A concurrent scan or manual escalation got there first.
		return nil
	}

	es.audit.LogEscalation(action.ComplaintID, action.NewLevel.String(), es.actor, action.Reason)
	log.Printf("[ESCALATION] Complaint %s escalated to %s (%s)", action.ComplaintID, action.NewLevel, action.Reason)
	return nil
}

// Escalate is the manual path, sharing the same monotonic write as the
// scheduler. A downgrade is rejected with the original state preserved.
func (es *EscalationService) Escalate(ctx context.Context, complaintID string, level models.EscalationLevel, actor, reason string) error {
	if !models.ValidLevel(level) {
		return fmt.Errorf("unknown escalation level %d", level)
	}

	applied, err := es.escalateMonotonic(ctx, complaintID, level, actor, reason)
	if err != nil {
		return err
	}
	if !applied {
		complaint, err := es.GetComplaint(ctx, complaintID)
		if err != nil {
			return err
		}
		if complaint.Terminal() {
			return fmt.Errorf("%w: complaint is %s", ErrInvalidEscalationTransition, complaint.Status)
		}
		return fmt.Errorf("%w: at %s, requested %s", ErrInvalidEscalationTransition, complaint.EscalationLevel, level)
	}

	es.audit.LogEscalation(complaintID, level.String(), actor, reason)
	return nil
}

// escalateMonotonic is the single write both paths go through. The fine
// percentage is recomputed from the new level in the same statement, never
// set independently.
func (es *EscalationService) escalateMonotonic(ctx context.Context, complaintID string, level models.EscalationLevel, actor, reason string) (bool, error) {
	tx, err := es.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE complaints
		SET escalation_level = $1, fine_percentage = $2, status = $3, updated_at = NOW()
		WHERE id = $4 AND escalation_level < $1
		  AND status NOT IN ($5, $6) AND is_active = TRUE
	`, level, models.FinePercentFor(level), models.ComplaintStatusEscalated,
		complaintID, models.ComplaintStatusResolved, models.ComplaintStatusClosed)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rowsAffected == 0 {
		var exists bool
		if err := es.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id = $1)`, complaintID).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrComplaintNotFound
		}
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO complaint_escalations (complaint_id, level, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (complaint_id, level) DO NOTHING
	`, complaintID, level, actor, reason, es.clock.Now())
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// OverdueForFine returns corporate-level complaints past the fine threshold
// whose fine has not been charged yet.
func (es *EscalationService) OverdueForFine(ctx context.Context) ([]models.Complaint, error) {
	now := es.clock.Now()
	rows, err := es.db.QueryContext(ctx, complaintSelect+`
		WHERE status = $1 AND escalation_level = $2 AND fine_status != $3
		  AND is_active = TRUE AND created_at <= $4
		ORDER BY created_at
		LIMIT $5
	`, models.ComplaintStatusEscalated, models.LevelCorporate, models.FineStatusCharged,
		now.Add(-es.cfg.FineChargeAfter), es.cfg.ScanBatchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := []models.Complaint{}
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *complaint)
	}
	return complaints, rows.Err()
}

// MarkInProgress records first human contact. first_response_at is set once.
func (es *EscalationService) MarkInProgress(ctx context.Context, complaintID, actor string) error {
	result, err := es.db.ExecContext(ctx, `
		UPDATE complaints
		SET status = $1, first_response_at = COALESCE(first_response_at, $2), updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, models.ComplaintStatusInProgress, es.clock.Now(), complaintID, models.ComplaintStatusPending)
	if err != nil {
		return err
	}
	return es.requireRow(ctx, result, complaintID)
}

// Resolve closes out an open complaint. Resolved complaints are terminal for
// the scheduler.
func (es *EscalationService) Resolve(ctx context.Context, complaintID, actor, resolution string) error {
	result, err := es.db.ExecContext(ctx, `
		UPDATE complaints
		SET status = $1, resolved_at = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5, $6)
	`, models.ComplaintStatusResolved, es.clock.Now(), complaintID,
		models.ComplaintStatusPending, models.ComplaintStatusInProgress, models.ComplaintStatusEscalated)
	if err != nil {
		return err
	}
	if err := es.requireRow(ctx, result, complaintID); err != nil {
		return err
	}
	log.Printf("[ESCALATION] Complaint %s resolved by %s", complaintID, actor)
	return nil
}

// Close archives a resolved complaint.
func (es *EscalationService) Close(ctx context.Context, complaintID, actor string) error {
	result, err := es.db.ExecContext(ctx, `
		UPDATE complaints SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3
	`, models.ComplaintStatusClosed, complaintID, models.ComplaintStatusResolved)
	if err != nil {
		return err
	}
	return es.requireRow(ctx, result, complaintID)
}

// Deactivate soft-deletes a complaint. Records are never removed.
func (es *EscalationService) Deactivate(ctx context.Context, complaintID string) error {
	result, err := es.db.ExecContext(ctx, `
		UPDATE complaints SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, complaintID)
	if err != nil {
		return err
	}
	return es.requireRow(ctx, result, complaintID)
}

func (es *EscalationService) requireRow(ctx context.Context, result sql.Result, complaintID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		var exists bool
		if err := es.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id = $1)`, complaintID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrComplaintNotFound
		}
		return fmt.Errorf("complaint %s not in an eligible status", complaintID)
	}
	return nil
}

// GetComplaint fetches a single complaint.
func (es *EscalationService) GetComplaint(ctx context.Context, complaintID string) (*models.Complaint, error) {
	complaint, err := scanComplaint(es.db.QueryRowContext(ctx, complaintSelect+` WHERE id = $1`, complaintID))
	if err == sql.ErrNoRows {
		return nil, ErrComplaintNotFound
	}
	return complaint, err
}

// EscalationHistory returns the ordered escalation entries for a complaint.
func (es *EscalationService) EscalationHistory(ctx context.Context, complaintID string) ([]models.EscalationEntry, error) {
	rows, err := es.db.QueryContext(ctx, `
		SELECT complaint_id, level, actor, reason, created_at
		FROM complaint_escalations WHERE complaint_id = $1 ORDER BY level
	`, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.EscalationEntry{}
	for rows.Next() {
		entry := models.EscalationEntry{}
		if err := rows.Scan(&entry.ComplaintID, &entry.Level, &entry.Actor, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

const complaintSelect = `
	SELECT id, order_id, buyer_id, seller_id, franchise_id, complaint_type, priority, description,
	       status, escalation_level, fine_percentage, fine_amount, fine_status, is_active,
	       created_at, first_response_at, resolved_at, updated_at
	FROM complaints`

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	err := row.Scan(
		&complaint.ID, &complaint.OrderID, &complaint.BuyerID, &complaint.SellerID,
		&complaint.FranchiseID, &complaint.ComplaintType, &complaint.Priority, &complaint.Description,
		&complaint.Status, &complaint.EscalationLevel, &complaint.FinePercentage,
		&complaint.FineAmount, &complaint.FineStatus, &complaint.IsActive,
		&complaint.CreatedAt, &complaint.FirstResponseAt, &complaint.ResolvedAt, &complaint.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return complaint, nil
}
