package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/harisalimughal/GoSeller-sub002/internal/config"
	"github.com/harisalimughal/GoSeller-sub002/internal/models"
	"github.com/harisalimughal/GoSeller-sub002/internal/services"
)

type escalator interface {
	Scan(ctx context.Context) ([]models.EscalationAction, error)
	ApplyEscalation(ctx context.Context, action models.EscalationAction) error
	OverdueForFine(ctx context.Context) ([]models.Complaint, error)
}

type fineCharger interface {
	CalculateAndApplyFine(ctx context.Context, complaint *models.Complaint) (*models.FineResult, error)
}

// EscalationJob is the single periodic worker enforcing complaint SLAs: an
// hourly-cadence escalation scan and a faster fine sweep. One complaint's
// failure never halts the rest of a pass.
type EscalationJob struct {
	escalations   escalator
	fines         fineCharger
	scanInterval  time.Duration
	sweepInterval time.Duration
	stopCh        chan struct{}
}

func NewEscalationJob(escalations escalator, fines fineCharger, cfg *config.SettlementConfig) *EscalationJob {
	return &EscalationJob{
		escalations:   escalations,
		fines:         fines,
		scanInterval:  cfg.EscalationInterval,
		sweepInterval: cfg.FineSweepInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start blocks until the context is cancelled or Stop is called.
func (j *EscalationJob) Start(ctx context.Context) {
	log.Printf("[ESCALATION_JOB] Started: scan every %s, fine sweep every %s", j.scanInterval, j.sweepInterval)

	scanTicker := time.NewTicker(j.scanInterval)
	defer scanTicker.Stop()
	sweepTicker := time.NewTicker(j.sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ESCALATION_JOB] Context cancelled, stopping")
			return
		case <-j.stopCh:
			log.Println("[ESCALATION_JOB] Stopped")
			return
		case <-scanTicker.C:
			j.RunScanOnce(ctx)
		case <-sweepTicker.C:
			j.RunFineSweepOnce(ctx)
		}
	}
}

func (j *EscalationJob) Stop() {
	close(j.stopCh)
}

// RunScanOnce executes one escalation pass.
func (j *EscalationJob) RunScanOnce(ctx context.Context) {
	actions, err := j.escalations.Scan(ctx)
	if err != nil {
		log.Printf("[ESCALATION_JOB] Scan failed: %v", err)
		return
	}
	if len(actions) == 0 {
		return
	}

	applied := 0
	for _, action := range actions {
		if err := j.escalations.ApplyEscalation(ctx, action); err != nil {
			log.Printf("[ESCALATION_JOB] Escalation failed: complaint=%s level=%s err=%v",
				action.ComplaintID, action.NewLevel, err)
			continue
		}
		applied++
	}
	log.Printf("[ESCALATION_JOB] Escalation pass: %d found, %d applied", len(actions), applied)
}

// RunFineSweepOnce executes one fine pass over overdue corporate-level
// complaints. Already-charged complaints are a quiet no-op.
func (j *EscalationJob) RunFineSweepOnce(ctx context.Context) {
	overdue, err := j.escalations.OverdueForFine(ctx)
	if err != nil {
		log.Printf("[ESCALATION_JOB] Fine sweep query failed: %v", err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	charged := 0
	for i := range overdue {
		complaint := overdue[i]
		result, err := j.fines.CalculateAndApplyFine(ctx, &complaint)
		if err != nil {
			if errors.Is(err, services.ErrAlreadyCharged) {
				continue
			}
			log.Printf("[ESCALATION_JOB] Fine failed: complaint=%s err=%v", complaint.ID, err)
			continue
		}
		if result.Charged {
			charged++
		}
	}
	log.Printf("[ESCALATION_JOB] Fine sweep: %d overdue, %d charged", len(overdue), charged)
}
