package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinePercentFor(t *testing.T) {
	assert.Equal(t, int64(2), FinePercentFor(LevelSubFranchise))
	assert.Equal(t, int64(3), FinePercentFor(LevelMasterFranchise))
	assert.Equal(t, int64(5), FinePercentFor(LevelCorporate))
}

func TestEscalationLevel_String(t *testing.T) {
	assert.Equal(t, "SUB_FRANCHISE", LevelSubFranchise.String())
	assert.Equal(t, "MASTER_FRANCHISE", LevelMasterFranchise.String())
	assert.Equal(t, "CORPORATE", LevelCorporate.String())
	assert.Equal(t, "UNKNOWN", EscalationLevel(7).String())
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel(LevelSubFranchise))
	assert.True(t, ValidLevel(LevelCorporate))
	assert.False(t, ValidLevel(EscalationLevel(0)))
	assert.False(t, ValidLevel(EscalationLevel(4)))
}

func TestComplaint_Terminal(t *testing.T) {
	for status, terminal := range map[string]bool{
		ComplaintStatusPending:    false,
		ComplaintStatusInProgress: false,
		ComplaintStatusEscalated:  false,
		ComplaintStatusResolved:   true,
		ComplaintStatusClosed:     true,
	} {
		c := Complaint{Status: status}
		assert.Equal(t, terminal, c.Terminal(), "status %s", status)
	}
}
