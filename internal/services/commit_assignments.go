package services

import (
	"context"
	"fmt"
	"fos-allocation-service/internal/domain"
	"fos-allocation-service/internal/platform/obs"
	"fos-allocation-service/internal/ports"
	"strings"
	"time"
	_ "time/tzdata"
)

// AssignmentColumns are the columns persisted for a committed assignment.
var AssignmentColumns = []string{
	ColAssignedAgent, ColAssignedAgentID, "BKT/DPD", ColAddress, "Cus_Mobile",
	"Cus_Name", ColDistanceKm, "EMI", "Emp_Address", ColLoanNumber,
	"Masked_LoanNo/CC", "POS", "Perma_Add", "Port", "TAD", "TC_ID", "TC_Name",
	"TL_ID", "TL_Name", "Asset/Product", ColAcceptance, ColStatus,
}

// AssignmentTimeZone is the zone assignedTimestamp is recorded in.
const AssignmentTimeZone = "Asia/Kolkata"

type CommitRequest struct {
	RunID string
	Rows  []domain.Row
	Now   func() time.Time
}

// CommitAssignments stores the rows a dispatcher accepted from an allocation
// run. Only AssignmentColumns are kept; every row is stamped with the same
// assignment time.
func CommitAssignments(ctx context.Context, req CommitRequest, store ports.AssignmentStore) (_ int, err error) {
	defer obs.Time(ctx, "assignments.commit")(&err)

	if len(req.Rows) == 0 {
		return 0, domain.Invalidf("commit assignments: no data provided")
	}
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		return 0, domain.Invalidf("commit assignments: run_id is required")
	}

	loc, err := time.LoadLocation(AssignmentTimeZone)
	if err != nil {
		return 0, fmt.Errorf("commit assignments: load time zone: %w", err)
	}
	now := time.Now
	if req.Now != nil {
		now = req.Now
	}
	assignedAt := now().In(loc)

	rows := ProjectColumns(req.Rows, AssignmentColumns)
	n, err := store.SaveAssignments(ctx, runID, rows, assignedAt)
	if err != nil {
		return 0, fmt.Errorf("commit assignments: %w", err)
	}

	return n, nil
}
