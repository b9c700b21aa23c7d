package services

import (
	"math"

	"github.com/fieldops/backend/internal/models"
)

// DragActivationDistance is the minimum pointer displacement, in pixels,
// before a drag is recognized. Smaller movements are treated as clicks.
const DragActivationDistance = 8.0

// DragActivated reports whether a pointer displacement is large enough to
// start a drag.
func DragActivated(dx, dy float64) bool {
	return math.Hypot(dx, dy) >= DragActivationDistance
}

// ResolveDropTarget maps a drop target id to a lane status. The id is either
// a lane id directly, or another job's id, in which case the drop inherits
// that job's lane. Unknown targets report false and the drop is a no-op.
func ResolveDropTarget(targetID string, jobs []models.Job) (models.JobStatus, bool) {
	status := models.JobStatus(targetID)
	for _, lane := range BoardLanes {
		if status == lane {
			return lane, true
		}
	}

	for i := range jobs {
		if jobs[i].ID == targetID {
			for _, lane := range BoardLanes {
				if jobs[i].Status == lane {
					return lane, true
				}
			}
			return "", false
		}
	}
	return "", false
}

// ReorderHandler turns a completed drag gesture into a status-only write
// through the dispatcher override path, reconciling the board's optimistic
// overlay against the store outcome. Within-lane reordering never persists;
// only a lane change writes.
type ReorderHandler struct {
	projector *BoardProjector
	jobs      *JobService
}

func NewReorderHandler(projector *BoardProjector, jobs *JobService) *ReorderHandler {
	return &ReorderHandler{projector: projector, jobs: jobs}
}

// HandleDrop processes a drop of jobID onto targetID. Unknown targets and
// same-lane drops are no-ops. On write failure the staged move is rolled
// back so the projector reports the original lane again.
func (h *ReorderHandler) HandleDrop(actor Actor, jobID, targetID string) error {
	snapshot := h.projector.Jobs()

	target, ok := ResolveDropTarget(targetID, snapshot)
	if !ok {
		return nil
	}

	var current models.JobStatus
	found := false
	for i := range snapshot {
		if snapshot[i].ID == jobID {
			current = snapshot[i].Status
			found = true
			break
		}
	}
	if !found || current == target {
		return nil
	}

	h.projector.StageMove(jobID, target)
	if err := h.jobs.OverrideStatus(actor, jobID, target); err != nil {
		h.projector.Rollback(jobID)
		return err
	}
	return nil
}
