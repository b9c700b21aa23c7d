package controllers

import (
	"net/http"
	"sync"
	"time"

	"github.com/fieldops/backend/internal/logger"
	"github.com/fieldops/backend/internal/models"
	"github.com/fieldops/backend/internal/services"
	"github.com/fieldops/backend/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// BoardController serves the dispatch board: lane snapshots, live updates
// over websocket, and drag-and-drop moves. One projector is kept per company
// so every dispatcher session shares the same authoritative view.
type BoardController struct {
	store store.JobStore
	jobs  *services.JobService

	mu         sync.Mutex
	projectors map[string]*boardSession
}

type boardSession struct {
	projector *services.BoardProjector
	reorder   *services.ReorderHandler
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func NewBoardController(st store.JobStore, jobs *services.JobService) *BoardController {
	return &BoardController{
		store:      st,
		jobs:       jobs,
		projectors: make(map[string]*boardSession),
	}
}

func (bc *BoardController) session(companyID string) *boardSession {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	s, ok := bc.projectors[companyID]
	if !ok {
		projector := services.NewBoardProjector(bc.store, companyID)
		s = &boardSession{
			projector: projector,
			reorder:   services.NewReorderHandler(projector, bc.jobs),
		}
		bc.projectors[companyID] = s
	}
	return s
}

func filtersFromQuery(c *gin.Context) services.Filters {
	return services.Filters{
		TechnicianID: c.Query("technicianId"),
		Search:       c.Query("search"),
		Priority:     models.JobPriority(c.Query("priority")),
		JobType:      models.JobType(c.Query("jobType")),
		DateRange:    services.DateRange(c.Query("dateRange")),
	}
}

// GetBoard returns the current lane partition under the request's filters.
func (bc *BoardController) GetBoard(c *gin.Context) {
	actor := currentActor(c)
	s := bc.session(actor.CompanyID)

	board := s.projector.Snapshot(filtersFromQuery(c), time.Now())
	c.JSON(http.StatusOK, gin.H{"success": true, "data": board})
}

type MoveJobRequest struct {
	Target string `json:"target" binding:"required"`
}

// MoveJob applies a completed drag gesture: the target is a lane id or
// another job's id. Failed writes leave the job in its original lane.
func (bc *BoardController) MoveJob(c *gin.Context) {
	var req MoveJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	actor := currentActor(c)
	s := bc.session(actor.CompanyID)

	if err := s.reorder.HandleDrop(actor, c.Param("id"), req.Target); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StreamBoard pushes a board snapshot over a websocket whenever the job
// collection changes. Filters are fixed at connect time from the query
// string.
func (bc *BoardController) StreamBoard(c *gin.Context) {
	actor := currentActor(c)
	s := bc.session(actor.CompanyID)
	filters := filtersFromQuery(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err, "board_stream").Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Each connection holds its own store subscription so concurrent
	// dispatcher sessions all see every change.
	changes, cancel := bc.store.Subscribe(actor.CompanyID, store.JobQuery{})
	defer cancel()

	// Reader goroutine: detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := conn.WriteJSON(s.projector.Snapshot(filters, time.Now())); err != nil {
				return
			}
		}
	}
}
