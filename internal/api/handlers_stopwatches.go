package api

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Baduit/Timer/clock"
	"github.com/Baduit/Timer/internal/logger"
)

// stopwatch is a named PausableClock. Guarded by RESTServer.mu.
type stopwatch struct {
	id      string
	name    string
	created time.Time
	clock   clock.PausableClock
}

// StopwatchView is the JSON representation of a stopwatch.
type StopwatchView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	Paused      bool      `json:"paused"`
	Elapsed     string    `json:"elapsed"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	PausedTotal string    `json:"paused_total"`
}

type createStopwatchRequest struct {
	Name   string `json:"name" binding:"max=64"`
	Paused bool   `json:"paused"`
}

func (sw *stopwatch) view() StopwatchView {
	return StopwatchView{
		ID:          sw.id,
		Name:        sw.name,
		CreatedAt:   sw.created,
		Paused:      sw.clock.Paused(),
		Elapsed:     sw.clock.Elapsed().String(),
		ElapsedMs:   sw.clock.ElapsedIn(time.Millisecond),
		PausedTotal: sw.clock.TotalPauseTime().String(),
	}
}

func (s *RESTServer) snapshotAll() []StopwatchView {
	s.mu.Lock()
	views := make([]StopwatchView, 0, len(s.stopwatches))
	for _, sw := range s.stopwatches {
		views = append(views, sw.view())
	}
	s.mu.Unlock()

	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views
}

func (s *RESTServer) handleCreateStopwatch(c *gin.Context) {
	var req createStopwatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, err)
		return
	}

	sw := &stopwatch{
		id:      uuid.NewString(),
		name:    req.Name,
		created: s.source.Now(),
		clock:   clock.NewPausableWithSource(s.source),
	}
	if sw.name == "" {
		sw.name = "stopwatch-" + sw.id[:8]
	}
	if req.Paused {
		sw.clock.Pause()
	}

	s.mu.Lock()
	s.stopwatches[sw.id] = sw
	view := sw.view()
	s.mu.Unlock()

	logger.Infof("Stopwatch created: %s (%s)", view.Name, view.ID)
	c.JSON(http.StatusCreated, view)
}

// sortViews orders views, already sorted by creation, by key. Ties keep
// creation order.
func sortViews(views []StopwatchView, key string, desc bool) {
	less := func(a, b StopwatchView) bool {
		switch key {
		case "name":
			return a.Name < b.Name
		case "elapsed":
			return a.ElapsedMs < b.ElapsedMs
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		if desc {
			return less(views[j], views[i])
		}
		return less(views[i], views[j])
	})
}

func (s *RESTServer) handleListStopwatches(c *gin.Context) {
	p := ParsePagination(c, stopwatchPagination())
	views := s.snapshotAll()
	sortViews(views, p.SortBy, p.SortOrder == "desc")

	c.JSON(http.StatusOK, gin.H{
		"stopwatches": page(views, p),
		"pagination":  NewPaginationResponse(p, len(views)),
	})
}

func (s *RESTServer) handleGetStopwatch(c *gin.Context) {
	s.mu.Lock()
	sw, ok := s.stopwatches[c.Param("id")]
	var view StopwatchView
	if ok {
		view = sw.view()
	}
	s.mu.Unlock()

	if !ok {
		respondNotFound(c, "Stopwatch")
		return
	}
	c.JSON(http.StatusOK, view)
}

// handleStopwatchAction applies action to the stopwatch named in the path
// and responds with its new state.
func (s *RESTServer) handleStopwatchAction(action func(*clock.PausableClock)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		sw, ok := s.stopwatches[c.Param("id")]
		var view StopwatchView
		if ok {
			action(&sw.clock)
			view = sw.view()
		}
		s.mu.Unlock()

		if !ok {
			respondNotFound(c, "Stopwatch")
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func (s *RESTServer) handleDeleteStopwatch(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	_, ok := s.stopwatches[id]
	delete(s.stopwatches, id)
	s.mu.Unlock()

	if !ok {
		respondNotFound(c, "Stopwatch")
		return
	}
	logger.Infof("Stopwatch deleted: %s", id)
	c.Status(http.StatusNoContent)
}
