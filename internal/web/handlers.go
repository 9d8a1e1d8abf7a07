// Package web exposes the HTTP API: resource CRUD, on-demand sync triggers,
// and the generated calendar feeds.
package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davsync/davsync/internal/db"
	"github.com/davsync/davsync/internal/scheduler"
	"github.com/davsync/davsync/internal/storage"
)

// Syncer triggers a single sync run and reports a summary.
type Syncer interface {
	SyncSource(ctx context.Context, id string) (string, error)
	SyncDestination(ctx context.Context, id string) (string, error)
}

// JobControl is the subset of the scheduler the handlers drive when
// resources are created, updated, or deleted.
type JobControl interface {
	Schedule(kind scheduler.Kind, id string, interval time.Duration)
	Remove(kind scheduler.Kind, id string)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db     *db.DB
	syncer Syncer
	jobs   JobControl
	sink   *storage.DiskSink
}

// NewHandlers creates the handler set. jobs and sink may be nil; scheduling
// and disk reads are then skipped.
func NewHandlers(database *db.DB, syncer Syncer, jobs JobControl, sink *storage.DiskSink) *Handlers {
	return &Handlers{
		db:     database,
		syncer: syncer,
		jobs:   jobs,
		sink:   sink,
	}
}

// HealthCheck reports whether the service and its database are up.
func (h *Handlers) HealthCheck(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// sanitizeError logs the full error server-side and returns a user-safe
// message.
func sanitizeError(err error, userMessage string) string {
	if err != nil {
		log.Printf("Error: %s - Details: %v", userMessage, err)
	}
	return userMessage
}
