package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davsync/davsync/internal/db"
	"github.com/davsync/davsync/internal/scheduler"
	"github.com/davsync/davsync/internal/validator"
)

// sourceRequest is the JSON body for creating or updating a source.
type sourceRequest struct {
	Name             string `json:"name" binding:"required"`
	CalDAVURL        string `json:"caldav_url" binding:"required"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	SyncIntervalSecs int    `json:"sync_interval_secs"`
}

// destinationRequest is the JSON body for creating or updating a
// destination.
type destinationRequest struct {
	Name             string `json:"name" binding:"required"`
	ICSURL           string `json:"ics_url" binding:"required"`
	CalDAVURL        string `json:"caldav_url" binding:"required"`
	CalendarName     string `json:"calendar_name" binding:"required"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	SyncIntervalSecs int    `json:"sync_interval_secs"`
	SyncAll          bool   `json:"sync_all"`
	KeepLocal        bool   `json:"keep_local"`
}

// ListSources returns all configured sources.
func (h *Handlers) ListSources(c *gin.Context) {
	sources, err := h.db.ListSources()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to list sources")})
		return
	}
	if sources == nil {
		sources = []*db.Source{}
	}
	c.JSON(http.StatusOK, sources)
}

// CreateSource registers a new CalDAV source and schedules its sync loop.
func (h *Handlers) CreateSource(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := validator.ValidateURL(req.CalDAVURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SyncIntervalSecs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sync_interval_secs must not be negative"})
		return
	}

	source := &db.Source{
		Name:             req.Name,
		CalDAVURL:        req.CalDAVURL,
		Username:         req.Username,
		Password:         req.Password,
		SyncIntervalSecs: req.SyncIntervalSecs,
	}
	if err := h.db.CreateSource(source); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": sanitizeError(err, "Failed to create source")})
		return
	}

	if h.jobs != nil {
		h.jobs.Schedule(scheduler.KindSource, source.ID, time.Duration(source.SyncIntervalSecs)*time.Second)
	}
	c.JSON(http.StatusCreated, source)
}

// GetSource returns one source by ID.
func (h *Handlers) GetSource(c *gin.Context) {
	source, err := h.db.GetSourceByID(c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to load source")})
		return
	}
	c.JSON(http.StatusOK, source)
}

// UpdateSource replaces a source's configuration and reschedules its loop.
func (h *Handlers) UpdateSource(c *gin.Context) {
	source, err := h.db.GetSourceByID(c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to load source")})
		return
	}

	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := validator.ValidateURL(req.CalDAVURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SyncIntervalSecs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sync_interval_secs must not be negative"})
		return
	}

	source.Name = req.Name
	source.CalDAVURL = req.CalDAVURL
	source.Username = req.Username
	if req.Password != "" {
		source.Password = req.Password
	}
	source.SyncIntervalSecs = req.SyncIntervalSecs

	if err := h.db.UpdateSource(source); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to update source")})
		return
	}

	if h.jobs != nil {
		h.jobs.Schedule(scheduler.KindSource, source.ID, time.Duration(source.SyncIntervalSecs)*time.Second)
	}
	c.JSON(http.StatusOK, source)
}

// DeleteSource removes a source, its sync loop, and any calendar file on
// disk.
func (h *Handlers) DeleteSource(c *gin.Context) {
	id := c.Param("id")
	if err := h.db.DeleteSource(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to delete source")})
		return
	}

	if h.jobs != nil {
		h.jobs.Remove(scheduler.KindSource, id)
	}
	if h.sink != nil {
		if err := h.sink.Remove(id); err != nil {
			sanitizeError(err, "Failed to remove calendar file")
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Source deleted"})
}

// TriggerSourceSync runs a source sync immediately and reports the outcome.
// A failed on-demand sync leaves the stored status untouched.
func (h *Handlers) TriggerSourceSync(c *gin.Context) {
	message, err := h.syncer.SyncSource(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": sanitizeError(err, "Sync failed")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// DownloadSourceICS serves the generated calendar for one source by ID.
func (h *Handlers) DownloadSourceICS(c *gin.Context) {
	source, err := h.db.GetSourceByID(c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to load source")})
		return
	}
	h.serveCalendar(c, source.ID, source.ICSData)
}

// CalendarFeed serves the generated calendar for a source by name. This is
// the URL calendar clients subscribe to.
func (h *Handlers) CalendarFeed(c *gin.Context) {
	source, err := h.db.GetSourceByName(c.Param("name"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Calendar not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to load calendar")})
		return
	}
	h.serveCalendar(c, source.ID, source.ICSData)
}

// serveCalendar writes the ICS payload, falling back to the disk sink when
// the database holds none.
func (h *Handlers) serveCalendar(c *gin.Context, sourceID, payload string) {
	if payload == "" && h.sink != nil {
		data, err := h.sink.Read(sourceID)
		if err == nil {
			payload = data
		}
	}
	if payload == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Calendar not synced yet"})
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(payload))
}

// ListDestinations returns all configured destinations.
func (h *Handlers) ListDestinations(c *gin.Context) {
	dests, err := h.db.ListDestinations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to list destinations")})
		return
	}
	if dests == nil {
		dests = []*db.Destination{}
	}
	c.JSON(http.StatusOK, dests)
}

// CreateDestination registers a new ICS to CalDAV destination.
func (h *Handlers) CreateDestination(c *gin.Context) {
	var req destinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := validator.ValidateURL(req.ICSURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validator.ValidateURL(req.CalDAVURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SyncIntervalSecs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sync_interval_secs must not be negative"})
		return
	}

	dest := &db.Destination{
		Name:             req.Name,
		ICSURL:           req.ICSURL,
		CalDAVURL:        req.CalDAVURL,
		CalendarName:     req.CalendarName,
		Username:         req.Username,
		Password:         req.Password,
		SyncIntervalSecs: req.SyncIntervalSecs,
		SyncAll:          req.SyncAll,
		KeepLocal:        req.KeepLocal,
	}
	if err := h.db.CreateDestination(dest); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": sanitizeError(err, "Failed to create destination")})
		return
	}

	if h.jobs != nil {
		h.jobs.Schedule(scheduler.KindDestination, dest.ID, time.Duration(dest.SyncIntervalSecs)*time.Second)
	}
	c.JSON(http.StatusCreated, dest)
}

// GetDestination returns one destination by ID.
func (h *Handlers) GetDestination(c *gin.Context) {
	dest, err := h.db.GetDestinationByID(c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Destination not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to load destination")})
		return
	}
	c.JSON(http.StatusOK, dest)
}

// UpdateDestination replaces a destination's configuration and reschedules
// its loop.
func (h *Handlers) UpdateDestination(c *gin.Context) {
	dest, err := h.db.GetDestinationByID(c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Destination not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to load destination")})
		return
	}

	var req destinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := validator.ValidateURL(req.ICSURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validator.ValidateURL(req.CalDAVURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SyncIntervalSecs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sync_interval_secs must not be negative"})
		return
	}

	dest.Name = req.Name
	dest.ICSURL = req.ICSURL
	dest.CalDAVURL = req.CalDAVURL
	dest.CalendarName = req.CalendarName
	dest.Username = req.Username
	if req.Password != "" {
		dest.Password = req.Password
	}
	dest.SyncIntervalSecs = req.SyncIntervalSecs
	dest.SyncAll = req.SyncAll
	dest.KeepLocal = req.KeepLocal

	if err := h.db.UpdateDestination(dest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to update destination")})
		return
	}

	if h.jobs != nil {
		h.jobs.Schedule(scheduler.KindDestination, dest.ID, time.Duration(dest.SyncIntervalSecs)*time.Second)
	}
	c.JSON(http.StatusOK, dest)
}

// DeleteDestination removes a destination and its sync loop.
func (h *Handlers) DeleteDestination(c *gin.Context) {
	id := c.Param("id")
	if err := h.db.DeleteDestination(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Destination not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": sanitizeError(err, "Failed to delete destination")})
		return
	}

	if h.jobs != nil {
		h.jobs.Remove(scheduler.KindDestination, id)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Destination deleted"})
}

// TriggerDestinationSync runs a destination sync immediately.
func (h *Handlers) TriggerDestinationSync(c *gin.Context) {
	message, err := h.syncer.SyncDestination(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": sanitizeError(err, "Sync failed")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
