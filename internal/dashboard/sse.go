package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thesisgrey/greylit/internal/models"
	"gorm.io/gorm"
)

// activityEvent holds data for an activity SSE event.
type activityEvent struct {
	ID          uint   `json:"id"`
	SessionID   string `json:"session_id"`
	Kind        string `json:"kind"`
	Actor       string `json:"actor"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// handleSSE streams new activity records for the actor's sessions.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Without a DB there is nothing to poll; the connected event is enough.
		if db == nil {
			return
		}

		owner := c.GetString("actor")

		// Start from the current max ID so only NEW activity is streamed.
		var lastSeenID uint
		var latest models.ActivityRecord
		if err := scopedActivity(db, owner).
			Order("activity_records.id DESC").Limit(1).First(&latest).Error; err == nil {
			lastSeenID = latest.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var recs []models.ActivityRecord
				scopedActivity(db, owner).
					Where("activity_records.id > ?", lastSeenID).
					Order("activity_records.id ASC").
					Find(&recs)

				if len(recs) == 0 {
					continue
				}
				lastSeenID = recs[len(recs)-1].ID

				// Send an event for the latest record; the client refetches
				// the feed when it sees one.
				r := recs[len(recs)-1]
				writeSSE(c.Writer, "activity", activityEvent{
					ID:          r.ID,
					SessionID:   r.SessionID,
					Kind:        r.Kind,
					Actor:       r.Actor,
					Description: r.Description,
					Count:       len(recs),
				})
				c.Writer.Flush()
			}
		}
	}
}

// scopedActivity builds the owner-scoped activity query used by the stream.
func scopedActivity(db *gorm.DB, owner string) *gorm.DB {
	return db.Model(&models.ActivityRecord{}).
		Joins("JOIN sessions ON sessions.id = activity_records.session_id").
		Where("sessions.owner_id = ?", owner)
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
