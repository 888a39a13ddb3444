package dashboard

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// actorHeader carries the authenticated identity, supplied by the
// upstream authentication collaborator. The dashboard trusts it and
// scopes every query to it; it performs no authentication of its own.
const actorHeader = "X-Grey-Actor"

// registerRoutes sets up all dashboard routes on the Gin router. Every
// route is read-only; mutations go through the CLI or other controllers.
func registerRoutes(router *gin.Engine, db *gorm.DB, stats *Stats) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	// Pages.
	router.GET("/", handleIndex())

	// JSON API, scoped to the actor header.
	api := router.Group("/api", requireActor())
	api.GET("/sessions", handleSessionList(db))
	api.GET("/sessions/:id", handleSessionDetail(db))
	api.GET("/stats", handleStats(stats))
	api.GET("/activity", handleActivity(db))
	api.GET("/events", handleSSE(db))
}

// requireActor rejects API requests without an authenticated identity.
// EventSource cannot set headers, so the query string is accepted as a
// fallback for the SSE route.
func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(actorHeader)
		if actor == "" {
			actor = c.Query("actor")
		}
		if actor == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + actorHeader + " header"})
			return
		}
		c.Set("actor", actor)
		c.Next()
	}
}

func handleIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "layout.html", gin.H{
			"page": "dashboard",
		})
	}
}

func handleSessionList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := Filters{
			Status: c.Query("status"),
			Search: c.Query("q"),
		}
		f.Page, _ = strconv.Atoi(c.Query("page"))
		f.PerPage, _ = strconv.Atoi(c.Query("per_page"))
		if from := c.Query("created_from"); from != "" {
			if t, err := time.Parse(time.RFC3339, from); err == nil {
				f.CreatedFrom = t
			}
		}
		if to := c.Query("created_to"); to != "" {
			if t, err := time.Parse(time.RFC3339, to); err == nil {
				f.CreatedTo = t
			}
		}

		result, err := ListSessions(db, c.GetString("actor"), f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleSessionDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := GetSessionDetail(db, c.GetString("actor"), c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func handleStats(stats *Stats) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := stats.Counts(c.GetString("actor"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, counts)
	}
}

func handleActivity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		rows, err := RecentActivity(db, c.GetString("actor"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"activity": rows})
	}
}
