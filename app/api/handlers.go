package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/risk-comb/app/database"
)

const defaultSubredditLimit = 20

func NewHandler(repo database.SentenceRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if total, err := h.repo.TotalSentences(); err == nil {
		health["sentences"] = total
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	total, err := h.repo.TotalSentences()
	if err != nil {
		slog.Error("Database error", "operation", "total_sentences", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	records, err := h.repo.UniqueRecords()
	if err != nil {
		slog.Error("Database error", "operation", "unique_records", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	authors, err := h.repo.UniqueAuthors()
	if err != nil {
		slog.Error("Database error", "operation", "unique_authors", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sentences": total,
		"records":   records,
		"authors":   authors,
	})
}

func (h *Handler) APIGetLabels(c *gin.Context) {
	counts, err := h.repo.CountByLabel()
	if err != nil {
		slog.Error("Database error", "operation", "count_by_label", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	labels := make([]map[string]interface{}, 0, len(counts))
	for _, l := range counts {
		labels = append(labels, map[string]interface{}{
			"label": l.Label,
			"text":  l.LabelText,
			"count": l.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{"labels": labels})
}

func (h *Handler) APIGetSubreddits(c *gin.Context) {
	limit := defaultSubredditLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	counts, err := h.repo.CountBySubreddit(limit)
	if err != nil {
		slog.Error("Database error", "operation", "count_by_subreddit", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	subreddits := make([]map[string]interface{}, 0, len(counts))
	for _, s := range counts {
		subreddits = append(subreddits, map[string]interface{}{
			"subreddit": s.Subreddit,
			"count":     s.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{"subreddits": subreddits})
}
