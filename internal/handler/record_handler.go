package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lifeos/internal/extract"
	"lifeos/internal/model"

	"github.com/gin-gonic/gin"
)

type Tracker interface {
	Track(ctx context.Context, userID int64, text string) (*extract.TrackResult, error)
}

type RecordStore interface {
	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]model.LifeRecord, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	FindByID(ctx context.Context, userID, id int64) (*model.LifeRecord, error)
	Update(ctx context.Context, record *model.LifeRecord) (bool, error)
	DeleteByID(ctx context.Context, userID, id int64) (bool, error)
}

// ReportInvalidator drops a user's cached reports after an edit.
type ReportInvalidator interface {
	DeleteReports(ctx context.Context, userID int64)
}

type RecordHandler struct {
	tracker    Tracker
	repository RecordStore
	reports    ReportInvalidator
}

// NewRecordHandler builds the record endpoints. reports may be nil.
func NewRecordHandler(tracker Tracker, repository RecordStore, reports ReportInvalidator) *RecordHandler {
	return &RecordHandler{tracker: tracker, repository: repository, reports: reports}
}

func (h *RecordHandler) Track(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text must not be empty"})
		return
	}

	result, err := h.tracker.Track(c.Request.Context(), uid, req.Text)
	if err != nil {
		slog.Error("error saving record", "error", err, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, TrackResponse{
		Record:      toRecordResponse(result.Record),
		Parsed:      toParsedResponse(result.Parsed),
		CareMessage: result.CareMessage,
	})
}

func (h *RecordHandler) GetRecords(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	records, err := h.repository.ListByUserID(c.Request.Context(), uid, limit, offset)
	if err != nil {
		slog.Error("error fetching records", "error", err, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	total, err := h.repository.CountByUserID(c.Request.Context(), uid)
	if err != nil {
		slog.Error("error fetching record total", "error", err, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := RecordsResponse{
		Records: make([]RecordResponse, 0, len(records)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for _, r := range records {
		res.Records = append(res.Records, toRecordResponse(r))
	}

	c.JSON(http.StatusOK, res)
}

func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record id"})
		return
	}

	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	record, err := h.repository.FindByID(c.Request.Context(), uid, id)
	if err != nil {
		slog.Error("error fetching record", "error", err, "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	if msg := applyUpdate(record, req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	found, err := h.repository.Update(c.Request.Context(), record)
	if err != nil {
		slog.Error("error updating record", "error", err, "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	h.invalidateReports(c.Request.Context(), uid)

	c.JSON(http.StatusOK, toRecordResponse(*record))
}

// applyUpdate copies the supplied fields onto record and returns a client
// error message when a field is invalid.
func applyUpdate(record *model.LifeRecord, req UpdateRecordRequest) string {
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return "Content must not be empty"
		}
		record.Content = content
	}

	if req.RecordTypes != nil {
		types := make([]model.RecordType, 0, len(req.RecordTypes))
		for _, name := range req.RecordTypes {
			t, ok := model.ParseRecordType(name)
			if !ok {
				return "Unknown record type: " + name
			}
			types = append(types, t)
		}
		if len(types) == 0 {
			return "At least one record type is required"
		}
		record.RecordTypes = types
	}

	if req.Amount.Valid {
		if req.Amount.Decimal.IsNegative() {
			return "Amount must not be negative"
		}
		record.Amount = req.Amount
	}

	if req.Tags != nil {
		record.Tags = req.Tags
	}

	if req.EmotionScore != nil {
		score := model.ClampEmotion(*req.EmotionScore)
		record.EmotionScore = &score
	}

	if req.RecordTime != nil {
		t, err := time.ParseInLocation(model.TimeLayout, *req.RecordTime, time.Local)
		if err != nil {
			return "Record time must use format " + model.TimeLayout
		}
		record.RecordTime = t
	}

	return ""
}

func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record id"})
		return
	}

	deleted, err := h.repository.DeleteByID(c.Request.Context(), uid, id)
	if err != nil {
		slog.Error("error deleting record", "error", err, "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	h.invalidateReports(c.Request.Context(), uid)

	c.Status(http.StatusNoContent)
}

func (h *RecordHandler) invalidateReports(ctx context.Context, uid int64) {
	if h.reports != nil {
		h.reports.DeleteReports(ctx, uid)
	}
}

// GetCareMessage returns one of the fixed care messages.
func (h *RecordHandler) GetCareMessage(c *gin.Context) {
	c.JSON(http.StatusOK, CareResponse{Message: extract.RandomCareMessage()})
}
