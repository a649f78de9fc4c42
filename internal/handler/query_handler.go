package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"lifeos/internal/report"

	"github.com/gin-gonic/gin"
)

type Answerer interface {
	Answer(ctx context.Context, question string, userID int64) string
}

type ReportGenerator interface {
	Generate(ctx context.Context, period report.Period, userID int64) (string, error)
}

type QueryHandler struct {
	answerer Answerer
	reporter ReportGenerator
}

func NewQueryHandler(answerer Answerer, reporter ReportGenerator) *QueryHandler {
	return &QueryHandler{answerer: answerer, reporter: reporter}
}

func (h *QueryHandler) Query(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Question must not be empty"})
		return
	}

	answer := h.answerer.Answer(c.Request.Context(), req.Question, uid)

	c.JSON(http.StatusOK, QueryResponse{Answer: answer})
}

func (h *QueryHandler) WeeklyReport(c *gin.Context) {
	h.report(c, report.Weekly)
}

func (h *QueryHandler) MonthlyReport(c *gin.Context) {
	h.report(c, report.Monthly)
}

func (h *QueryHandler) report(c *gin.Context, period report.Period) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	text, err := h.reporter.Generate(c.Request.Context(), period, uid)
	if err != nil {
		slog.Error("error generating report", "error", err, "period", period, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, ReportResponse{Period: string(period), Report: text})
}
