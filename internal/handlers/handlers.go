package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CCWMiller/ActionableIQ-sub000/internal/analytics"
	"github.com/CCWMiller/ActionableIQ-sub000/internal/auth"
	"github.com/CCWMiller/ActionableIQ-sub000/internal/report"
	"github.com/CCWMiller/ActionableIQ-sub000/internal/usecase"
)

type propertyResultResponse struct {
	PropertyID       string                      `json:"propertyId"`
	DimensionHeaders []analytics.DimensionHeader `json:"dimensionHeaders"`
	MetricHeaders    []analytics.MetricHeader    `json:"metricHeaders"`
	Rows             []analytics.Row             `json:"rows"`
	RowCount         int                         `json:"rowCount"`
}

type queryResponse struct {
	Results []propertyResultResponse  `json:"results"`
	Errors  []analytics.PropertyError `json:"errors"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.ReportUseCase, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/analytics", authMiddleware)
	api.POST("/query", runQuery(uc))
	api.POST("/export", exportCSV(uc))
	api.GET("/runs/summary", runSummary(uc))
}

func runQuery(uc *usecase.ReportUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, credential, ok := parseQuery(c)
		if !ok {
			return
		}
		userID, _ := auth.GetUserID(c.Request.Context())

		batch, err := uc.Execute(c.Request.Context(), userID, credential, q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, toQueryResponse(batch))
	}
}

func exportCSV(uc *usecase.ReportUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, credential, ok := parseQuery(c)
		if !ok {
			return
		}
		userID, _ := auth.GetUserID(c.Request.Context())

		batch, err := uc.Execute(c.Request.Context(), userID, credential, q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		table := uc.BuildReport(c.Request.Context(), credential, batch, q)
		filename := fmt.Sprintf("analytics-report-%s-%s.csv",
			q.StartDate.Format("2006-01-02"), q.EndDate.Format("2006-01-02"))

		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(report.Serialize(table)))
	}
}

func runSummary(uc *usecase.ReportUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := uc.GetRunSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run summary"})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// parseQuery binds and validates the request, and extracts the caller's
// provider credential. Responds and returns ok=false on any failure, so no
// provider fan-out starts for a bad request.
func parseQuery(c *gin.Context) (analytics.Query, string, bool) {
	var req analytics.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return analytics.Query{}, "", false
	}

	q, err := req.Validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return analytics.Query{}, "", false
	}

	credential, ok := auth.ProviderToken(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "analytics credential required"})
		return analytics.Query{}, "", false
	}

	return q, credential, true
}

func toQueryResponse(batch *analytics.BatchResult) queryResponse {
	resp := queryResponse{
		Results: make([]propertyResultResponse, 0, len(batch.Results)),
		Errors:  make([]analytics.PropertyError, 0, len(batch.Errors)),
	}
	for _, res := range batch.Results {
		resp.Results = append(resp.Results, propertyResultResponse{
			PropertyID:       res.PropertyID,
			DimensionHeaders: res.DimensionHeaders,
			MetricHeaders:    res.MetricHeaders,
			Rows:             res.Rows,
			RowCount:         len(res.Rows),
		})
	}
	resp.Errors = append(resp.Errors, batch.Errors...)
	return resp
}
