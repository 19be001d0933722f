package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/platelens/backend/internal/domain"
	"github.com/platelens/backend/internal/logger"
	"github.com/platelens/backend/internal/usecase"
)

const serviceVersion = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysis *usecase.AnalysisService
	meals    *usecase.MealLogService
	scorer   *usecase.HealthScorer
}

// NewHandler creates a new HTTP handler
func NewHandler(analysis *usecase.AnalysisService, meals *usecase.MealLogService, scorer *usecase.HealthScorer) *Handler {
	if scorer == nil {
		scorer = usecase.NewHealthScorer()
	}
	return &Handler{
		analysis: analysis,
		meals:    meals,
		scorer:   scorer,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "platelens-backend",
		"version": serviceVersion,
	})
}

// AnalyzeImage handles multipart food photo uploads
func (h *Handler) AnalyzeImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		// A part sent with an empty filename is parsed as a plain form value
		if _, selected := c.GetPostForm("image"); selected {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image selected"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image uploaded"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded image could not be read"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded image could not be read"})
		return
	}

	image, err := newImage(data)
	if err != nil {
		message := "Uploaded file is not a supported image"
		if errors.Is(err, errEmptyImage) {
			message = "Uploaded image is empty"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	if h.analysis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image analysis is not configured"})
		return
	}

	result, err := h.analysis.AnalyzeImage(c.Request.Context(), image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

var (
	errEmptyImage       = errors.New("uploaded image is empty")
	errUnsupportedImage = errors.New("uploaded file is not a supported image")
)

// newImage checks that data is an image and records its MIME type
func newImage(data []byte) (*domain.Image, error) {
	if len(data) == 0 {
		return nil, errEmptyImage
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", errUnsupportedImage, mtype.String())
	}

	return &domain.Image{Data: data, MIMEType: mtype.String()}, nil
}

// CulturalInfo returns cultural and historical notes for a food
func (h *Handler) CulturalInfo(c *gin.Context) {
	if h.analysis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image analysis is not configured"})
		return
	}

	info, err := h.analysis.CulturalInfo(c.Request.Context(), c.Param("food_name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"info": info})
}

// saveMealRequest is the body of a save meal request
type saveMealRequest struct {
	Meal  json.RawMessage `json:"meal"`
	Score *float64        `json:"score"`
}

// SaveMeal appends a meal to the log
func (h *Handler) SaveMeal(c *gin.Context) {
	var req saveMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Meal) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meal is required"})
		return
	}
	if req.Score == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score is required"})
		return
	}

	if h.meals == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Meal log is not configured"})
		return
	}

	if _, err := h.meals.SaveMeal(c.Request.Context(), req.Meal, *req.Score); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// MealHistory returns the most recent saved meals
func (h *Handler) MealHistory(c *gin.Context) {
	if h.meals == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Meal log is not configured"})
		return
	}

	records, err := h.meals.RecentMeals(c.Request.Context(), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// NutritionReport renders a nutrition object into the structured and text reports
func (h *Handler) NutritionReport(c *gin.Context) {
	data, err := decodeObject(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be a JSON object"})
		return
	}

	report := usecase.FormatNutritionReport(data)
	c.JSON(http.StatusOK, gin.H{
		"report": report,
		"text":   usecase.FormatNutritionReportText(report),
	})
}

// HealthScore scores the foods list of an analysis-shaped object
func (h *Handler) HealthScore(c *gin.Context) {
	data, err := decodeObject(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	foods := data["foods"]
	if _, isList := foods.([]interface{}); foods != nil && !isList {
		c.JSON(http.StatusBadRequest, gin.H{"error": "foods must be a list"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"health_score": h.scorer.Score(domain.FoodItems(foods))})
}

// decodeObject reads a JSON object body, keeping numbers as written
func decodeObject(body io.Reader) (map[string]interface{}, error) {
	if body == nil {
		return nil, io.EOF
	}

	dec := json.NewDecoder(body)
	dec.UseNumber()

	var data map[string]interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("body is not a JSON object")
	}
	return data, nil
}

// respondError maps domain errors onto status codes with a uniform body
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrParseFailure):
		status = http.StatusBadGateway
		message = domain.ErrParseFailure.Error()
	case errors.Is(err, domain.ErrUpstreamFailure):
		status = http.StatusBadGateway
		message = err.Error()
	case errors.Is(err, domain.ErrStorageFailure):
		message = domain.ErrStorageFailure.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.WithError(err, "http").WithField("path", c.Request.URL.Path).Error("request failed")
	}

	c.JSON(status, gin.H{"error": message})
}
