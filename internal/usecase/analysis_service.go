package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/platelens/backend/internal/domain"
	"github.com/platelens/backend/internal/logger"
)

// AnalysisService turns food photos into nutrition analyses using the model
type AnalysisService struct {
	model domain.ModelClient
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(model domain.ModelClient) *AnalysisService {
	return &AnalysisService{model: model}
}

// AnalyzeImage asks the model to analyze image and parses its reply.
// Flow: prompt + image -> model -> extract fenced JSON -> parse as an object
func (s *AnalysisService) AnalyzeImage(ctx context.Context, image *domain.Image) (domain.Analysis, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}

	log := logger.WithComponent("analysis").WithField("mime_type", image.MIMEType)

	reply, err := s.model.GenerateContent(ctx, analysisPrompt, image)
	if err != nil {
		log.WithError(err).Error("model call failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}

	result, err := parseAnalysis(ExtractJSON(reply))
	if err != nil {
		log.WithError(err).Warn("model reply was not valid nutrition JSON")
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}

	log.WithField("foods", len(result.Foods())).Info("image analyzed")
	return result, nil
}

// parseAnalysis decodes payload as a single JSON object. Numbers keep their
// original text so the reply round-trips unchanged.
func parseAnalysis(payload string) (domain.Analysis, error) {
	trimmed := bytes.TrimSpace([]byte(payload))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("reply is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var result domain.Analysis
	if err := dec.Decode(&result); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}

	result.Normalize()
	return result, nil
}

// CulturalInfo returns a short cultural and historical note about foodName
func (s *AnalysisService) CulturalInfo(ctx context.Context, foodName string) (string, error) {
	foodName = strings.TrimSpace(foodName)
	if foodName == "" {
		return "", fmt.Errorf("%w: food name is required", domain.ErrInvalidInput)
	}

	reply, err := s.model.GenerateContent(ctx, culturalInfoPrompt(foodName), nil)
	if err != nil {
		logger.WithError(err, "analysis").WithField("food", foodName).Error("cultural info lookup failed")
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}

	return strings.TrimSpace(reply), nil
}
