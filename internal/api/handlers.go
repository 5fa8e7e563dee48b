package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/health-advisor-server/internal/domain"
	"github.com/health-advisor-server/internal/middleware"
	"github.com/health-advisor-server/internal/service"
)

// CustomAdviceRequest is the body of POST /api/custom-advice
type CustomAdviceRequest struct {
	Data       domain.VitalReading `json:"data"`
	RiskScores domain.RiskScoreMap `json:"riskScores"`
}

// ExtractRequest is the body of POST /api/v1/extract
type ExtractRequest struct {
	Text string `json:"text"`
}

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	Data     domain.VitalReading `json:"data"`
	Text     string              `json:"text"`
	Strategy string              `json:"strategy,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"strategy":  s.configManager.GetAdviceConfig().Strategy,
	})
}

// handleCustomAdvice serves the web client contract: sentences joined by a single
// space, and one generic failure body for anything that goes wrong downstream
func (s *Server) handleCustomAdvice(c *gin.Context) {
	var req CustomAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	advice, err := s.advisor.CustomAdvice(c.Request.Context(), req.Data, req.RiskScores)
	if err != nil {
		s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).
			Error("Custom advice error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Custom advice failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"advice": strings.Join(advice, " ")})
}

// handleExtract runs the field extractor over posted text
func (s *Server) handleExtract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vitals": s.advisor.Extract(req.Text)})
}

// handleAnalyze runs the full pipeline over form values and/or text
func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err)
		return
	}

	s.analyze(c, service.AnalyzeRequest{Vitals: req.Data, Text: req.Text}, req.Strategy)
}

// handleAnalyzeDocument decodes an uploaded document and analyzes its text
func (s *Server) handleAnalyzeDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.abortWithError(c, http.StatusRequestEntityTooLarge, domain.ErrInvalidInput, "Upload too large", err)
			return
		}
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Missing file field", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Unreadable upload", err)
		return
	}
	defer file.Close()

	text, err := s.decoder.Decode(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedDocument) {
			s.abortWithError(c, http.StatusUnsupportedMediaType, domain.ErrUnsupportedFormat, "Unsupported document type", err)
			return
		}
		s.abortWithError(c, http.StatusUnprocessableEntity, domain.ErrInvalidInput, "Could not decode document", err)
		return
	}

	s.analyze(c, service.AnalyzeRequest{Text: text}, c.PostForm("strategy"))
}

func (s *Server) analyze(c *gin.Context, req service.AnalyzeRequest, strategy string) {
	result, err := s.advisor.Analyze(c.Request.Context(), req, service.AdviceOptions{Strategy: strategy})
	if err != nil {
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &validationErr):
			s.abortWithError(c, http.StatusBadRequest, domain.ErrValidation, "Invalid analysis request", err)
		case domain.IsLoadError(err):
			s.abortWithError(c, http.StatusInternalServerError, domain.ErrLibraryLoad, "Advice is temporarily unavailable", err)
		default:
			s.abortWithError(c, http.StatusInternalServerError, domain.ErrInternalServer, "Analysis failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// abortWithError writes an APIError envelope. Internal causes are logged but
// only client errors echo their details.
func (s *Server) abortWithError(c *gin.Context, status int, code, message string, err error) {
	correlationID := c.GetString(middleware.CorrelationIDKey)
	details := ""
	if status < http.StatusInternalServerError && err != nil {
		details = err.Error()
	}

	entry := s.logger.WithField("correlation_id", correlationID).WithField("code", code)
	if err != nil {
		entry = entry.WithError(err)
	}
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Warn(message)
	}

	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, correlationID))
}
