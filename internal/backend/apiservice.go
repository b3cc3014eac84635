package backend

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
	"github.com/deerking0923/prj-sketch-backend/internal/core"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	successMessage         = "image converted successfully"
	defaultConversionLimit = 50
	imageField             = "image"
	styleField             = "style"
)

type APIService struct {
	coreService    *core.CoreService
	rateLimiter    RateLimiter
	subjectHeader  string
	maxUploadBytes int64
	metrics        *metrics
}

// NewAPIService creates the JSON API. rateLimiter may be nil to disable
// rate limiting.
func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService, rateLimiter RateLimiter) *APIService {
	return &APIService{
		coreService:    coreService,
		rateLimiter:    rateLimiter,
		subjectHeader:  config.RateLimit.SubjectHeader,
		maxUploadBytes: config.Conversion.MaxUploadBytes,
		metrics:        newMetrics(),
	}
}

type convertQuery struct {
	Format string `query:"format" validate:"omitempty,oneof=png jpg jpeg gif tif tiff bmp"`
}

type conversionsQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

type convertResponse struct {
	Message           string         `json:"message"`
	FileName          string         `json:"file_name"`
	Style             string         `json:"style"`
	Parameters        map[string]any `json:"parameters"`
	Format            string         `json:"format"`
	ContentType       string         `json:"content_type"`
	Width             int            `json:"width"`
	Height            int            `json:"height"`
	CacheHit          bool           `json:"cache_hit"`
	ConversionID      string         `json:"conversion_id"`
	SketchImageBase64 string         `json:"sketch_image_base64"`
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.Use(s.metrics.middleware)

	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})
	e.GET("/metrics", echo.WrapHandler(s.metrics.metricsHandler()))

	api := e.Group("/api")
	api.POST("/convert", s.convertHandler,
		middleware.BodyLimit(fmt.Sprintf("%dB", s.maxUploadBytes)),
		s.withRateLimit)
	api.GET("/styles", s.listStylesHandler)
	api.GET("/styles/:name", s.getStyleHandler)
	api.GET("/conversions", s.listConversionsHandler)
	api.GET("/conversions/:id", s.getConversionHandler)
}

func (s *APIService) convertHandler(ctx echo.Context) error {
	query := convertQuery{Format: ctx.QueryParam("format")}
	if err := ctx.Validate(&query); err != nil {
		return err
	}

	req := core.ConvertRequest{Format: query.Format, Params: map[string]any{}}
	form, err := ctx.MultipartForm()
	switch {
	case err == nil:
		for name, values := range form.Value {
			if len(values) == 0 {
				continue
			}
			if name == styleField {
				req.Style = values[0]
				continue
			}
			req.Params[name] = values[0]
		}
		if files := form.File[imageField]; len(files) > 0 {
			req.FileName = files[0].Filename
			req.Image, err = readUpload(files[0])
			if err != nil {
				slog.Error("convertHandler: failed to read uploaded file",
					"status", http.StatusInternalServerError, "error", err, "filename", req.FileName)
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to read uploaded file")
			}
		}
	case errors.Is(err, http.ErrNotMultipart):
		// no upload at all; reported as a missing image below
	default:
		slog.Warn("convertHandler: failed to parse multipart form", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "failed to parse multipart form")
	}

	resp, err := s.coreService.Convert(ctx.Request().Context(), req)
	if err != nil {
		s.metrics.conversionsTotal.WithLabelValues(s.styleLabel(req.Style), "failed").Inc()
		return err
	}

	s.metrics.conversionsTotal.WithLabelValues(resp.Style, "succeeded").Inc()
	s.metrics.conversionDuration.WithLabelValues(resp.Style).Observe(resp.Duration.Seconds())
	if resp.CacheHit {
		s.metrics.cacheHits.WithLabelValues(resp.Style).Inc()
	}

	return ctx.JSON(http.StatusOK, convertResponse{
		Message:           successMessage,
		FileName:          req.FileName,
		Style:             resp.Style,
		Parameters:        resp.Params,
		Format:            resp.Format,
		ContentType:       resp.ContentType,
		Width:             resp.Width,
		Height:            resp.Height,
		CacheHit:          resp.CacheHit,
		ConversionID:      resp.ID,
		SketchImageBase64: base64.StdEncoding.EncodeToString(resp.Image),
	})
}

// styleLabel keeps metric cardinality bounded by collapsing names that are
// not registered styles.
func (s *APIService) styleLabel(style string) string {
	if style == "" {
		return s.coreService.DefaultStyle()
	}
	if _, err := s.coreService.Style(style); err != nil {
		return "unknown"
	}
	return style
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()
	return io.ReadAll(src)
}

func (s *APIService) listStylesHandler(ctx echo.Context) error {
	descriptors := s.coreService.Styles()
	styles := make(map[string]stylestructure.StyleDescriptor, len(descriptors))
	order := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		styles[d.Name] = d
		order = append(order, d.Name)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"default_style": s.coreService.DefaultStyle(),
		"order":         order,
		"styles":        styles,
	})
}

func (s *APIService) getStyleHandler(ctx echo.Context) error {
	desc, err := s.coreService.Style(ctx.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return ctx.JSON(http.StatusOK, desc)
}

func (s *APIService) listConversionsHandler(ctx echo.Context) error {
	var query conversionsQuery
	if err := ctx.Bind(&query); err != nil {
		return err
	}
	if err := ctx.Validate(&query); err != nil {
		return err
	}
	if query.Limit == 0 {
		query.Limit = defaultConversionLimit
	}

	records, err := s.coreService.Conversions(ctx.Request().Context(), query.Limit)
	if err != nil {
		slog.Error("listConversionsHandler: failed to list conversions", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversions")
	}
	return ctx.JSON(http.StatusOK, map[string]any{"conversions": records})
}

func (s *APIService) getConversionHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	record, err := s.coreService.Conversion(ctx.Request().Context(), id)
	if err != nil {
		slog.Error("getConversionHandler: failed to load conversion", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conversion")
	}
	if record == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("conversion %s not found", id))
	}
	return ctx.JSON(http.StatusOK, record)
}
