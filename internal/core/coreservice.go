package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/cache"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/conversion"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/database"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
	"github.com/disintegration/imaging"

	// registers the built-in styles
	_ "github.com/deerking0923/prj-sketch-backend/internal/backend/styles"
)

// UnsupportedFormatError is returned for an output format the encoder does
// not know.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q", e.Format)
}

// ConvertRequest is one conversion as received from a client.
type ConvertRequest struct {
	Image    []byte
	FileName string
	Style    string
	Params   map[string]any
	// Format overrides the configured output format when set
	Format string
}

// ConvertResponse is an encoded conversion result.
type ConvertResponse struct {
	ID          string
	Image       []byte
	ContentType string
	Format      string
	Style       string
	Params      map[string]any
	Width       int
	Height      int
	CacheHit    bool
	Duration    time.Duration
}

type CoreService struct {
	config          *ServiceConfig
	converter       *conversion.Converter
	outputFormat    imaging.Format
	slots           chan struct{}
	resultCache     *cache.ResultCache
	databaseService database.DatabaseService
}

// NewCoreService builds the registry with the configured overrides and
// opens the journal and the result cache.
func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	registry, err := stylestructure.DefaultRegistry.WithDefaults(config.StyleOverrides())
	if err != nil {
		return nil, fmt.Errorf("invalid style overrides: %w", err)
	}
	if !registry.IsRegistered(config.Conversion.DefaultStyle) {
		return nil, &stylestructure.UnknownStyleError{
			Style:     config.Conversion.DefaultStyle,
			Available: registry.GetRegisteredNames(),
		}
	}

	format, err := pixel.ParseFormat(config.Conversion.OutputFormat)
	if err != nil {
		return nil, &UnsupportedFormatError{Format: config.Conversion.OutputFormat}
	}

	var resultCache *cache.ResultCache
	if config.Cache.Enabled {
		resultCache, err = cache.NewResultCache(config.Cache.MaxCost, config.Cache.TTL)
		if err != nil {
			return nil, err
		}
	}

	databaseService, err := getDatabaseService(config)
	if err != nil {
		if resultCache != nil {
			resultCache.Close()
		}
		return nil, err
	}

	workers := max(config.Conversion.Workers, 1)
	slog.Info("core service initialized",
		"styles", len(registry.GetRegisteredNames()),
		"default_style", config.Conversion.DefaultStyle,
		"output_format", format.String(),
		"workers", workers,
		"cache", config.Cache.Enabled)

	return &CoreService{
		config:          config,
		converter:       conversion.NewConverter(registry, config.Conversion.DefaultStyle, config.Conversion.MaxPixels),
		outputFormat:    format,
		slots:           make(chan struct{}, workers),
		resultCache:     resultCache,
		databaseService: databaseService,
	}, nil
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

// Close releases the journal and the cache.
func (service *CoreService) Close() error {
	if service.resultCache != nil {
		service.resultCache.Close()
	}
	return service.databaseService.Close()
}

// Styles lists every style in registration order.
func (service *CoreService) Styles() []stylestructure.StyleDescriptor {
	return service.converter.Registry().ListStyles()
}

// Style describes one style.
func (service *CoreService) Style(name string) (stylestructure.StyleDescriptor, error) {
	return service.converter.Registry().Describe(name)
}

// DefaultStyle is the style used when a request names none.
func (service *CoreService) DefaultStyle() string {
	return service.config.Conversion.DefaultStyle
}

// Conversions returns the newest journal entries.
func (service *CoreService) Conversions(ctx context.Context, limit int) ([]*database.ConversionRecord, error) {
	return service.databaseService.GetConversions(ctx, limit)
}

// Conversion returns one journal entry, or nil when the ID is unknown.
func (service *CoreService) Conversion(ctx context.Context, id string) (*database.ConversionRecord, error) {
	return service.databaseService.GetConversionByID(ctx, id)
}

// Convert decodes, validates and processes the request and returns the
// encoded result. Deterministic results are served from the cache when
// possible. Every attempt past the input check is journaled.
func (service *CoreService) Convert(ctx context.Context, req ConvertRequest) (*ConvertResponse, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, service.config.Conversion.Timeout)
	defer cancel()

	resp, err := service.convert(ctx, req)

	rec := &database.ConversionRecord{
		Style:      req.Style,
		Format:     req.Format,
		InputBytes: len(req.Image),
		DurationMS: time.Since(start).Milliseconds(),
		Status:     database.StatusSucceeded,
	}
	if rec.Style == "" {
		rec.Style = service.config.Conversion.DefaultStyle
	}
	if err != nil {
		var missing *conversion.MissingInputError
		if errors.As(err, &missing) {
			return nil, err
		}
		rec.Status = database.StatusFailed
		rec.Error = err.Error()
	} else {
		rec.Style = resp.Style
		rec.Params = encodeParams(resp.Params)
		rec.Format = resp.Format
		rec.Width = resp.Width
		rec.Height = resp.Height
		rec.OutputBytes = len(resp.Image)
		rec.CacheHit = resp.CacheHit
	}

	id, recErr := service.databaseService.RecordConversion(context.WithoutCancel(ctx), rec)
	if recErr != nil {
		slog.Error("CoreService: failed to journal conversion", "style", rec.Style, "error", recErr)
	}
	if err != nil {
		return nil, err
	}
	resp.ID = id
	resp.Duration = time.Since(start)
	return resp, nil
}

func (service *CoreService) convert(ctx context.Context, req ConvertRequest) (*ConvertResponse, error) {
	job, err := service.converter.Prepare(req.Image, req.Style, req.Params)
	if err != nil {
		return nil, err
	}

	format := service.outputFormat
	if req.Format != "" {
		format, err = pixel.ParseFormat(req.Format)
		if err != nil {
			return nil, &UnsupportedFormatError{Format: req.Format}
		}
	}

	params := job.Params.Map()
	var key string
	if service.resultCache != nil && !job.Nondeterministic() {
		key, err = cache.Key(req.Image, job.Style, params, format.String())
		if err != nil {
			slog.Warn("CoreService: skipping cache", "style", job.Style, "error", err)
		} else if entry, ok := service.resultCache.Get(key); ok {
			slog.Debug("CoreService: cache hit", "style", job.Style)
			return &ConvertResponse{
				Image:       entry.Data,
				ContentType: entry.ContentType,
				Format:      entry.Format,
				Style:       job.Style,
				Params:      params,
				Width:       entry.Width,
				Height:      entry.Height,
				CacheHit:    true,
			}, nil
		}
	}

	if err := service.acquire(ctx); err != nil {
		return nil, err
	}
	result, err := service.converter.Run(ctx, job)
	service.release()
	if err != nil {
		return nil, err
	}

	data, err := pixel.Encode(result.Buffer, format)
	if err != nil {
		return nil, &conversion.ProcessingError{Style: job.Style, Cause: err}
	}

	resp := &ConvertResponse{
		Image:       data,
		ContentType: pixel.ContentType(format),
		Format:      format.String(),
		Style:       job.Style,
		Params:      params,
		Width:       result.Buffer.Width,
		Height:      result.Buffer.Height,
	}
	if key != "" {
		service.resultCache.Set(key, &cache.Entry{
			Data:        data,
			ContentType: resp.ContentType,
			Format:      resp.Format,
			Width:       resp.Width,
			Height:      resp.Height,
		})
	}
	return resp, nil
}

// acquire waits for a free worker slot or for ctx to end.
func (service *CoreService) acquire(ctx context.Context) error {
	select {
	case service.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for a worker slot: %w", ctx.Err())
	}
}

func (service *CoreService) release() {
	<-service.slots
}

func encodeParams(params map[string]any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return "{}"
	}
	return string(data)
}
