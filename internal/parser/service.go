package parser

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"salespipe/internal/domain"
)

// Config tunes the parser service.
type Config struct {
	// MaxFileSize rejects buffers before any parser runs. Zero selects the
	// 50MB default.
	MaxFileSize int64
	// Timeout bounds a single parse. Zero selects one minute.
	Timeout time.Duration
	// EnabledParsers restricts registration to the named formats
	// (csv, xlsx, pdf, docx, pptx). Empty enables all of them.
	EnabledParsers []string
	// MaxRows caps tabular output per table. Zero selects DefaultMaxRows.
	MaxRows int
}

const (
	defaultMaxFileSize  = 50 * 1024 * 1024
	defaultParseTimeout = time.Minute

	// activeTaskPressure is the in-flight count above which the service
	// reports degraded health.
	activeTaskPressure = 32
)

// Health levels reported by HealthCheck.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// FileInput is one buffer submitted to ParseMultiple.
type FileInput struct {
	FileName string
	MIMEType string
	Data     []byte
}

// FileResult pairs a file name with either its parsed document or the error
// that stopped it. Exactly one of Result and Err is set.
type FileResult struct {
	FileName string
	Result   *ParsedDocument
	Err      error
}

// Service is the single entry point for parsing buffers. It dispatches by
// MIME type, enforces the size limit and timeout, and tracks in-flight
// tasks. Construct one per process and inject it; there is no package-level
// instance.
type Service struct {
	cfg     Config
	parsers map[domain.FileFormat]Parser
	log     *zap.Logger

	mu    sync.Mutex
	tasks map[string]*ParseTask
}

// NewService creates a parser service with the built-in parser set, honoring
// cfg.EnabledParsers.
func NewService(cfg Config, log *zap.Logger) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultParseTimeout
	}
	s := &Service{
		cfg:     cfg,
		parsers: make(map[domain.FileFormat]Parser),
		log:     log,
		tasks:   make(map[string]*ParseTask),
	}
	for _, p := range []Parser{
		NewCSVParser(cfg.MaxRows),
		NewXLSXParser(cfg.MaxRows),
		NewPDFParser(),
		NewDOCXParser(),
		NewPPTXParser(),
	} {
		if s.formatEnabled(p.Format()) {
			s.parsers[p.Format()] = p
		}
	}
	return s
}

func (s *Service) formatEnabled(format domain.FileFormat) bool {
	if len(s.cfg.EnabledParsers) == 0 {
		return true
	}
	for _, name := range s.cfg.EnabledParsers {
		if domain.FileFormat(name) == format {
			return true
		}
	}
	return false
}

// IsSupported reports whether a parser is registered for the MIME type.
func (s *Service) IsSupported(mimeType string) bool {
	format, ok := domain.MIMETypeFormats[mimeType]
	if !ok {
		return false
	}
	_, ok = s.parsers[format]
	return ok
}

// SupportedMIMETypes returns the MIME types of the registered parsers,
// sorted for stable output.
func (s *Service) SupportedMIMETypes() []string {
	types := make([]string, 0, len(s.parsers))
	for format := range s.parsers {
		types = append(types, domain.FormatMIMETypes[format])
	}
	sort.Strings(types)
	return types
}

// ParseFromBuffer validates and parses one buffer. The size limit is
// checked before any parser is invoked.
func (s *Service) ParseFromBuffer(ctx context.Context, data []byte, fileName, mimeType string, opts ParseOptions) (*ParsedDocument, error) {
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", fileName, len(data), domain.ErrFileTooLarge)
	}
	format, ok := domain.MIMETypeFormats[mimeType]
	if !ok {
		return nil, fmt.Errorf("no parser for %q: %w", mimeType, domain.ErrUnsupportedFileType)
	}
	p, ok := s.parsers[format]
	if !ok {
		return nil, fmt.Errorf("parser for %q is disabled: %w", mimeType, domain.ErrUnsupportedFileType)
	}

	task := s.trackTask(fileName, mimeType)
	s.setTaskStatus(task.ID, TaskRunning)

	parseCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := p.ValidateFile(data, mimeType); err != nil {
		s.setTaskStatus(task.ID, TaskFailed)
		return nil, err
	}
	doc, err := p.Parse(parseCtx, data, fileName, opts)
	if err != nil {
		s.setTaskStatus(task.ID, TaskFailed)
		s.log.Warn("parse failed",
			zap.String("file", fileName),
			zap.String("mimeType", mimeType),
			zap.Error(err))
		return nil, err
	}
	s.setTaskStatus(task.ID, TaskDone)
	s.log.Debug("parse completed",
		zap.String("file", fileName),
		zap.Int("blocks", doc.Metadata.TotalBlocks),
		zap.Duration("took", doc.Metadata.ParseDuration))
	return doc, nil
}

// ParseMultiple parses a set of buffers with bounded concurrency. One file's
// failure never aborts its siblings, and the result slice preserves input
// order regardless of completion order.
func (s *Service) ParseMultiple(ctx context.Context, files []FileInput, maxConcurrency int) []FileResult {
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i, f := range files {
		g.Go(func() error {
			doc, err := s.ParseFromBuffer(gctx, f.Data, f.FileName, f.MIMEType, ParseOptions{})
			results[i] = FileResult{FileName: f.FileName, Result: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ActiveTasks returns a snapshot of tracked parse tasks.
func (s *Service) ActiveTasks() []ParseTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]ParseTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].StartedAt.Before(tasks[j].StartedAt) })
	return tasks
}

// ClearTasks drops completed and failed task records.
func (s *Service) ClearTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tasks {
		if t.Status == TaskDone || t.Status == TaskFailed {
			delete(s.tasks, id)
		}
	}
}

// HealthCheck reports service health from parser registration and in-flight
// task pressure.
func (s *Service) HealthCheck() string {
	if len(s.parsers) == 0 {
		return HealthUnhealthy
	}
	s.mu.Lock()
	running := 0
	for _, t := range s.tasks {
		if t.Status == TaskRunning || t.Status == TaskQueued {
			running++
		}
	}
	s.mu.Unlock()
	if running > activeTaskPressure {
		return HealthDegraded
	}
	return HealthHealthy
}

func (s *Service) trackTask(fileName, mimeType string) *ParseTask {
	task := &ParseTask{
		ID:        uuid.New().String(),
		FileName:  fileName,
		MIMEType:  mimeType,
		StartedAt: time.Now().UTC(),
		Status:    TaskQueued,
	}
	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()
	return task
}

func (s *Service) setTaskStatus(id string, status TaskStatus) {
	s.mu.Lock()
	if t, ok := s.tasks[id]; ok {
		t.Status = status
	}
	s.mu.Unlock()
}
