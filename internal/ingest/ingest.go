// Package ingest bridges spreadsheet decoding and the upload store.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/decoder"
	"github.com/sheet-dashboard/backend/internal/models"
)

// StatusType is the outcome class of an ingestion.
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
)

// Status is the banner shown after an ingestion attempt.
type Status struct {
	Type    StatusType `json:"type"`
	Message string     `json:"message"`
}

// UploadCreator is the part of the upload store ingestion needs.
type UploadCreator interface {
	CreateUpload(filename string, rows []models.Row, columns []string) *models.Upload
}

// Service decodes uploaded files and stores the result. Only one ingestion
// runs at a time.
type Service struct {
	registry  *decoder.Registry
	store     UploadCreator
	logger    *log.Logger
	uploading atomic.Bool
}

// NewService creates an ingestion service.
func NewService(registry *decoder.Registry, store UploadCreator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New("ingest")
	}
	return &Service{
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// Uploading reports whether an ingestion is in flight.
func (s *Service) Uploading() bool {
	return s.uploading.Load()
}

// Ingest decodes data and, when it yields at least one record, creates an
// upload whose columns are the first record's keys. No upload is created on
// failure.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (*models.Upload, error) {
	return s.ingest(ctx, filename, data, func(head []byte) (decoder.Decoder, error) {
		return s.registry.Find(filename, head)
	})
}

// IngestAs is Ingest with the decoder chosen by name instead of detected.
func (s *Service) IngestAs(ctx context.Context, format, filename string, data []byte) (*models.Upload, error) {
	return s.ingest(ctx, filename, data, func([]byte) (decoder.Decoder, error) {
		return s.registry.GetDecoderByName(format)
	})
}

func (s *Service) ingest(ctx context.Context, filename string, data []byte, pick func(head []byte) (decoder.Decoder, error)) (*models.Upload, error) {
	if !s.uploading.CompareAndSwap(false, true) {
		return nil, ErrIngestInProgress
	}
	defer s.uploading.Store(false)

	if err := ctx.Err(); err != nil {
		return nil, &IngestError{Filename: filename, Err: err}
	}

	start := time.Now()
	head := data
	if len(head) > 8 {
		head = head[:8]
	}
	d, err := pick(head)
	if err != nil {
		s.logger.Warnf("[Ingest] %s: %v", filename, err)
		return nil, &IngestError{Filename: filename, Err: err}
	}

	records, err := s.decode(d, data)
	if err != nil {
		s.logger.Warnf("[Ingest] %s: %s decode failed: %v", filename, d.Name(), err)
		return nil, &IngestError{Filename: filename, Err: err}
	}
	if len(records) == 0 {
		s.logger.Infof("[Ingest] %s: no records", filename)
		return nil, &DecodeError{Filename: filename}
	}

	rows := make([]models.Row, len(records))
	for i, rec := range records {
		rows[i] = rec.Row
	}
	columns := records[0].Keys

	upload := s.store.CreateUpload(filename, rows, columns)
	s.logger.Infof("[Ingest %s] %s: %d rows, %d columns via %s in %v",
		shortID(upload.ID), filename, len(rows), len(columns), d.Name(), time.Since(start))
	return upload, nil
}

// decode runs the decoder, turning a panic inside a third-party reader into an error.
func (s *Service) decode(d decoder.Decoder, data []byte) (records []models.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder %s panicked: %v", d.Name(), r)
		}
	}()
	records, err = d.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name(), err)
	}
	return records, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
