package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/tutela-go-api/internal/dto"
	"github.com/noah-isme/tutela-go-api/internal/models"
	"github.com/noah-isme/tutela-go-api/internal/repository"
)

var (
	// ErrCertificateTooLarge indicates the upload exceeds the size cap.
	ErrCertificateTooLarge = errors.New("certificate file exceeds size limit")
	// ErrCertificateType indicates the content is not a PDF or image.
	ErrCertificateType = errors.New("certificate must be a PDF or image")
)

// FileStorage abstracts the blob store holding uploaded certificates.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// CertificateService stores clearance certificates and flips the person's
// clearance flag, completing the person when the quiz is already passed.
type CertificateService interface {
	Upload(ctx context.Context, personID uint, header *multipart.FileHeader) (dto.CertificateResponse, error)
	List(ctx context.Context, personID uint) ([]dto.CertificateResponse, error)
}

type certificateService struct {
	certificates repository.CertificateRepository
	persons      repository.PersonRepository
	quizzes      repository.QuizRepository
	storage      FileStorage
	logger       zerolog.Logger
	tracer       trace.Tracer
	maxSizeBytes int64
}

// NewCertificateService constructs a certificate service.
func NewCertificateService(certificates repository.CertificateRepository, persons repository.PersonRepository, quizzes repository.QuizRepository, storage FileStorage, maxSizeMB int, logger zerolog.Logger) CertificateService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}

	return &certificateService{
		certificates: certificates,
		persons:      persons,
		quizzes:      quizzes,
		storage:      storage,
		logger:       logger.With().Str("component", "certificate_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/tutela-go-api/internal/service/certificate"),
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

func (s *certificateService) Upload(ctx context.Context, personID uint, header *multipart.FileHeader) (dto.CertificateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "certificates.upload", trace.WithAttributes(
		attribute.Int("certificate.person_id", int(personID)),
	))
	defer span.End()

	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, err
	}

	if header.Size > s.maxSizeBytes {
		return dto.CertificateResponse{}, ErrCertificateTooLarge
	}

	file, err := header.Open()
	if err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, s.maxSizeBytes+1))
	if err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(content)) > s.maxSizeBytes {
		return dto.CertificateResponse{}, ErrCertificateTooLarge
	}

	detected := mimetype.Detect(content)
	if !allowedCertificateType(detected.String()) {
		return dto.CertificateResponse{}, ErrCertificateType
	}

	url, err := s.storage.Upload(ctx, header.Filename, bytes.NewReader(content))
	if err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, fmt.Errorf("failed to store certificate: %w", err)
	}

	checksum := sha256.Sum256(content)
	record := models.CertificateRecord{
		PersonID:  personID,
		FileName:  header.Filename,
		URL:       url,
		MimeType:  detected.String(),
		SizeBytes: int64(len(content)),
		Checksum:  hex.EncodeToString(checksum[:]),
	}
	if err := s.certificates.Create(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, err
	}

	if err := s.persons.SetClearance(ctx, personID, true); err != nil {
		span.RecordError(err)
		return dto.CertificateResponse{}, err
	}

	s.maybeComplete(ctx, person)

	s.logger.Info().Uint("person_id", personID).Str("mime_type", record.MimeType).Msg("clearance certificate stored")

	return dto.CertificateResponse{
		URL:       record.URL,
		FileName:  record.FileName,
		MimeType:  record.MimeType,
		SizeBytes: record.SizeBytes,
		Checksum:  record.Checksum,
	}, nil
}

func (s *certificateService) List(ctx context.Context, personID uint) ([]dto.CertificateResponse, error) {
	records, err := s.certificates.ListByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CertificateResponse, 0, len(records))
	for _, record := range records {
		out = append(out, dto.CertificateResponse{
			URL:       record.URL,
			FileName:  record.FileName,
			MimeType:  record.MimeType,
			SizeBytes: record.SizeBytes,
			Checksum:  record.Checksum,
		})
	}
	return out, nil
}

// maybeComplete advances the person when the quiz requirement is already
// satisfied, either because a passed attempt exists or the role has none.
func (s *certificateService) maybeComplete(ctx context.Context, person models.Person) {
	if person.Status != models.PersonStatusInProgress {
		return
	}

	if person.RequiresQuiz() {
		passed, err := s.quizzes.HasPassedAttempt(ctx, person.ID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("person_id", person.ID).Msg("failed to check quiz history")
			return
		}
		if !passed {
			return
		}
	}

	applied, err := s.persons.TransitionStatus(ctx, person.ID, models.PersonStatusInProgress, models.PersonStatusComplete)
	if err != nil {
		s.logger.Error().Err(err).Uint("person_id", person.ID).Msg("failed to complete person after certificate upload")
		return
	}
	if applied {
		s.logger.Info().Uint("person_id", person.ID).Msg("person completed onboarding")
	}
}

func allowedCertificateType(mime string) bool {
	if mime == "application/pdf" {
		return true
	}
	return strings.HasPrefix(mime, "image/")
}
