package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services/storage"
	"github.com/granthub/granthub-api/utils/pdfvalidation"
)

// DocumentService manages supporting documents attached to applications
type DocumentService struct {
	db      *gorm.DB
	storage *storage.Client
}

func NewDocumentService(db *gorm.DB, storageClient *storage.Client) *DocumentService {
	return &DocumentService{
		db:      db,
		storage: storageClient,
	}
}

// limitsForType maps a document type to its upload limits
func limitsForType(docType model.DocumentType) pdfvalidation.PDFLimits {
	switch docType {
	case model.DocumentTypeAcademicTranscript:
		return pdfvalidation.TranscriptLimits
	case model.DocumentTypeRecommendationLetter:
		return pdfvalidation.LetterLimits
	case model.DocumentTypeFinancialStatement:
		return pdfvalidation.FinancialLimits
	default:
		return pdfvalidation.DefaultLimits
	}
}

// Upload validates and stores a supporting document for an application.
// Only the applicant who owns the application or an admin may upload.
func (s *DocumentService) Upload(ctx context.Context, caller Caller, applicationID uint, docType model.DocumentType, file *multipart.FileHeader) (*model.ApplicationDocument, error) {
	if !model.ValidDocumentType(docType) {
		return nil, NewValidationError("type", "unknown document type")
	}

	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.ApplicantID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	result, err := pdfvalidation.ValidatePDFFile(file, limitsForType(docType))
	if err != nil {
		return nil, fmt.Errorf("failed to validate document: %w", err)
	}
	if !result.Valid {
		return nil, NewValidationError("file", result.Error)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	key := storage.DocumentKey(applicationID, string(docType), file.Filename)
	contentType := storage.ContentType(file.Filename)

	if _, err := s.storage.Upload(ctx, key, src, contentType, false); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &model.ApplicationDocument{
		ApplicationID: applicationID,
		UploaderID:    caller.ID,
		Type:          docType,
		FileName:      file.Filename,
		StorageKey:    key,
		FileSize:      file.Size,
		ContentType:   contentType,
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		// Best effort cleanup of the orphaned object
		_ = s.storage.Delete(ctx, key)
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	return doc, nil
}

// List returns the documents attached to an application
func (s *DocumentService) List(ctx context.Context, caller Caller, applicationID uint) ([]model.ApplicationDocument, error) {
	app, err := s.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.ApplicantID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	var docs []model.ApplicationDocument
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// Delete removes a document from storage and the database
func (s *DocumentService) Delete(ctx context.Context, caller Caller, documentID uint) error {
	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}

	app, err := s.getApplication(ctx, doc.ApplicationID)
	if err != nil {
		return err
	}
	if app == nil {
		return ErrNotFound
	}
	if app.ApplicantID != caller.ID && !caller.IsAdmin() {
		return ErrForbidden
	}

	if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(doc).Error; err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	return nil
}

// DownloadURL returns a time-limited link for retrieving a document
func (s *DocumentService) DownloadURL(ctx context.Context, caller Caller, documentID uint) (string, error) {
	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", ErrNotFound
	}

	app, err := s.getApplication(ctx, doc.ApplicationID)
	if err != nil {
		return "", err
	}
	if app == nil {
		return "", ErrNotFound
	}
	if app.ApplicantID != caller.ID && !caller.IsAdmin() {
		return "", ErrForbidden
	}

	url, err := s.storage.PresignedURL(doc.StorageKey, 15*time.Minute)
	if err != nil {
		return "", fmt.Errorf("failed to generate download link: %w", err)
	}

	return url, nil
}

// UploadAvatar stores a user avatar image and returns its public URL
func (s *DocumentService) UploadAvatar(ctx context.Context, userID uint, file *multipart.FileHeader) (string, error) {
	const maxAvatarSize = 2 * 1024 * 1024
	if file.Size > maxAvatarSize {
		return "", NewValidationError("file", "avatar must be 2MB or smaller")
	}

	contentType := storage.ContentType(file.Filename)
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		return "", NewValidationError("file", "avatar must be a JPEG, PNG or WebP image")
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	key := storage.AvatarKey(userID, file.Filename)
	url, err := s.storage.Upload(ctx, key, src, contentType, true)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("avatar_url", url).Error; err != nil {
		return "", fmt.Errorf("failed to update user avatar: %w", err)
	}

	return url, nil
}

// UploadLogo stores a partner organization logo and returns its public URL
func (s *DocumentService) UploadLogo(ctx context.Context, caller Caller, partnerID uint, file *multipart.FileHeader) (string, error) {
	var partner model.PartnerOrganization
	err := s.db.WithContext(ctx).First(&partner, partnerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get partner: %w", err)
	}
	if partner.OwnerID != caller.ID && !caller.IsAdmin() {
		return "", ErrForbidden
	}

	const maxLogoSize = 2 * 1024 * 1024
	if file.Size > maxLogoSize {
		return "", NewValidationError("file", "logo must be 2MB or smaller")
	}

	contentType := storage.ContentType(file.Filename)
	switch contentType {
	case "image/jpeg", "image/png", "image/webp", "image/svg+xml":
	default:
		return "", NewValidationError("file", "logo must be an image file")
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	key := storage.LogoKey(partnerID, file.Filename)
	url, err := s.storage.Upload(ctx, key, src, contentType, true)
	if err != nil {
		return "", fmt.Errorf("failed to store logo: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&model.PartnerOrganization{}).
		Where("id = ?", partnerID).
		Update("logo_url", url).Error; err != nil {
		return "", fmt.Errorf("failed to update partner logo: %w", err)
	}

	return url, nil
}

func (s *DocumentService) getApplication(ctx context.Context, id uint) (*model.Application, error) {
	var app model.Application
	err := s.db.WithContext(ctx).First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

func (s *DocumentService) getDocument(ctx context.Context, id uint) (*model.ApplicationDocument, error) {
	var doc model.ApplicationDocument
	err := s.db.WithContext(ctx).First(&doc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}
