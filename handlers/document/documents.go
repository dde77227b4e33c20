// Package document handles application document uploads backed by Spaces
// object storage.
package document

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// DocumentHandler handles document-related requests
type DocumentHandler struct {
	documents *services.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Upload attaches a PDF to an application.
// POST /api/applications/:id/documents (multipart: file, type)
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	applicationID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	docType := model.DocumentType(c.FormValue("type"))
	switch docType {
	case model.DocumentTypeAcademicTranscript, model.DocumentTypeEnrollmentProof,
		model.DocumentTypeRecommendationLetter, model.DocumentTypeFinancialStatement,
		model.DocumentTypeStateOfOrigin, model.DocumentTypeAdditional:
	default:
		return response.BadRequest(c, "Invalid or missing document type")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "No file uploaded")
	}

	doc, err := h.documents.Upload(c.Context(), caller, applicationID, docType, file)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, doc)
}

// List returns the documents attached to an application
// GET /api/applications/:id/documents
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	applicationID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	docs, err := h.documents.List(c.Context(), caller, applicationID)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, docs)
}

// Delete removes a document from an application and from storage
// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	documentID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	if err := h.documents.Delete(c.Context(), caller, documentID); err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, fiber.Map{"message": "Document deleted"})
}

// DownloadURL returns a short-lived presigned link to a document
// GET /api/documents/:id/download
func (h *DocumentHandler) DownloadURL(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	documentID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	url, err := h.documents.DownloadURL(c.Context(), caller, documentID)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, fiber.Map{"url": url})
}

// UploadAvatar sets the caller's profile picture.
// POST /api/auth/avatar (multipart: file)
func (h *DocumentHandler) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "No file uploaded")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	url, err := h.documents.UploadAvatar(c.Context(), userID, file)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, fiber.Map{"avatar_url": url})
}

// UploadLogo sets a partner organization's logo.
// POST /api/partners/:id/logo (multipart: file)
func (h *DocumentHandler) UploadLogo(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	partnerID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid organization ID")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "No file uploaded")
	}

	url, err := h.documents.UploadLogo(c.Context(), caller, partnerID, file)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, fiber.Map{"logo_url": url})
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
