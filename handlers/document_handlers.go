package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/models"
	"github.com/relrag-api/parsers"
	"github.com/relrag-api/services"
)

// maxUploadBytes caps a single uploaded file.
const maxUploadBytes = 32 << 20

type DocumentHandlers struct {
	documentService services.DocumentService
}

func NewDocumentHandlers(documentService services.DocumentService) *DocumentHandlers {
	return &DocumentHandlers{documentService: documentService}
}

// Ingest accepts either a JSON body or a multipart form. JSON ingests one
// document; multipart ingests one document per file, collecting per-file
// errors without aborting the batch.
func (h *DocumentHandlers) Ingest(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		h.ingestMultipart(c, subject)
		return
	}

	var req models.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	doc, err := h.documentService.LoadDocument(c.Request.Context(), subject, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandlers) ingestMultipart(c *gin.Context, subject string) {
	collectionID, files, ok := multipartIngestForm(c)
	if !ok {
		return
	}

	resp := models.BatchIngestResponse{
		Documents: []models.DocumentResponse{},
		Errors:    []models.BatchIngestError{},
	}
	for _, fh := range files {
		doc, err := h.ingestFile(c, subject, collectionID, fh)
		if err != nil {
			// A denied subject stays denied for every file; stop early.
			if apperr.IsKind(err, apperr.KindPermissionDenied) {
				respondError(c, err)
				return
			}
			resp.Errors = append(resp.Errors, models.BatchIngestError{
				Filename: fh.Filename,
				Error:    err.Error(),
			})
			continue
		}
		resp.Documents = append(resp.Documents, *doc)
	}
	c.JSON(http.StatusCreated, resp)
}

// IngestStream is the multipart ingest with SSE progress: one progress event
// per file, a terminal done event with the batch result, and a terminal error
// event if authorization fails.
func (h *DocumentHandlers) IngestStream(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	collectionID, files, ok := multipartIngestForm(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	resp := models.BatchIngestResponse{
		Documents: []models.DocumentResponse{},
		Errors:    []models.BatchIngestError{},
	}
	total := len(files)
	for i, fh := range files {
		c.SSEvent("progress", models.IngestProgressEvent{
			Total:    total,
			Current:  i + 1,
			Filename: fh.Filename,
			Status:   "processing",
		})
		c.Writer.Flush()

		doc, err := h.ingestFile(c, subject, collectionID, fh)
		status := "ok"
		if err != nil {
			if apperr.IsKind(err, apperr.KindPermissionDenied) {
				c.SSEvent("error", gin.H{"error": apperr.KindOf(err).String(), "message": err.Error()})
				c.Writer.Flush()
				return
			}
			status = "error"
			resp.Errors = append(resp.Errors, models.BatchIngestError{
				Filename: fh.Filename,
				Error:    err.Error(),
			})
		} else {
			resp.Documents = append(resp.Documents, *doc)
		}

		c.SSEvent("progress", models.IngestProgressEvent{
			Total:    total,
			Current:  i + 1,
			Filename: fh.Filename,
			Status:   status,
		})
		c.Writer.Flush()
	}

	c.SSEvent("done", resp)
	c.Writer.Flush()
}

func (h *DocumentHandlers) Get(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	docID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	collectionID, err := uuid.Parse(c.Query("collection_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "collection_id query parameter is required"})
		return
	}
	doc, err := h.documentService.GetDocument(c.Request.Context(), subject, docID, collectionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// ingestFile parses one uploaded file and runs it through the ingestion
// pipeline.
func (h *DocumentHandlers) ingestFile(c *gin.Context, subject string, collectionID uuid.UUID, fh *multipart.FileHeader) (*models.DocumentResponse, error) {
	if fh.Size > maxUploadBytes {
		return nil, apperr.Validationf("file %q exceeds the %d byte limit", fh.Filename, maxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Validationf("cannot read file %q", fh.Filename)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, apperr.Validationf("cannot read file %q", fh.Filename)
	}

	parsed, err := parsers.Parse(fh.Filename, data)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return h.documentService.LoadDocument(c.Request.Context(), subject, models.CreateDocumentRequest{
		CollectionID: collectionID,
		Content:      parsed.Text,
		Properties:   parsed.Properties,
	})
}

// multipartIngestForm reads the collection_id field and the files of a
// multipart ingest request, answering 400 itself on malformed input.
func multipartIngestForm(c *gin.Context) (uuid.UUID, []*multipart.FileHeader, bool) {
	collectionID, err := uuid.Parse(c.PostForm("collection_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "collection_id form field is required"})
		return uuid.Nil, nil, false
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "invalid multipart form"})
		return uuid.Nil, nil, false
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "at least one file is required"})
		return uuid.Nil, nil, false
	}
	return collectionID, files, true
}
