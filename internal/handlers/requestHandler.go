package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/akolanti/alexandria/internal/adapter"
	"github.com/akolanti/alexandria/internal/adapter/utils"
	"github.com/akolanti/alexandria/internal/api"
	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/internal/rag/extract"
	"github.com/akolanti/alexandria/internal/session"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

type upload struct {
	meta     api.DocumentMetadata
	fileName string
	text     string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetStatusHandler godoc
// @Summary      Get ingestion job status
// @Description  Retrieves the current state of an ingestion job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	if idString == "" {
		WriteErrorResponse(w, http.StatusBadRequest, idString, "job id is required")
		return
	}
	result, isFound := GetJobStatus(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// UploadDocumentHandler godoc
// @Summary      Upload a document
// @Description  Receives a PDF, DOCX or TXT file with its metadata, stores the extracted text and queues an ingestion job.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData  file    true  "The PDF, DOCX or TXT file"
// @Param        document  formData  string  true  "api.DocumentMetadata as JSON"
// @Success      202  {object}  api.InitJobResponse "Accepted, poll status_url"
// @Failure      400  {object}  api.JobResponse "Missing fields, unsupported file or file too large"
// @Failure      401  {object}  api.JobResponse "No valid session"
// @Router       /upload_document [post]
func UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	up, err := readUpload(r)
	if err != nil {
		writeError(w, r, "", err)
		return
	}

	doc := adapter.ToDocument(utils.GetNewUUID(), session.Email(r.Context()), up.fileName, up.meta)
	storeAndQueue(w, r, doc, up.text)
}

// UpdateDocumentHandler godoc
// @Summary      Replace a document
// @Description  Owner only. The new file replaces the text and chunks of the document and a new ingestion job supersedes the old vectors.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        documentId  path      string  true  "Document ID"
// @Param        file        formData  file    true  "The replacement file"
// @Param        document    formData  string  true  "api.DocumentMetadata as JSON"
// @Success      202  {object}  api.InitJobResponse
// @Failure      403  {object}  api.JobResponse "Not the owner"
// @Failure      404  {object}  api.JobResponse "Document not found"
// @Router       /update_document/{documentId} [put]
func UpdateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "documentId")
	existing, ok := ownedDocument(w, r, id)
	if !ok {
		return
	}
	up, err := readUpload(r)
	if err != nil {
		writeError(w, r, id, err)
		return
	}

	doc := adapter.ToDocument(existing.Id, existing.Owner, up.fileName, up.meta)
	storeAndQueue(w, r, doc, up.text)
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document
// @Description  Owner only. Removes the document and every indexed chunk of it.
// @Tags         Documents
// @Produce      json
// @Param        documentId  path  string  true  "Document ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      403  {object}  api.JobResponse "Not the owner"
// @Failure      404  {object}  api.JobResponse "Document not found"
// @Router       /delete_document/{documentId} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "documentId")
	if _, ok := ownedDocument(w, r, id); !ok {
		return
	}
	// vectors first, the record stays until they are gone so a failed delete can be retried
	if err := handlerInstance.ragService.RemoveDocument(r.Context(), id); err != nil {
		logger_i.FromContext(r.Context(), "RequestHandler").Error("Removing vectors failed", "documentId", id, "error", err)
		writeError(w, r, id, err)
		return
	}
	if err := handlerInstance.documents.DeleteDocument(r.Context(), id); err != nil {
		writeError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Message: "Document deleted successfully"})
}

// ownedDocument loads id and writes the error response when the caller does not own it.
func ownedDocument(w http.ResponseWriter, r *http.Request, id string) (docModel.Document, bool) {
	email := session.Email(r.Context())
	doc, found, err := handlerInstance.documents.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, r, id, err)
		return doc, false
	}
	if !found || !doc.VisibleTo(email) {
		WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
		return doc, false
	}
	if doc.Owner != email {
		WriteErrorResponse(w, http.StatusForbidden, id, "Only the owner can change this document")
		return doc, false
	}
	return doc, true
}

func readUpload(r *http.Request) (upload, error) {
	var up upload
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		return up, ragError.New(ragError.ValidationFailure, "handlers.readUpload", "File too large or bad request")
	}
	if err := json.Unmarshal([]byte(r.FormValue("document")), &up.meta); err != nil {
		return up, ragError.New(ragError.ValidationFailure, "handlers.readUpload", "document must be a JSON object")
	}
	if err := api.Validate(up.meta); err != nil {
		return up, err
	}

	fileReader, fileMetadata, err := r.FormFile("file")
	if err != nil {
		return up, ragError.New(ragError.ValidationFailure, "handlers.readUpload", "Could not retrieve file")
	}
	defer fileReader.Close()

	docType := extract.GetDocType(fileMetadata.Filename)
	if docType == docModel.ERR {
		return up, ragError.New(ragError.ValidationFailure, "handlers.readUpload", "only PDF, DOCX, RTF and TXT files are supported")
	}

	path, err := saveUpload(fileReader, fileMetadata)
	if err != nil {
		return up, err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			logRH.Warn("Could not remove upload", "path", path, "error", err)
		}
	}()

	done := metrics.MeasureDependency(metrics.DepExtraction)
	up.text, err = extract.Text(path, docType)
	done()
	if err != nil {
		return up, err
	}
	up.fileName = fileMetadata.Filename
	return up, nil
}

// storeAndQueue saves doc as a new generation and queues its ingestion.
func storeAndQueue(w http.ResponseWriter, r *http.Request, doc docModel.Document, text string) {
	ctx := r.Context()
	doc.RawText = text
	doc.Generation = utils.GetNewUUID()
	doc.Chunks = handlerInstance.ragService.PrepareChunks(doc.Id, text)
	doc.ChunkCount = len(doc.Chunks)
	doc.LastUpdated = time.Now()

	if err := handlerInstance.documents.SaveDocument(ctx, doc); err != nil {
		writeError(w, r, doc.Id, err)
		return
	}
	newJob, err := CreateNewJob(ctx, doc)
	if err != nil {
		writeError(w, r, doc.Id, err)
		return
	}
	logger_i.FromContext(ctx, "RequestHandler").Info("Document stored", "documentId", doc.Id, "chunks", doc.ChunkCount, "jobId", newJob.Id)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob))
}
