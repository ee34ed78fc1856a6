// Package api
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

const (
	maxProofFileSize = 10 << 20
	maxProofFiles    = 10
)

var errFileTooLarge = errors.New("file too large")

type proofUploadResponse struct {
	ContentID string            `json:"cid"`
	URL       string            `json:"url"`
	Files     []types.ProofFile `json:"files"`
}

// UploadProof stores the submitted files, then a metadata document listing them.
// The metadata content id is the proof hash passed to submitProof.
func (s *Server) UploadProof(c echo.Context) error {
	lgr := s.lgr("UploadProof")
	if s.blobStore == nil {
		return Unavailable.Build(c)
	}
	form, err := c.MultipartForm()
	if err != nil {
		lgr.Debug("Cannot parse multipart form", zap.Error(err))
		return Invalid.Build(c)
	}
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return Invalid.Build(c)
	}
	var bountyID uint64
	if v := c.FormValue("bountyId"); v != "" {
		if bountyID, err = strconv.ParseUint(v, 10, 64); err != nil {
			return Invalid.Build(c)
		}
	}
	headers := form.File["files"]
	if len(headers) > maxProofFiles {
		return Invalid.Build(c)
	}

	ctx := c.Request().Context()
	files := make([]types.ProofFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFormFile(fh)
		if errors.Is(err, errFileTooLarge) {
			return EchoResponse{StatusCode: http.StatusRequestEntityTooLarge, Code: Invalid.Code, Msg: fmt.Sprintf("%s is larger than %d bytes", fh.Filename, maxProofFileSize)}.Build(c)
		}
		if err != nil {
			lgr.Warn("Cannot read uploaded file", zap.String("name", fh.Filename), zap.Error(err))
			return Invalid.Build(c)
		}
		upload, err := s.blobStore.UploadFile(ctx, fh.Filename, data)
		if err != nil {
			lgr.Error("Cannot upload proof file", zap.String("name", fh.Filename), zap.Error(err))
			return ErrorResponse(err).Build(c)
		}
		files = append(files, types.ProofFile{Name: fh.Filename, ContentID: upload.ContentID, URL: upload.URL})
	}

	metadata := types.ProofMetadata{
		Title:       title,
		Description: c.FormValue("description"),
		Submitter:   c.FormValue("submitter"),
		Timestamp:   time.Now().Unix(),
		Files:       files,
		Links:       splitLinks(form.Value["links"]),
	}
	upload, err := s.blobStore.UploadJSON(ctx, title, metadata)
	if err != nil {
		lgr.Error("Cannot upload proof metadata", zap.Error(err))
		return ErrorResponse(err).Build(c)
	}

	if s.dbClient != nil {
		record := &types.ProofRecord{
			ContentID:   upload.ContentID,
			URL:         upload.URL,
			BountyID:    bountyID,
			Submitter:   metadata.Submitter,
			Title:       title,
			Description: metadata.Description,
			Files:       files,
			Links:       metadata.Links,
			CreatedAt:   metadata.Timestamp,
		}
		if err := s.dbClient.InsertProof(ctx, record); err != nil && !errors.Is(err, types.ErrRecordExist) {
			lgr.Warn("Cannot store proof record", zap.String("cid", upload.ContentID), zap.Error(err))
		}
	}
	return OK.SetData(proofUploadResponse{ContentID: upload.ContentID, URL: upload.URL, Files: files}).Build(c)
}

func (s *Server) Proof(c echo.Context) error {
	lgr := s.lgr("Proof")
	cid := c.Param("cid")
	ctx := c.Request().Context()
	if s.dbClient != nil {
		record, err := s.dbClient.Proof(ctx, cid)
		if err == nil {
			return OK.SetData(record).Build(c)
		}
		if !errors.Is(err, types.ErrNotFound) {
			lgr.Warn("Cannot get proof record", zap.String("cid", cid), zap.Error(err))
		}
	}
	if s.blobStore == nil {
		return NotFound.Build(c)
	}
	data, err := s.blobStore.Fetch(ctx, cid)
	if err != nil {
		return ErrorResponse(err).Build(c)
	}
	var metadata types.ProofMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return Invalid.Build(c)
	}
	return OK.SetData(&types.ProofRecord{
		ContentID:   cid,
		URL:         s.blobStore.URL(cid),
		Submitter:   metadata.Submitter,
		Title:       metadata.Title,
		Description: metadata.Description,
		Files:       metadata.Files,
		Links:       metadata.Links,
		CreatedAt:   metadata.Timestamp,
	}).Build(c)
}

func (s *Server) ProofsByBounty(c echo.Context) error {
	if s.dbClient == nil {
		return Unavailable.Build(c)
	}
	id, ok := bountyID(c)
	if !ok {
		return Invalid.Build(c)
	}
	pagination, page, limit := getPagingOption(c)
	proofs, total, err := s.dbClient.ProofsByBounty(c.Request().Context(), id, pagination)
	if err != nil {
		s.lgr("ProofsByBounty").Error("Cannot get proofs", zap.Uint64("bountyId", id), zap.Error(err))
		return ErrorResponse(err).Build(c)
	}
	return OK.SetData(PagingResponse{
		Page:  page,
		Limit: limit,
		Total: total,
		Data:  proofs,
	}).Build(c)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxProofFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxProofFileSize {
		return nil, errFileTooLarge
	}
	return data, nil
}

func splitLinks(values []string) []string {
	links := []string{}
	for _, v := range values {
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				links = append(links, l)
			}
		}
	}
	return links
}
