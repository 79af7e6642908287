package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/mockmate/internal/services"
	"github.com/yoockh/mockmate/internal/utils"
)

type ResumeHandler struct {
	svc services.ResumeService
}

func NewResumeHandler(svc services.ResumeService) *ResumeHandler {
	return &ResumeHandler{svc: svc}
}

// readFormFile reads an optional multipart file, refusing anything larger
// than services.MaxResumeBytes.
func readFormFile(c *gin.Context, field string) (*multipart.FileHeader, []byte, error) {
	const op = "ResumeHandler.Upload"

	fh, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "invalid multipart field '"+field+"'", err)
	}
	if fh.Size > services.MaxResumeBytes {
		return nil, nil, utils.E(utils.CodeTooLarge, op, "file exceeds 5MB", nil)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxResumeBytes+1))
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to read upload", err)
	}
	return fh, data, nil
}

func (h *ResumeHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fh, data, err := readFormFile(c, "resume")
	if err != nil {
		writeError(c, err)
		return
	}
	if fh == nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ResumeHandler.Upload", "No file uploaded", nil))
		return
	}
	jfh, jdData, err := readFormFile(c, "jdFile")
	if err != nil {
		writeError(c, err)
		return
	}

	in := services.ResumeUpload{
		UserID:   userID,
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
		JDText:   c.PostForm("jd"),
	}
	if jfh != nil {
		in.JDFileName = jfh.Filename
		in.JDMimeType = jfh.Header.Get("Content-Type")
		in.JDData = jdData
	}

	r, err := h.svc.Upload(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"resumeId": r.ID.Hex(),
		"status":   r.Status,
	})
}

func (h *ResumeHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.svc.List(c.Request.Context(), userID, int64(queryLimit(c, 20, 100)))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resumes": rows})
}

func (h *ResumeHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	r, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"resume": r}
	if u, err := h.svc.FileURL(c.Request.Context(), r); err == nil {
		resp["fileUrl"] = u
	}
	if files, err := h.svc.Files(c.Request.Context(), r); err == nil {
		resp["files"] = files
	}
	c.JSON(http.StatusOK, resp)
}

type CoverLetterRequest struct {
	JD string `json:"jd"`
}

func (h *ResumeHandler) CoverLetter(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CoverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ResumeHandler.CoverLetter", "invalid request body", err))
		return
	}

	letter, err := h.svc.CoverLetter(c.Request.Context(), userID, c.Param("id"), req.JD)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "coverLetter": letter})
}
