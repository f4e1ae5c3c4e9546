package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prateekraiger/buildmeCV/internal/api/middleware"
	"github.com/prateekraiger/buildmeCV/internal/errcode"
	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/store"
	"github.com/prateekraiger/buildmeCV/internal/transfer"
)

// ResumeHandler 负责简历编辑、导入导出与重置。
type ResumeHandler struct {
	stores   *store.Registry
	importer *transfer.Importer
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(stores *store.Registry, importer *transfer.Importer) *ResumeHandler {
	return &ResumeHandler{stores: stores, importer: importer}
}

type resumeResponse struct {
	Resume     resume.ResumeData `json:"resume"`
	Version    uint64            `json:"version"`
	Completion int               `json:"completion"`
	Checklist  []resume.Check    `json:"checklist"`
}

type mutationResponse struct {
	ID         string `json:"id,omitempty"`
	Version    uint64 `json:"version"`
	Completion int    `json:"completion"`
}

type updateFieldRequest struct {
	Path  string `json:"path" binding:"required"`
	Value any    `json:"value"`
}

type moveSectionRequest struct {
	Direction store.Direction `json:"direction" binding:"required"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

func newResumeResponse(s *store.Store) resumeResponse {
	doc := s.Snapshot()
	return resumeResponse{
		Resume:     doc,
		Version:    s.Version(),
		Completion: resume.Completion(doc),
		Checklist:  resume.Checklist(doc),
	}
}

func mutated(c *gin.Context, status int, s *store.Store, id string) {
	c.JSON(status, mutationResponse{ID: id, Version: s.Version(), Completion: s.Completion()})
}

// storeError 将 Store 错误映射为 HTTP 响应。
func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrUnknownField),
		errors.Is(err, store.ErrInvalidValue),
		errors.Is(err, store.ErrUnknownSection),
		errors.Is(err, store.ErrInvalidDirection):
		BadRequest(c, err.Error())
	case errors.Is(err, store.ErrItemNotFound):
		NotFound(c, err.Error())
	default:
		middleware.LoggerFromContext(c).Error("resume mutation failed", slog.Any("error", err))
		Internal(c, "failed to update resume")
	}
}

// GetResume 返回快照、版本与完成度。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(s))
}

// PutResume 整体替换简历。
func (h *ResumeHandler) PutResume(c *gin.Context) {
	var doc resume.ResumeData
	if err := c.ShouldBindJSON(&doc); err != nil {
		BadRequest(c, err.Error())
		return
	}
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.SetResume(c.Request.Context(), doc); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(s))
}

// UpdateField 按点分路径更新单个字段。
func (h *ResumeHandler) UpdateField(c *gin.Context) {
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.UpdateField(c.Request.Context(), req.Path, req.Value); err != nil {
		storeError(c, err)
		return
	}
	mutated(c, http.StatusOK, s, "")
}

// itemBody 读取条目 JSON，空请求体视为空对象。
func itemBody(c *gin.Context) (json.RawMessage, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		BadRequest(c, "failed to read request body")
		return nil, false
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage(`{}`), true
	}
	if !json.Valid(raw) {
		BadRequest(c, "request body must be a JSON object")
		return nil, false
	}
	return raw, true
}

// AddListItem 向列表分区追加条目，返回生成的 ID。
func (h *ResumeHandler) AddListItem(c *gin.Context) {
	item, ok := itemBody(c)
	if !ok {
		return
	}
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	id, err := s.AddListItem(c.Request.Context(), resume.SectionKey(c.Param("section")), item)
	if err != nil {
		storeError(c, err)
		return
	}
	mutated(c, http.StatusCreated, s, id)
}

// UpdateListItem 合并更新一个条目。
func (h *ResumeHandler) UpdateListItem(c *gin.Context) {
	item, ok := itemBody(c)
	if !ok {
		return
	}
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := s.UpdateListItem(c.Request.Context(), resume.SectionKey(c.Param("section")), id, item); err != nil {
		storeError(c, err)
		return
	}
	mutated(c, http.StatusOK, s, id)
}

// RemoveListItem 删除一个条目。
func (h *ResumeHandler) RemoveListItem(c *gin.Context) {
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.RemoveListItem(c.Request.Context(), resume.SectionKey(c.Param("section")), c.Param("id")); err != nil {
		storeError(c, err)
		return
	}
	mutated(c, http.StatusOK, s, "")
}

// MoveSection 上移/下移分区，边界处为空操作。
func (h *ResumeHandler) MoveSection(c *gin.Context) {
	var req moveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	if err := s.MoveSection(c.Request.Context(), resume.SectionKey(c.Param("key")), req.Direction); err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"version":      s.Version(),
		"sectionOrder": s.Snapshot().SectionOrder,
	})
}

// GetCompletion 返回完成度与检查项。
func (h *ResumeHandler) GetCompletion(c *gin.Context) {
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	doc := s.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"completion": resume.Completion(doc),
		"checklist":  resume.Checklist(doc),
	})
}

// Reset 恢复默认简历，必须显式确认。
func (h *ResumeHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, err.Error())
		return
	}
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	if err := transfer.Reset(c.Request.Context(), s, req.Confirm); err != nil {
		if errors.Is(err, transfer.ErrNotConfirmed) {
			BadRequest(c, err.Error())
			return
		}
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(s))
}

// Export 以附件形式下载简历 JSON。
func (h *ResumeHandler) Export(c *gin.Context) {
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}
	filename, data, err := transfer.Export(s.Snapshot())
	if err != nil {
		middleware.LoggerFromContext(c).Error("export resume data failed", slog.Any("error", err))
		Internal(c, "failed to export resume data")
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, "application/json", data)
}

// Import 接受 multipart 的 file 字段或原始 JSON 请求体。失败时 Store 不变。
func (h *ResumeHandler) Import(c *gin.Context) {
	s, _, ok := openStore(c, h.stores)
	if !ok {
		return
	}

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			BadRequest(c, "file is required")
			return
		}
		f, err := header.Open()
		if err != nil {
			BadRequest(c, "failed to read uploaded file")
			return
		}
		defer f.Close()
		body = f
	}

	if _, err := h.importer.ImportInto(c.Request.Context(), s, body); err != nil {
		switch {
		case errors.Is(err, transfer.ErrInvalidFile), errors.Is(err, transfer.ErrInfected):
			middleware.LoggerFromContext(c).Warn("resume import rejected", slog.Any("error", err))
			Error(c, http.StatusBadRequest, errcode.ImportInvalid, err.Error())
		default:
			middleware.LoggerFromContext(c).Error("resume import failed", slog.Any("error", err))
			Internal(c, "failed to import resume data")
		}
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(s))
}
