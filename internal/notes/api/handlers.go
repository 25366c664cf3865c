package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	logx "github.com/blueplan/notes-go/internal/notes/log"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

var errMalformedJSON = errors.New("request body is not a single JSON value")

// createNoteRequest 创建笔记请求；指针用于区分缺失字段与空字符串
type createNoteRequest struct {
	Text *string `json:"text" binding:"required"`
}

// handleListNotes 处理列出笔记
func (r *Router) handleListNotes(c *gin.Context) {
	c.JSON(http.StatusOK, r.store.List())
}

// handleCreateNote 处理创建笔记
func (r *Router) handleCreateNote(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			r.rejectInput(c, http.StatusRequestEntityTooLarge, "request_too_large", err)
			return
		}
		r.rejectInput(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	// json.Decoder 只读取第一个值，尾随内容需单独拒绝
	if !json.Valid(body) {
		r.rejectInput(c, http.StatusBadRequest, "invalid_request", errMalformedJSON)
		return
	}

	var req createNoteRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		r.rejectInput(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	note := r.store.Create(*req.Text)
	c.JSON(http.StatusOK, note)
}

// handleDeleteNote 处理删除笔记；不存在的ID返回 false 而非错误
func (r *Router) handleDeleteNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		r.rejectInput(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	c.JSON(http.StatusOK, r.store.Delete(id))
}

// rejectInput 客户端输入错误，记 Warn 而非系统故障
func (r *Router) rejectInput(c *gin.Context, status int, code string, err error) {
	r.logger.Warn(c.Request.Context(), "请求参数错误",
		logx.KV("path", c.Request.URL.Path),
		logx.KV("code", code),
		logx.KV("error", err))
	abortWithError(c, status, code, err.Error())
}
