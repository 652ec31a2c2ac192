package handler

import (
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"easypro/backend/internal/dto"
	"easypro/backend/pkg/response"
	"easypro/backend/pkg/storage"
)

const uploadField = "files"

// saveUploads 保存 multipart 请求中 files 字段的附件；JSON 请求直接返回空
// 失败时已写入 400/500 响应，调用方应在 ok=false 时直接 return
func saveUploads(c *gin.Context, st storage.Storage, prefix string, limits storage.Limits) ([]storage.StoredFile, bool) {
	if st == nil || !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, 10001, "解析上传表单失败")
		return nil, false
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		return nil, true
	}

	files, err := storage.SaveMultipart(c.Request.Context(), st, prefix, headers, limits)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooManyFiles),
			errors.Is(err, storage.ErrFileTooLarge),
			errors.Is(err, storage.ErrExtNotAllowed):
			response.BadRequest(c, 10006, err.Error())
		default:
			_ = c.Error(err)
			response.InternalError(c)
		}
		return nil, false
	}
	return files, true
}

// discardFiles 业务失败或记录删除后清理附件，失败只记入请求错误
func discardFiles(c *gin.Context, st storage.Storage, paths []string) {
	if st == nil {
		return
	}
	for _, p := range paths {
		if err := st.Delete(c.Request.Context(), p); err != nil {
			_ = c.Error(err)
		}
	}
}

func storedPaths(files []storage.StoredFile) []string {
	paths, _ := storage.Split(files)
	return paths
}

// serveAttachment 按下标下载附件
func serveAttachment(c *gin.Context, st storage.Storage, attachments []dto.AttachmentResponse) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 || idx >= len(attachments) {
		response.NotFound(c, 10007, "附件不存在")
		return
	}
	att := attachments[idx]

	rc, err := st.Open(c.Request.Context(), att.Path)
	if err != nil {
		_ = c.Error(err)
		response.NotFound(c, 10007, "附件不存在")
		return
	}
	defer rc.Close()

	name := att.Name
	if name == "" {
		name = filepath.Base(att.Path)
	}
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", rc, nil)
}
