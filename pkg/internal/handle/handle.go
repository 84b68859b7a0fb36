// Package handle 提供 HTTP 请求处理器的实现，连接器请求在这里被解析为 finder.Request.
package handle

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedock/pkg/internal/finder"
	"github.com/yeisme/filedock/pkg/log"
	"github.com/yeisme/filedock/pkg/middleware"
)

// UploadField multipart 中上传文件的字段名.
const UploadField = "upload"

// Connector 连接器入口，按 command 参数分发到注册的命令.
//
//	@Summary		文件管理连接器
//	@Description	command=FileUpload|QuickUpload 时以 multipart 字段 upload 上传文件
//	@Tags			连接器
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			command			query		string	true	"命令名，例如 Init、GetFiles、FileUpload"
//	@Param			type			query		string	false	"资源类型"
//	@Param			currentFolder	query		string	false	"当前目录，默认 /"
//	@Param			langCode		query		string	false	"错误信息语言"
//	@Param			asPlainText		query		string	false	"以 text/plain 返回 JSON"
//	@Param			upload			formData	file	false	"上传的文件"
//	@Success		200				{object}	map[string]any
//	@Failure		400				{object}	map[string]any
//	@Failure		403				{object}	map[string]any
//	@Failure		500				{object}	map[string]any
//	@Router			/api/v1/connector [get]
//	@Router			/api/v1/connector [post]
func Connector(c *gin.Context) {
	svc := middleware.GetConnector(c)
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"number": finder.ErrUnknown, "message": "connector not initialized"}})
		return
	}

	deps := svc.Deps()

	req := &finder.Request{
		Command:       param(c, "command"),
		Method:        c.Request.Method,
		ResourceType:  param(c, "type"),
		CurrentFolder: param(c, "currentFolder"),
		Role:          middleware.GetRole(c),
		Lang:          deps.Translator.Match(param(c, "langCode"), c.GetHeader("Accept-Language")),
		AsPlainText:   truthy(param(c, "asPlainText")),
	}

	if req.CurrentFolder == "" {
		req.CurrentFolder = "/"
	}

	if c.Request.Method == http.MethodPost {
		req.Upload, req.UploadErr = formUpload(c)
	}

	writeResponse(c, svc.Execute(c.Request.Context(), req))
}

// param 依次读取 query 与 POST 表单.
func param(c *gin.Context, key string) string {
	if v, ok := c.GetQuery(key); ok {
		return v
	}

	if c.Request.Method == http.MethodPost {
		return c.PostForm(key)
	}

	return ""
}

// truthy 空串、"0" 与 "false" 为假.
func truthy(v string) bool {
	v = strings.TrimSpace(v)

	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}

// formUpload 读取 upload 字段，请求中没有文件时返回 nil, nil.
func formUpload(c *gin.Context) (*finder.Upload, error) {
	fh, err := c.FormFile(UploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}

		return nil, err
	}

	return &finder.Upload{
		Name:     fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}, nil
}

func writeResponse(c *gin.Context, resp *finder.Response) {
	body, err := sonic.Marshal(resp.Body)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("encode connector response")
		c.AbortWithStatus(http.StatusInternalServerError)

		return
	}

	for k, vs := range resp.Header {
		for _, v := range vs {
			c.Writer.Header().Add(k, v)
		}
	}

	c.Data(resp.Status, resp.Header.Get("Content-Type"), body)
}
