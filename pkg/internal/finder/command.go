// Package finder 实现文件管理连接器：命令表与分发、ACL、资源类型、上传流程.
package finder

import (
	"context"
	"fmt"
	"maps"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/language"

	"github.com/yeisme/filedock/pkg/configs"
	nlog "github.com/yeisme/filedock/pkg/log"
	"github.com/yeisme/filedock/pkg/tracing"
)

// 命令名.
const (
	CommandInit        = "Init"
	CommandGetFiles    = "GetFiles"
	CommandFileUpload  = "FileUpload"
	CommandQuickUpload = "QuickUpload"
)

const (
	contentTypeJSON  = "application/json; charset=utf-8"
	contentTypePlain = "text/plain; charset=utf-8"
)

// ImageInfoCache 图片信息缓存.
type ImageInfoCache interface {
	Set(ctx context.Context, p string, info ImageInfo) error
	GetOrLoad(ctx context.Context, p string, load func() (ImageInfo, error)) (ImageInfo, error)
}

// ThumbnailDeleter 删除文件缩略图.
type ThumbnailDeleter interface {
	DeleteThumbnails(ctx context.Context, resourceType, folder, fileName string) error
}

// Deps 命令处理函数依赖的服务.
type Deps struct {
	Config        *configs.FinderConfig
	ResourceTypes *ResourceTypes
	ACL           *ACL
	Cache         ImageInfoCache
	Thumbnails    ThumbnailDeleter
	Translator    *Translator
	Names         *NameGenerator
	Now           func() time.Time
	UploadMaxSize int64
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}

	return time.Now()
}

// Request 一次连接器请求.
type Request struct {
	Command       string
	Method        string
	ResourceType  string
	CurrentFolder string
	Role          string
	Lang          language.Tag
	AsPlainText   bool
	Upload        *Upload
	UploadErr     error

	// 由 Connector 填充.
	Folder *WorkingFolder
	Events *Dispatcher
}

// Response 命令响应，Body 编码为 JSON.
type Response struct {
	Status int
	Header http.Header
	Body   map[string]any
}

// Handler 命令处理函数，返回的字段合并进响应.
type Handler func(ctx context.Context, req *Request, deps *Deps) (map[string]any, error)

// Command 命令描述：HTTP 方法、所需权限和处理函数.
type Command struct {
	Name     string
	Method   string
	Requires Permission
	// Global 为 true 时不解析资源类型和目录.
	Global  bool
	Handler Handler
}

// Table 命令表.
type Table struct {
	commands map[string]Command
}

// NewTable 创建命令表.
func NewTable(cmds ...Command) *Table {
	t := &Table{commands: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		t.Register(c)
	}

	return t
}

// Register 注册命令，同名覆盖.
func (t *Table) Register(c Command) {
	t.commands[c.Name] = c
}

// Lookup 按名称查找命令.
func (t *Table) Lookup(name string) (Command, bool) {
	c, ok := t.commands[name]
	return c, ok
}

// Names 返回已注册的命令名（已排序）.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.commands))
	for n := range t.commands {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// DefaultCommands 连接器内置命令.
func DefaultCommands() []Command {
	return []Command{
		{Name: CommandInit, Method: http.MethodGet, Global: true, Handler: handleInit},
		{Name: CommandGetFiles, Method: http.MethodGet, Requires: PermFileView, Handler: handleGetFiles},
		{Name: CommandFileUpload, Method: http.MethodPost, Requires: PermFileCreate, Handler: handleFileUpload},
		{Name: CommandQuickUpload, Method: http.MethodPost, Requires: PermFileCreate, Handler: handleQuickUpload},
	}
}

// Connector 校验请求并分发给命令处理函数.
type Connector struct {
	table *Table
	deps  atomic.Pointer[Deps]
	hooks []HookSet
}

// NewConnector 创建 Connector，hooks 安装到每个请求的 Dispatcher 上.
func NewConnector(deps *Deps, table *Table, hooks ...HookSet) *Connector {
	c := &Connector{table: table, hooks: hooks}
	c.deps.Store(deps)

	return c
}

// Deps 返回当前生效的依赖.
func (c *Connector) Deps() *Deps {
	return c.deps.Load()
}

// SetDeps 替换依赖，已在执行的请求继续使用旧依赖.
func (c *Connector) SetDeps(deps *Deps) {
	c.deps.Store(deps)
}

// Commands 返回已注册的命令名.
func (c *Connector) Commands() []string {
	return c.table.Names()
}

// Execute 执行一次请求，错误也以 Response 的形式返回.
func (c *Connector) Execute(ctx context.Context, req *Request) *Response {
	ctx, span := tracing.StartSpan(ctx, "finder."+req.Command)
	defer span.End()

	span.SetAttributes(
		attribute.String("finder.command", req.Command),
		attribute.String("finder.resource_type", req.ResourceType),
		attribute.String("finder.role", req.Role),
	)

	deps := c.deps.Load()

	resp, err := c.execute(ctx, req, deps)
	if err != nil {
		tracing.RecordError(span, err)
		return errorResponse(ctx, req, deps, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.Status))

	return resp
}

func (c *Connector) execute(ctx context.Context, req *Request, deps *Deps) (*Response, error) {
	cmd, ok := c.table.Lookup(req.Command)
	if !ok {
		return nil, InvalidCommand(req.Command)
	}

	if !strings.EqualFold(req.Method, cmd.Method) {
		return nil, InvalidRequest(fmt.Sprintf("command %s requires %s, got %s", cmd.Name, cmd.Method, req.Method))
	}

	req.Events = NewDispatcher(c.hooks...)
	body := map[string]any{}

	if !cmd.Global {
		folder, err := resolveFolder(req, deps)
		if err != nil {
			return nil, err
		}

		if !folder.ACL.Has(cmd.Requires) {
			return nil, Unauthorized(fmt.Sprintf("role %q lacks permission %d on %s:%s",
				req.Role, cmd.Requires, folder.ResourceType.Name, folder.ClientPath))
		}

		req.Folder = folder
		body["resourceType"] = folder.ResourceType.Name
		body["currentFolder"] = map[string]any{
			"path": folder.ClientPath,
			"url":  folder.URL(),
			"acl":  folder.ACL,
		}
	}

	data, err := cmd.Handler(ctx, req, deps)
	if err != nil {
		return nil, err
	}

	maps.Copy(body, data)

	resp := &Response{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{contentTypeJSON}},
		Body:   body,
	}

	req.Events.Dispatch(ctx, AfterCommand(cmd.Name), &AfterCommandEvent{Command: cmd.Name, Response: resp})

	return resp, nil
}

func resolveFolder(req *Request, deps *Deps) (*WorkingFolder, error) {
	rt, ok := deps.ResourceTypes.Get(req.ResourceType)
	if !ok {
		return nil, InvalidType(req.ResourceType)
	}

	folderPath, err := NormalizeFolder(req.CurrentFolder)
	if err != nil {
		return nil, InvalidRequest(err.Error())
	}

	return &WorkingFolder{
		ResourceType: rt,
		ClientPath:   folderPath,
		ACL:          deps.ACL.Mask(req.Role, rt.Name, folderPath),
	}, nil
}

func errorResponse(ctx context.Context, req *Request, deps *Deps, err error) *Response {
	fe := AsError(err)
	status := fe.HTTPStatus()

	lvl := zerolog.WarnLevel
	if status >= http.StatusInternalServerError {
		lvl = zerolog.ErrorLevel
	}

	nlog.Ctx(ctx).WithLevel(lvl).Err(err).
		Str("command", req.Command).
		Str("resource_type", req.ResourceType).
		Int("number", int(fe.Number)).
		Msg("connector request failed")

	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{contentTypeJSON}},
		Body: map[string]any{
			"error": map[string]any{
				"number":  fe.Number,
				"message": deps.Translator.Translate(req.Lang, fe.Number, ""),
			},
		},
	}
}

func handleInit(_ context.Context, req *Request, deps *Deps) (map[string]any, error) {
	types := make([]map[string]any, 0, len(deps.ResourceTypes.All()))

	for _, rt := range deps.ResourceTypes.All() {
		mask := deps.ACL.Mask(req.Role, rt.Name, "/")
		if !mask.Has(PermFolderView) {
			continue
		}

		root := &WorkingFolder{ResourceType: rt, ClientPath: "/", ACL: mask}
		types = append(types, map[string]any{
			"name":              rt.Name,
			"url":               root.URL(),
			"allowedExtensions": strings.Join(rt.AllowedExtensions, ","),
			"deniedExtensions":  strings.Join(rt.DeniedExtensions, ","),
			"maxSize":           rt.MaxSize,
			"acl":               mask,
			"hash":              strconv.FormatUint(xxhash.Sum64String(rt.Backend.Name()+":"+rt.Directory), 16),
		})
	}

	images := deps.Config.Images

	return map[string]any{
		"enabled":           true,
		"uploadMaxSize":     deps.UploadMaxSize,
		"uploadCheckImages": !deps.Config.CheckSizeAfterScaling,
		"images": map[string]any{
			"max":     fmt.Sprintf("%dx%d", images.MaxWidth, images.MaxHeight),
			"quality": images.Quality,
		},
		"resourceTypes": types,
	}, nil
}

func handleGetFiles(ctx context.Context, req *Request, deps *Deps) (map[string]any, error) {
	folder := req.Folder

	entries, err := folder.List(ctx)
	if err != nil {
		return nil, Unknown("list "+folder.ClientPath, err)
	}

	files := make([]map[string]any, 0, len(entries))

	for _, e := range entries {
		if e.IsDir || isHiddenName(deps.Config.HideFiles, e.Name) {
			continue
		}

		ext := ""
		if i := strings.LastIndexByte(e.Name, '.'); i >= 0 {
			ext = e.Name[i+1:]
		}

		if !folder.ResourceType.IsAllowedExtension(ext) {
			continue
		}

		item := map[string]any{
			"name": e.Name,
			"date": e.ModTime.Format("200601021504"),
			"size": int64(math.Ceil(float64(e.Size) / 1024)),
		}

		if IsSupportedImageExtension(ext) && deps.Cache != nil {
			key := CombinePath(folder.ResourceType.Name, folder.ClientPath, e.Name)

			info, err := deps.Cache.GetOrLoad(ctx, key, func() (ImageInfo, error) {
				return loadImageInfo(ctx, folder, e.Name)
			})
			if err == nil {
				item["width"] = info.Width
				item["height"] = info.Height
			} else {
				nlog.Ctx(ctx).Debug().Err(err).Str("file", e.Name).Msg("image info unavailable")
			}
		}

		files = append(files, item)
	}

	return map[string]any{"files": files}, nil
}
