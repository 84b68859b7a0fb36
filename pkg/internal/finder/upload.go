package finder

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	nlog "github.com/yeisme/filedock/pkg/log"
)

// UploadOutcome 上传结果，Warning 非 0 时表示部分成功.
type UploadOutcome struct {
	FileName string
	Uploaded int64
	Warning  ErrorNumber
	Message  string
	URL      string
}

// Fields 返回响应字段.
func (o *UploadOutcome) Fields() map[string]any {
	m := map[string]any{
		"fileName": o.FileName,
		"uploaded": o.Uploaded,
	}

	if o.Warning != ErrNone {
		m["error"] = map[string]any{
			"number":  o.Warning,
			"message": o.Message,
		}
	}

	if o.URL != "" {
		m["url"] = o.URL
	}

	return m
}

func forcePlainText(_ context.Context, ev Event) bool {
	if ae, ok := ev.(*AfterCommandEvent); ok {
		ae.Response.Header.Set("Content-Type", contentTypePlain)
	}

	return true
}

// FileUpload 校验上传文件、按需缩放图片并写入工作目录.
//
// 校验失败返回 *Error 且不产生任何写入；改名、写入失败等情况只在结果中附带警告.
// 存储文件名由 Deps.Names 生成，与客户端提交的文件名无关.
func FileUpload(ctx context.Context, req *Request, deps *Deps) (out *UploadOutcome, err error) {
	folder := req.Folder
	rt := folder.ResourceType
	cfg := deps.Config
	logger := nlog.Ctx(ctx).With().
		Str("command", req.Command).
		Str("resource_type", rt.Name).
		Str("folder", folder.ClientPath).
		Logger()

	if req.Events == nil {
		req.Events = NewDispatcher()
	}

	if req.AsPlainText {
		req.Events.Once(AfterCommand(CommandFileUpload), forcePlainText)
		req.Events.Once(AfterCommand(CommandQuickUpload), forcePlainText)
	}

	var file *UploadedFile

	defer func() {
		if err != nil {
			rejected(ctx, req, deps, file, err)
		}
	}()

	if req.UploadErr != nil {
		return nil, InvalidUpload(ErrNone, req.UploadErr.Error())
	}

	if req.Upload == nil {
		return nil, NoUploadPresent()
	}

	file = NewUploadedFile(req.Upload, folder, cfg)
	if !file.IsValid() {
		return nil, InvalidUpload(ErrNone, file.ErrorMessage())
	}

	warning := ErrNone

	file.SanitizeFilename()

	if file.WasRenamed() {
		warning = ErrUploadedInvalidNameRenamed
	}

	if !file.HasValidFilename() || file.IsHiddenFile() {
		return nil, InvalidName(file.Name())
	}

	if !file.HasAllowedExtension() {
		return nil, InvalidExtension(file.Name())
	}

	if !cfg.OverwriteOnUpload {
		renamed, rerr := file.Autorename(ctx)
		if rerr != nil {
			return nil, Unknown("autorename", rerr)
		}

		if renamed {
			warning = ErrUploadedFileRenamed
		}
	}

	fileName := deps.Names.Generate(file.Extension())
	for fileName == file.OriginalName() {
		fileName = deps.Names.Generate(file.Extension())
	}

	if !file.IsAllowedHTMLFile() && file.ContainsHTML() {
		return nil, InvalidUpload(ErrUploadedWrongHTMLFile, "html detected in disallowed file type")
	}

	if cfg.SecureImageUploads && file.IsImage() && !file.IsValidImage() {
		return nil, InvalidUpload(ErrUploadedCorrupt, "content is not a valid image")
	}

	if !cfg.CheckSizeAfterScaling && rt.MaxSize > 0 && file.Size() > rt.MaxSize {
		return nil, InvalidUpload(ErrUploadedTooBig, fmt.Sprintf("%d bytes exceeds limit %d", file.Size(), rt.MaxSize))
	}

	if file.IsImage() {
		if ierr := processImage(ctx, &logger, file, folder, fileName, deps); ierr != nil {
			return nil, ierr
		}
	}

	if rt.MaxSize > 0 && file.Size() > rt.MaxSize {
		return nil, InvalidUpload(ErrUploadedTooBig, fmt.Sprintf("%d bytes exceeds limit %d", file.Size(), rt.MaxSize))
	}

	out = &UploadOutcome{FileName: fileName}

	if req.Events.Dispatch(ctx, EventFileUpload, &FileUploadEvent{File: file, Folder: folder, FileName: fileName}) {
		out.Uploaded, warning = store(ctx, &logger, file, folder, fileName, deps, warning)

		if warning != ErrAccessDenied {
			req.Events.Dispatch(ctx, EventFileUploaded, &FileUploadedEvent{
				Command:      req.Command,
				Role:         req.Role,
				Folder:       folder,
				FileName:     fileName,
				OriginalName: file.OriginalName(),
				MimeType:     file.MimeType(),
				Size:         out.Uploaded,
				Warning:      warning,
				OccurredAt:   deps.now(),
			})
		}
	} else {
		logger.Info().Str("file", fileName).Msg("upload skipped by file.upload hook")
	}

	out.Warning = warning
	if warning != ErrNone {
		out.Message = deps.Translator.Translate(req.Lang, warning, fileName)
	}

	return out, nil
}

// processImage 超出尺寸限制的图片被缩放并替换上传内容，图片信息写入缓存.
// 宽高乘积超过 images.max_pixels 的图片在解码前被拒绝.
func processImage(ctx context.Context, logger *zerolog.Logger, file *UploadedFile, folder *WorkingFolder, fileName string, deps *Deps) error {
	limits := deps.Config.Images

	if limits.MaxPixels > 0 {
		w, h, err := ImageDimensions(file.Contents())
		if err != nil {
			return InvalidUpload(ErrUploadedCorrupt, err.Error())
		}

		if int64(w)*int64(h) > int64(limits.MaxPixels) {
			return InvalidUpload(ErrUploadedTooBig, fmt.Sprintf("%dx%d image exceeds %d pixels", w, h, limits.MaxPixels))
		}
	}

	img, err := DecodeImage(file.Contents())
	if err != nil {
		return InvalidUpload(ErrUploadedCorrupt, err.Error())
	}

	tooWide := limits.MaxWidth > 0 && img.Width() > limits.MaxWidth
	tooHigh := limits.MaxHeight > 0 && img.Height() > limits.MaxHeight

	if tooWide || tooHigh {
		if img.CanResize() {
			img.Resize(limits.MaxWidth, limits.MaxHeight, limits.Quality)

			data, err := img.Data()
			if err != nil {
				return Unknown("resize "+fileName, err)
			}

			file.Save(data)
		} else {
			logger.Debug().Str("format", img.Format()).Str("file", fileName).Msg("image format cannot be resized")
		}
	}

	if deps.Cache != nil {
		key := CombinePath(folder.ResourceType.Name, folder.ClientPath, fileName)
		if err := deps.Cache.Set(ctx, key, img.Info()); err != nil {
			logger.Warn().Err(err).Str("file", fileName).Msg("cache image info")
		}
	}

	return nil
}

// store 写入文件，写入失败时警告改为 ErrAccessDenied.
func store(ctx context.Context, logger *zerolog.Logger, file *UploadedFile, folder *WorkingFolder, fileName string,
	deps *Deps, warning ErrorNumber,
) (int64, ErrorNumber) {
	rc := file.ContentsReader()

	n, err := folder.PutStream(ctx, fileName, rc, file.Size(), file.MimeType())
	if cerr := rc.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		logger.Error().Err(err).Str("file", fileName).Msg("store upload")

		n = 0
	}

	if deps.Config.OverwriteOnUpload && deps.Thumbnails != nil {
		if terr := deps.Thumbnails.DeleteThumbnails(ctx, folder.ResourceType.Name, folder.ClientPath, fileName); terr != nil {
			logger.Warn().Err(terr).Str("file", fileName).Msg("delete thumbnails")
		}
	}

	// 空文件写入 0 字节属于成功.
	if err != nil || n == 0 && file.Size() > 0 {
		return n, ErrAccessDenied
	}

	return n, warning
}

// rejected 分发 file.rejected，日志由 Connector 统一记录.
func rejected(ctx context.Context, req *Request, deps *Deps, file *UploadedFile, err error) {
	fe := AsError(err)
	name := ""

	switch {
	case file != nil:
		name = file.OriginalName()
	case req.Upload != nil:
		name = req.Upload.Name
	}

	req.Events.Dispatch(ctx, EventFileRejected, &FileRejectedEvent{
		Command:      req.Command,
		Role:         req.Role,
		Folder:       req.Folder,
		OriginalName: name,
		Number:       fe.Number,
		Reason:       fe.Error(),
		OccurredAt:   deps.now(),
	})
}

func handleFileUpload(ctx context.Context, req *Request, deps *Deps) (map[string]any, error) {
	out, err := FileUpload(ctx, req, deps)
	if err != nil {
		return nil, err
	}

	return out.Fields(), nil
}

// handleQuickUpload 与 FileUpload 相同，成功时额外返回文件地址.
func handleQuickUpload(ctx context.Context, req *Request, deps *Deps) (map[string]any, error) {
	out, err := FileUpload(ctx, req, deps)
	if err != nil {
		return nil, err
	}

	if out.Uploaded > 0 {
		out.URL = req.Folder.FileURL(out.FileName)
	}

	return out.Fields(), nil
}
