package finder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// 扩展名到解码格式名.
var imageFormats = map[string]string{
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"png":  "png",
	"gif":  "gif",
	"bmp":  "bmp",
	"webp": "webp",
}

// IsSupportedImageExtension 报告扩展名是否为支持的图片格式.
func IsSupportedImageExtension(ext string) bool {
	_, ok := imageFormats[strings.ToLower(ext)]
	return ok
}

// ImageInfo 缓存中保存的图片信息.
type ImageInfo struct {
	Width       int   `json:"width"`
	Height      int   `json:"height"`
	Size        int64 `json:"size"`
	Orientation int   `json:"orientation,omitempty"`
}

// Image 解码后的图片.
type Image struct {
	img         image.Image
	format      string
	data        []byte
	orientation int
	quality     int
	resized     bool
}

// ImageDimensions 只读取图片头部的宽高，不解码像素.
func ImageDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}

	return cfg.Width, cfg.Height, nil
}

// DecodeImage 解码图片，jpeg 额外读取 EXIF 方向.
func DecodeImage(data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	im := &Image{img: img, format: format, data: data}

	if format == "jpeg" {
		if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
			if tag, err := x.Get(exif.Orientation); err == nil {
				im.orientation, _ = tag.Int(0)
			}
		}
	}

	return im, nil
}

// Width 像素宽度.
func (i *Image) Width() int { return i.img.Bounds().Dx() }

// Height 像素高度.
func (i *Image) Height() int { return i.img.Bounds().Dy() }

// Format 解码格式名.
func (i *Image) Format() string { return i.format }

// CanResize 报告格式是否可以重新编码，webp 只能解码.
func (i *Image) CanResize() bool { return i.format != "webp" }

// Resize 等比缩小到 maxW x maxH 以内，0 表示该方向不限制，不会放大.
func (i *Image) Resize(maxW, maxH, quality int) {
	w, h := i.Width(), i.Height()
	tw, th := fitSize(w, h, maxW, maxH)

	if tw == w && th == h {
		return
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), i.img, i.img.Bounds(), draw.Over, nil)

	i.img = dst
	i.quality = quality
	i.resized = true
	i.data = nil
}

func fitSize(w, h, maxW, maxH int) (int, int) {
	scale := 1.0

	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}

	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}

	if scale == 1.0 {
		return w, h
	}

	tw := max(int(float64(w)*scale+0.5), 1)
	th := max(int(float64(h)*scale+0.5), 1)

	if maxW > 0 && tw > maxW {
		tw = maxW
	}

	if maxH > 0 && th > maxH {
		th = maxH
	}

	return tw, th
}

// Data 返回图片字节，缩放后按原格式重新编码.
func (i *Image) Data() ([]byte, error) {
	if i.data != nil {
		return i.data, nil
	}

	var buf bytes.Buffer

	var err error

	switch i.format {
	case "jpeg":
		err = jpeg.Encode(&buf, i.img, &jpeg.Options{Quality: i.quality})
	case "png":
		err = png.Encode(&buf, i.img)
	case "gif":
		err = gif.Encode(&buf, i.img, nil)
	case "bmp":
		err = bmp.Encode(&buf, i.img)
	default:
		err = fmt.Errorf("cannot encode %s images", i.format)
	}

	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	i.data = buf.Bytes()

	return i.data, nil
}

// Info 返回图片信息，Size 为当前编码后的字节数.
func (i *Image) Info() ImageInfo {
	info := ImageInfo{Width: i.Width(), Height: i.Height(), Orientation: i.orientation}
	if data, err := i.Data(); err == nil {
		info.Size = int64(len(data))
	}

	return info
}

// loadImageInfo 读取已存储图片的尺寸.
func loadImageInfo(ctx context.Context, folder *WorkingFolder, name string) (ImageInfo, error) {
	rc, err := folder.Open(ctx, name)
	if err != nil {
		return ImageInfo{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("read %s: %w", name, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode %s: %w", name, err)
	}

	return ImageInfo{Width: cfg.Width, Height: cfg.Height, Size: int64(len(data))}, nil
}
