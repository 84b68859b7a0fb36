package finder

import (
	"strings"

	"golang.org/x/text/language"
)

var catalogs = map[string]map[ErrorNumber]string{
	"en": {
		ErrInvalidCommand:             "Invalid command.",
		ErrInvalidType:                "Invalid resource type.",
		ErrInvalidName:                "Invalid file or folder name.",
		ErrUnauthorized:               "It was not possible to complete the request due to authorization restrictions.",
		ErrAccessDenied:               "It was not possible to complete the request due to file system permission restrictions.",
		ErrInvalidExtension:           "Invalid file extension.",
		ErrInvalidRequest:             "Invalid request.",
		ErrUnknown:                    "Unknown error.",
		ErrUploadedFileRenamed:        `A file with the same name already exists. The uploaded file was renamed to "%name".`,
		ErrUploadedInvalid:            "Invalid file.",
		ErrUploadedTooBig:             "The file size is too big.",
		ErrUploadedCorrupt:            "The uploaded file is corrupt.",
		ErrUploadedWrongHTMLFile:      "Upload cancelled due to security reasons. The file contains HTML-like data.",
		ErrUploadedInvalidNameRenamed: `The uploaded file was renamed to "%name".`,
	},
	"zh": {
		ErrInvalidCommand:             "无效的命令。",
		ErrInvalidType:                "无效的资源类型。",
		ErrInvalidName:                "无效的文件或文件夹名称。",
		ErrUnauthorized:               "由于授权限制，无法完成请求。",
		ErrAccessDenied:               "由于文件系统权限限制，无法完成请求。",
		ErrInvalidExtension:           "无效的文件扩展名。",
		ErrInvalidRequest:             "无效的请求。",
		ErrUnknown:                    "未知错误。",
		ErrUploadedFileRenamed:        "已存在同名文件，上传的文件已重命名为 \"%name\"。",
		ErrUploadedInvalid:            "无效的文件。",
		ErrUploadedTooBig:             "文件太大。",
		ErrUploadedCorrupt:            "上传的文件已损坏。",
		ErrUploadedWrongHTMLFile:      "出于安全原因已取消上传，文件包含 HTML 内容。",
		ErrUploadedInvalidNameRenamed: "上传的文件名无效，已重命名为 \"%name\"。",
	},
}

// Translator 按语言翻译错误码.
type Translator struct {
	tags    []language.Tag
	matcher language.Matcher
}

// NewTranslator 创建 Translator，defaultLang 在无法匹配时使用.
func NewTranslator(defaultLang string) *Translator {
	def := language.English
	if tag, err := language.Parse(defaultLang); err == nil {
		if base, _ := tag.Base(); catalogs[base.String()] != nil {
			def = language.Make(base.String())
		}
	}

	tags := []language.Tag{def}

	for _, code := range []string{"en", "zh"} {
		if t := language.Make(code); t != def {
			tags = append(tags, t)
		}
	}

	return &Translator{tags: tags, matcher: language.NewMatcher(tags)}
}

// Match 依次尝试 prefs（langCode 参数或 Accept-Language 头），返回第一个可匹配的语言.
func (t *Translator) Match(prefs ...string) language.Tag {
	for _, p := range prefs {
		if strings.TrimSpace(p) == "" {
			continue
		}

		desired, _, err := language.ParseAcceptLanguage(p)
		if err != nil || len(desired) == 0 {
			continue
		}

		_, idx, conf := t.matcher.Match(desired...)
		if conf != language.No {
			return t.tags[idx]
		}
	}

	return t.tags[0]
}

// Translate 返回错误码在 tag 语言下的文本，"%name" 替换为 name.
func (t *Translator) Translate(tag language.Tag, n ErrorNumber, name string) string {
	base, _ := tag.Base()

	catalog, ok := catalogs[base.String()]
	if !ok {
		catalog = catalogs["en"]
	}

	msg, ok := catalog[n]
	if !ok {
		msg = catalog[ErrUnknown]
	}

	return strings.ReplaceAll(msg, "%name", name)
}
