package queue

// FileRef 标识连接器中的一个文件.
type FileRef struct {
	ResourceType string `json:"resource_type"`
	Folder       string `json:"folder"`
	FileName     string `json:"file_name"`
	Backend      string `json:"backend,omitempty"`
	URL          string `json:"url,omitempty"`
}

// FileUploadedPayload 文件已保存.
type FileUploadedPayload struct {
	File         FileRef `json:"file"`
	OriginalName string  `json:"original_name"`
	Size         int64   `json:"size"`
	ContentType  string  `json:"content_type,omitempty"`
	Role         string  `json:"role,omitempty"`
	Warning      int     `json:"warning,omitempty"` // 附带的警告码，0 表示无
}

// FileRejectedPayload 上传被拒绝.
type FileRejectedPayload struct {
	File         FileRef `json:"file"`
	OriginalName string  `json:"original_name"`
	ErrorNumber  int     `json:"error_number"`
	Role         string  `json:"role,omitempty"`
}
