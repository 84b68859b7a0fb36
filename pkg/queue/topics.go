package queue

// 主题命名：fd.<域>.<动作>.
const (
	TopicFileUploaded = "fd.file.uploaded" // 文件已写入工作目录
	TopicFileRejected = "fd.file.rejected" // 上传被校验拒绝
)

// FileTopics 文件相关主题集合.
var FileTopics = []string{TopicFileUploaded, TopicFileRejected}
