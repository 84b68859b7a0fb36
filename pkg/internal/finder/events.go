package finder

import (
	"context"
	"time"
)

// 事件名.
const (
	// EventFileUpload 文件写入存储前触发，钩子返回 false 时跳过写入.
	EventFileUpload = "file.upload"
	// EventFileUploaded 文件写入存储后触发.
	EventFileUploaded = "file.uploaded"
	// EventFileRejected 上传被拒绝时触发.
	EventFileRejected = "file.rejected"

	afterCommandPrefix = "afterCommand."
)

// AfterCommand 返回命令执行成功后触发的事件名，例如 "afterCommand.FileUpload".
func AfterCommand(command string) string {
	return afterCommandPrefix + command
}

// Event 分发给钩子的事件.
type Event interface {
	EventName() string
}

// FileUploadEvent 文件即将写入存储.
type FileUploadEvent struct {
	File     *UploadedFile
	Folder   *WorkingFolder
	FileName string // 存储文件名
}

func (*FileUploadEvent) EventName() string { return EventFileUpload }

// FileUploadedEvent 文件已写入存储.
type FileUploadedEvent struct {
	Command      string
	Role         string
	Folder       *WorkingFolder
	FileName     string
	OriginalName string
	MimeType     string
	Size         int64
	Warning      ErrorNumber
	OccurredAt   time.Time
}

func (*FileUploadedEvent) EventName() string { return EventFileUploaded }

// FileRejectedEvent 上传被拒绝.
type FileRejectedEvent struct {
	Command      string
	Role         string
	Folder       *WorkingFolder
	OriginalName string
	Number       ErrorNumber
	Reason       string
	OccurredAt   time.Time
}

func (*FileRejectedEvent) EventName() string { return EventFileRejected }

// AfterCommandEvent 命令执行成功，钩子可以修改响应.
type AfterCommandEvent struct {
	Command  string
	Response *Response
}

func (e *AfterCommandEvent) EventName() string { return AfterCommand(e.Command) }

// Hook 事件钩子，返回 false 停止后续钩子.
type Hook func(ctx context.Context, ev Event) bool

// HookSet 向每个请求的 Dispatcher 安装应用级钩子.
type HookSet func(d *Dispatcher)

type hookEntry struct {
	fn   Hook
	once bool
}

// Dispatcher 请求级的同步事件分发器，不可并发使用.
type Dispatcher struct {
	hooks map[string][]*hookEntry
}

// NewDispatcher 创建 Dispatcher 并依次安装 sets.
func NewDispatcher(sets ...HookSet) *Dispatcher {
	d := &Dispatcher{hooks: make(map[string][]*hookEntry)}
	for _, s := range sets {
		s(d)
	}

	return d
}

// On 注册钩子.
func (d *Dispatcher) On(name string, h Hook) {
	d.hooks[name] = append(d.hooks[name], &hookEntry{fn: h})
}

// Once 注册只执行一次的钩子.
func (d *Dispatcher) Once(name string, h Hook) {
	d.hooks[name] = append(d.hooks[name], &hookEntry{fn: h, once: true})
}

// Dispatch 按注册顺序调用钩子，某个钩子返回 false 时停止并返回 false.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, ev Event) bool {
	entries := d.hooks[name]
	if len(entries) == 0 {
		return true
	}

	kept := entries[:0:0]
	cont := true

	for i, e := range entries {
		if !cont {
			kept = append(kept, entries[i:]...)
			break
		}

		cont = e.fn(ctx, ev)

		if !e.once {
			kept = append(kept, e)
		}
	}

	// 分发期间新注册的钩子.
	if cur := d.hooks[name]; len(cur) > len(entries) {
		kept = append(kept, cur[len(entries):]...)
	}

	d.hooks[name] = kept

	return cont
}
