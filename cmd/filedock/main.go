// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/filedock/pkg/cmd"
)

//	@title			FileDock API
//	@version		1.0
//	@description	FileDock 是一个文件管理连接器服务，提供按资源类型与 ACL 控制的文件上传和浏览。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
