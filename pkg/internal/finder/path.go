package finder

import (
	"fmt"
	"strings"
)

// NormalizeFolder 把客户端目录规范为以 "/" 开头和结尾的形式，空串视为根目录.
// 包含 ".."、反斜杠或控制字符的路径被拒绝.
func NormalizeFolder(folder string) (string, error) {
	if strings.ContainsRune(folder, '\\') {
		return "", fmt.Errorf("invalid folder %q", folder)
	}

	for _, r := range folder {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("invalid folder %q", folder)
		}
	}

	segs := make([]string, 0, 4)

	for _, s := range strings.Split(folder, "/") {
		switch s {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("invalid folder %q", folder)
		}

		segs = append(segs, s)
	}

	if len(segs) == 0 {
		return "/", nil
	}

	return "/" + strings.Join(segs, "/") + "/", nil
}

// CombinePath 用 "/" 连接路径片段，去掉片段首尾多余的 "/".
func CombinePath(parts ...string) string {
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			out = append(out, p)
		}
	}

	return strings.Join(out, "/")
}
