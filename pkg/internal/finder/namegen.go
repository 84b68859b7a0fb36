package finder

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const nameTimeLayout = "20060102150405"

// NameGenerator 生成存储文件名：14 位时间戳 + 6 位随机数字 + 扩展名.
type NameGenerator struct {
	Now  func() time.Time
	Rand *rand.Rand
}

// NewNameGenerator 使用系统时钟和全局随机源.
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{Now: time.Now}
}

// Generate 返回新的存储文件名，ext 为空时不带 ".".
func (g *NameGenerator) Generate(ext string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	var n int
	if g.Rand != nil {
		n = g.Rand.IntN(1_000_000)
	} else {
		n = rand.IntN(1_000_000)
	}

	name := fmt.Sprintf("%s%06d", now().Format(nameTimeLayout), n)
	if ext == "" {
		return name
	}

	return name + "." + ext
}
