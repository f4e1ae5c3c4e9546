package resume

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// FileStem 把姓名转换为稳定的文件名前缀：连续的非字母数字字符折叠为单个下划线。
func FileStem(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "Resume"
	}
	return b.String()
}

// PDFFilename is the download name of the composed document.
func PDFFilename(name string) string {
	return FileStem(name) + "_Resume.pdf"
}

// DataFilename is the download name of the exported JSON document.
func DataFilename(name string) string {
	return FileStem(name) + "_resume_data.json"
}

// NewID returns a collision-resistant item id: prefix, unix millis and a
// random discriminator.
func NewID(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}
