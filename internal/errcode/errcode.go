package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（校验失败、导入文件无效、AI 润色失败等）
// - 5xxx：系统错误（需要中断流程）
const (
	OK                = 0
	ValidationFailed  = 4001
	ImportInvalid     = 4002
	EnhanceFailed     = 4003
	ResourceMissing   = 4004
	Busy              = 4009
	SystemError       = 5000
	CompositionFailed = 5001
)

// Retryable 报告该错误码对应的失败是否值得客户端重试。
func Retryable(code int) bool {
	switch code {
	case SystemError, CompositionFailed, Busy:
		return true
	}
	return false
}
