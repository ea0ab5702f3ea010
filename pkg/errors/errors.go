package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError 字段级校验错误
// Fields 以 "字段路径 → 错误信息列表" 组织，路径形如 "slots[2].start_time" 或 "3"（星期键）
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError 创建空的校验错误收集器
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add 追加一条字段错误
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Fields[field] = append(e.Fields[field], fmt.Sprintf(format, args...))
}

// HasErrors 是否收集到任何错误
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error 实现 error 接口，按字段名排序输出保证可重现
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("校验失败: ")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Fields[k], ", "))
	}
	return sb.String()
}
