// Package propname 汇总属性存储共享的命名与取值限制。
package propname

import "strings"

// ValueMax 是非只读属性值的最大字节数（PROP_VALUE_MAX 减去结尾的 NUL）
const ValueMax = 91

// Valid 判断名称能否作为属性名
func Valid(name string) bool {
	return name != "" && strings.IndexByte(name, 0) < 0
}

// ReadOnly 判断属性是否只能写入一次
func ReadOnly(name string) bool {
	return strings.HasPrefix(name, "ro.")
}

// ValidValue 判断 value 能否写入属性 name
func ValidValue(name, value string) bool {
	if strings.IndexByte(value, 0) >= 0 {
		return false
	}
	return ReadOnly(name) || len(value) <= ValueMax
}
