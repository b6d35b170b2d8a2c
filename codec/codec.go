// Package codec 解析与格式化列表形式的属性值。
//
// 列表以逗号分隔，反斜杠使其后一个字符按字面处理（包括逗号与反斜杠本身）。
// 格式化时不会为元素中的逗号加转义：元素格式化结果含逗号的列表无法原样解析回来，
// 需要往返一致的调用方必须保证元素格式化结果中没有逗号。
package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// Scalar 是 Parse 与 Format 支持的元素类型
type Scalar interface {
	string | bool |
		int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// ParseError 表示某个值无法转换为目标类型
type ParseError struct {
	Value string
	Type  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("can't convert '%s' to '%s'", e.Value, e.Type)
}

// Parse 把 s 解析为 T，失败时返回 *ParseError
func Parse[T Scalar](s string) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *string:
		*p = s
	case *bool:
		switch s {
		case "true":
			*p = true
		case "false":
		default:
			err = strconv.ErrSyntax
		}
	case *int:
		var v int64
		v, err = strconv.ParseInt(s, 10, 0)
		*p = int(v)
	case *int8:
		var v int64
		v, err = strconv.ParseInt(s, 10, 8)
		*p = int8(v)
	case *int16:
		var v int64
		v, err = strconv.ParseInt(s, 10, 16)
		*p = int16(v)
	case *int32:
		var v int64
		v, err = strconv.ParseInt(s, 10, 32)
		*p = int32(v)
	case *int64:
		*p, err = strconv.ParseInt(s, 10, 64)
	case *uint:
		var v uint64
		v, err = strconv.ParseUint(s, 10, 0)
		*p = uint(v)
	case *uint8:
		var v uint64
		v, err = strconv.ParseUint(s, 10, 8)
		*p = uint8(v)
	case *uint16:
		var v uint64
		v, err = strconv.ParseUint(s, 10, 16)
		*p = uint16(v)
	case *uint32:
		var v uint64
		v, err = strconv.ParseUint(s, 10, 32)
		*p = uint32(v)
	case *uint64:
		*p, err = strconv.ParseUint(s, 10, 64)
	case *float32:
		var v float64
		v, err = strconv.ParseFloat(s, 32)
		*p = float32(v)
	case *float64:
		*p, err = strconv.ParseFloat(s, 64)
	}
	if err != nil {
		var zero T
		return zero, &ParseError{Value: s, Type: fmt.Sprintf("%T", zero)}
	}
	return out, nil
}

// ParseBool 只接受 "1"/"true" 与 "0"/"false"
func ParseBool(s string) (bool, error) {
	switch s {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, &ParseError{Value: s, Type: "bool"}
}

// ParseListWith 用 parse 解析逗号分隔列表的每个元素
//
// 空字符串得到空列表；末尾的逗号不产生空元素，开头的逗号产生一个空元素。
func ParseListWith[T any](s string, parse func(string) (T, error)) ([]T, error) {
	result := []T{}
	if s == "" {
		return result, nil
	}

	runes := []rune(s)
	var token strings.Builder
	for i := 0; i < len(runes); {
		token.Reset()
		for ; i < len(runes) && runes[i] != ','; i++ {
			if runes[i] == '\\' {
				i++
				if i == len(runes) {
					break
				}
			}
			token.WriteRune(runes[i])
		}
		v, err := parse(token.String())
		if err != nil {
			return nil, err
		}
		result = append(result, v)
		// 跳过分隔符
		i++
	}
	return result, nil
}

// ParseList 把逗号分隔列表解析为 []T
func ParseList[T Scalar](s string) ([]T, error) {
	return ParseListWith(s, Parse[T])
}

// ParseBoolList 按 ParseBool 的规则解析布尔列表
func ParseBoolList(s string) ([]bool, error) {
	return ParseListWith(s, ParseBool)
}

// Format 把 v 转换为字符串
func Format[T Scalar](v T) string {
	return fmt.Sprint(v)
}

// FormatBool 返回 "true" 或 "false"
func FormatBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// FormatBoolAsInt 返回 "1" 或 "0"
func FormatBoolAsInt(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// FormatListWith 用 format 格式化每个元素并以逗号连接，不转义元素中的逗号
func FormatListWith[T any](v []T, format func(T) string) string {
	parts := make([]string, len(v))
	for i, item := range v {
		parts[i] = format(item)
	}
	return strings.Join(parts, ",")
}

// FormatList 以逗号连接格式化后的元素
func FormatList[T Scalar](v []T) string {
	return FormatListWith(v, Format[T])
}

// FormatBoolList 以 "true"/"false" 格式化布尔列表
func FormatBoolList(v []bool) string {
	return FormatListWith(v, FormatBool)
}

// FormatBoolListAsInt 以 "1"/"0" 格式化布尔列表
func FormatBoolListAsInt(v []bool) string {
	return FormatListWith(v, FormatBoolAsInt)
}
