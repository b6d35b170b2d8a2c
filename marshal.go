package sysprop

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// toString 把原生字符串转换为 Go 字符串
//
// nil 对应空指针。返回的字符串是副本，不再引用存储的缓冲区。
func toString(b []byte) (string, error) {
	if b == nil {
		return "", ErrMissingValue
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidEncoding
	}
	return string(b), nil
}

// invoke 转换原生参数后调用 f，f 的错误与 panic 都被收进返回值
func invoke(name, value []byte, f func(name, value string) error) (err error) {
	n, err := toString(name)
	if err != nil {
		return err
	}
	v, err := toString(value)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = &CallbackError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if ferr := f(n, v); ferr != nil {
		return &CallbackError{Err: ferr}
	}
	return nil
}

// readRaw 驱动一次 Store.ReadCallback，并把结果转成带类型的错误
//
// 存储没有调用回调时返回 ErrReadCallbackNotCalled。
func readRaw(store Store, pi PropInfo, f func(name, value string) error) error {
	err := ErrReadCallbackNotCalled
	store.ReadCallback(pi, func(name, value []byte, _ uint32) {
		err = invoke(name, value, f)
	})
	return err
}

// isMarshalError 判断错误是否来自原生字符串转换，而不是调用方回调
func isMarshalError(err error) bool {
	return errors.Is(err, ErrMissingValue) || errors.Is(err, ErrInvalidEncoding)
}
