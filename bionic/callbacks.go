//go:build android && cgo

package bionic

/*
#include <stdint.h>
#include <string.h>
#include <sys/system_properties.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/shuakami/sysprop"
)

//export goReadCallback
func goReadCallback(handle C.uintptr_t, name, value *C.char, serial C.uint32_t) {
	fn := cgo.Handle(handle).Value().(sysprop.ReadFunc)
	fn(borrow(name), borrow(value), uint32(serial))
}

//export goForeachCallback
func goForeachCallback(pi *C.prop_info, handle C.uintptr_t) {
	fn := cgo.Handle(handle).Value().(func(sysprop.PropInfo))
	fn(pi)
}

// borrow 把 C 字符串视为字节切片而不复制，只在回调期间有效；空指针得到 nil
func borrow(p *C.char) []byte {
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(C.strlen(p)))
}
