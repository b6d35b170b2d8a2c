//go:build android && cgo

// Package bionic 把 bionic libc 的 __system_property_* 接口包装为 sysprop.Store。
//
// 引入本包即可把原生存储挂载为 sysprop 的默认 Client：
//
//	import _ "github.com/shuakami/sysprop/bionic"
package bionic

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include <sys/system_properties.h>

void sysprop_read(const prop_info* pi, uintptr_t handle);
int sysprop_foreach(uintptr_t handle);
bool sysprop_wait(const prop_info* pi, uint32_t old_serial, uint32_t* new_serial, int64_t timeout_ns);
*/
import "C"

import (
	"runtime/cgo"
	"time"
	"unsafe"

	"github.com/shuakami/sysprop"
)

func init() {
	sysprop.SetDefault(sysprop.New(Store{}))
}

// Store 是进程内唯一的原生属性存储
type Store struct{}

var _ sysprop.Store = Store{}

// Find 调用 __system_property_find
func (Store) Find(name string) sysprop.PropInfo {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	pi := C.__system_property_find(cname)
	if pi == nil {
		return nil
	}
	return pi
}

// ReadCallback 调用 __system_property_read_callback
func (Store) ReadCallback(pi sysprop.PropInfo, fn sysprop.ReadFunc) {
	p, ok := pi.(*C.prop_info)
	if !ok || p == nil {
		return
	}
	h := cgo.NewHandle(fn)
	defer h.Delete()
	C.sysprop_read(p, C.uintptr_t(h))
}

// Wait 调用 __system_property_wait，pi 为 nil 时等待全局序列号
func (Store) Wait(pi sysprop.PropInfo, serial uint32, timeout time.Duration) (uint32, bool) {
	p, _ := pi.(*C.prop_info)
	var next C.uint32_t
	ok := C.sysprop_wait(p, C.uint32_t(serial), &next, C.int64_t(timeout))
	if !bool(ok) {
		return serial, false
	}
	return uint32(next), true
}

// Set 调用 __system_property_set
func (Store) Set(name, value string) int {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	cvalue := C.CString(value)
	defer C.free(unsafe.Pointer(cvalue))
	return int(C.__system_property_set(cname, cvalue))
}

// Foreach 调用 __system_property_foreach
func (Store) Foreach(fn func(pi sysprop.PropInfo)) int {
	h := cgo.NewHandle(fn)
	defer h.Delete()
	return int(C.sysprop_foreach(C.uintptr_t(h)))
}
