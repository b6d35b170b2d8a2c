//go:build !(android && cgo)

package main

import (
	"errors"

	"github.com/shuakami/sysprop"
)

func nativeStore() (sysprop.Store, error) {
	return nil, errors.New("the native backend is only available on Android builds with cgo")
}
