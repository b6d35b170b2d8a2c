//go:build android && cgo

package main

import (
	"github.com/shuakami/sysprop"
	"github.com/shuakami/sysprop/bionic"
)

func nativeStore() (sysprop.Store, error) {
	return bionic.Store{}, nil
}
