//go:build !unix

package filestore

import "os"

// 非 unix 平台只保证同一进程内的写入互斥
func lockExclusive(*os.File) error { return nil }

func unlock(*os.File) error { return nil }
