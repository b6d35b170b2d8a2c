package sysprop_test

import (
	"fmt"
	"time"

	"github.com/shuakami/sysprop"
	"github.com/shuakami/sysprop/memstore"
)

// ExampleWatcher 展示最简使用场景
//
// 运行示例命令: go test -v -run=ExampleWatcher
func ExampleWatcher() {
	// 进程内存储，真实环境中换成 bionic 或 filestore
	store := memstore.New()
	client := sysprop.New(store)

	w, err := client.Watch("sys.boot_completed")
	if err != nil {
		fmt.Println("Error creating watcher:", err)
		return
	}

	// 另一个"进程"稍后完成启动
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = client.Write("sys.boot_completed", "1")
	}()

	if err := w.WaitForValue("1", time.Second); err != nil {
		fmt.Println("Error waiting:", err)
		return
	}

	booted, _ := client.ReadBool("sys.boot_completed", false)
	fmt.Println("booted:", booted)

	_, ok, _ := client.Read("sys.unknown")
	fmt.Println("unknown present:", ok)

	// Output:
	// booted: true
	// unknown present: false
}
