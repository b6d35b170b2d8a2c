package sysprop

import "time"

// Forever 作为超时参数时表示无限等待
const Forever time.Duration = -1

// PropInfo 是存储返回的不透明属性句柄
//
// 句柄一旦取得，在进程生命周期内一直有效，Watcher 从不释放它。
// nil 表示属性不存在；作为 Store.Wait 的参数时表示观察全局序列号。
type PropInfo = any

// ReadFunc 是存储读取回调的原始形式
//
// name、value 为 nil 时对应原生接口中的空指针；
// 两个切片只在本次调用期间有效，调用方必须在返回前复制。
type ReadFunc = func(name, value []byte, serial uint32)

// Store 是原生属性存储暴露的五个操作
//
// 这里的类型均为别名，存储实现无需引入本包即可满足该接口。
type Store interface {
	// Find 按名称查找属性，不存在时返回 nil
	Find(name string) PropInfo
	// ReadCallback 同步调用 fn 恰好一次，传入当前的名称与值；失败时完全不调用
	ReadCallback(pi PropInfo, fn ReadFunc)
	// Wait 阻塞直到序列号与 serial 不同或超时
	//
	// pi 为 nil 时观察全局序列号。timeout 为负数时无限等待。
	// 返回新的序列号以及是否成功。
	Wait(pi PropInfo, serial uint32, timeout time.Duration) (uint32, bool)
	// Set 写入属性，成功返回 0
	Set(name, value string) int
	// Foreach 对每个可见属性调用 fn，返回负数表示存储未初始化
	Foreach(fn func(pi PropInfo)) int
}

// unattached 是尚未挂载任何原生存储时使用的占位存储
type unattached struct{}

func (unattached) Find(string) PropInfo { return nil }
func (unattached) ReadCallback(PropInfo, ReadFunc) {}
func (unattached) Wait(PropInfo, uint32, time.Duration) (uint32, bool) { return 0, false }
func (unattached) Set(string, string) int { return -1 }
func (unattached) Foreach(func(PropInfo)) int { return -1 }
