// Package sysprop 观察并修改进程共享属性存储中的命名属性。
//
// 核心特点：
//   - Watcher 观察单个属性，可以读取当前值、等待变化、等待某个值
//   - 通过序列号检测变化：每次成功等待都记录新的序列号，下一次等待从它开始，
//     因此不会漏掉也不会重复报告同一次写入
//   - 属性尚未创建时先观察全局序列号，等待它被创建
//   - 带超时的操作在开始时计算一次截止时间，内部重试共享同一个截止时间
//   - 把存储"以原始指针调用回调"的接口转换为带类型的结果，空指针、非法编码、
//     调用方回调的错误与 panic 都变成明确的错误
//
// 存储后端：
//   - bionic：Android 原生存储，引入即挂载为默认 Client
//   - filestore：多个进程共享的目录，fsnotify 唤醒等待方
//   - memstore：进程内存储，用于测试与嵌入
//
// 推荐使用方式：
//  1. 用某个 Store 通过 New 创建 Client（或直接使用包级函数与默认 Client）
//  2. 通过 Client.Watch 创建 Watcher
//  3. 调用 Read / Wait / WaitForValue
//
// 并发安全：
//   - Client 可以被多个 goroutine 共享
//   - Watcher 不是并发安全的，每个 goroutine 使用自己的 Watcher
//   - 读取方不需要任何锁，同步完全交给存储的等待原语
//
// 已知限制：
//   - codec 格式化列表时不转义元素中的逗号，见 codec 包文档
package sysprop
