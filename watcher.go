package sysprop

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// handleState 是 Watcher 对属性句柄的缓存状态
type handleState int

const (
	// handleUnresolved 从未查找过
	handleUnresolved handleState = iota
	// handleResolved 已取得句柄，之后不再查找
	handleResolved
	// handleAbsent 上次查找时属性不存在，下次仍会重试
	handleAbsent
)

// Watcher 观察单个命名属性，可以读取当前值或等待其变化
//
// name：属性名，构造时保证不含 NUL
// state、info：惰性查找并缓存的句柄
// serial：上一次成功等待时观察到的序列号，初始为 0
//
// Watcher 不是并发安全的，每个 goroutine 使用自己的 Watcher。
type Watcher struct {
	name    string
	store   Store
	logger  *zap.Logger
	metrics *Metrics

	state  handleState
	info   PropInfo
	serial uint32
}

func newWatcher(c *Client, name string) (*Watcher, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return nil, ErrInvalidName
	}
	return &Watcher{
		name:    name,
		store:   c.store,
		logger:  c.logger.With(zap.String("property", name)),
		metrics: c.metrics,
	}, nil
}

// Name 返回被观察的属性名
func (w *Watcher) Name() string {
	return w.name
}

// Serial 返回最近一次成功等待时记录的序列号
func (w *Watcher) Serial() uint32 {
	return w.serial
}

// resolve 返回属性句柄，属性不存在时返回 nil
//
// 句柄一旦取得就被缓存；属性不存在时每次调用都会重新查找。
func (w *Watcher) resolve() PropInfo {
	if w.state == handleResolved {
		return w.info
	}
	if pi := w.store.Find(w.name); pi != nil {
		w.info = pi
		w.state = handleResolved
		w.logger.Debug("resolved property handle")
		return pi
	}
	w.state = handleAbsent
	return nil
}

// Read 以当前属性名与值调用 f
//
// 属性不存在时返回 ErrPropertyAbsent。f 返回的错误被包装为 *CallbackError。
// 传给 f 的字符串是副本，可以安全保存。
func (w *Watcher) Read(f func(name, value string) error) error {
	pi := w.resolve()
	if pi == nil {
		w.metrics.observeRead(ErrPropertyAbsent)
		return ErrPropertyAbsent
	}
	err := readRaw(w.store, pi, f)
	if errors.Is(err, ErrReadCallbackNotCalled) {
		w.logger.Error("native read did not invoke the callback")
	}
	w.metrics.observeRead(err)
	return err
}

// ReadAs 读取属性并通过 f 转换为 T
func ReadAs[T any](w *Watcher, f func(name, value string) (T, error)) (T, error) {
	var out T
	err := w.Read(func(name, value string) error {
		v, err := f(name, value)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Value 返回属性的当前值
func (w *Watcher) Value() (string, error) {
	return ReadAs(w, func(_, value string) (string, error) {
		return value, nil
	})
}

// Wait 阻塞直到属性发生变化或超时，timeout 为负数（Forever）时无限等待
//
// 成功后记录新的序列号，下一次 Wait 不会重复报告同一次变化。
// 如果属性尚不存在，则先等待它被创建。
func (w *Watcher) Wait(timeout time.Duration) error {
	return w.waitForChangeUntil(newDeadline(timeout))
}

// WaitForValue 等待属性存在且值等于 expected
//
// 属性当前已经是 expected 时立即返回，不会调用原生等待。
func (w *Watcher) WaitForValue(expected string, timeout time.Duration) error {
	until := newDeadline(timeout)

	if err := w.waitForCreationUntil(until); err != nil {
		return err
	}

	for {
		var matched bool
		err := w.Read(func(_, value string) error {
			matched = value == expected
			return nil
		})
		if err != nil {
			return err
		}
		if matched {
			return nil
		}
		if until.expired() {
			return ErrWaitTimedOut
		}
		if err := w.waitForChangeUntil(until); err != nil {
			return err
		}
	}
}

// waitForCreationUntil 等待属性被创建，属性已存在时立即返回
//
// 此时还没有属性自己的序列号，因此观察全局序列号，每次醒来都重新查找句柄。
// 其它属性持续写入时全局序列号不断前进，重试前要先检查截止时间。
func (w *Watcher) waitForCreationUntil(until deadline) error {
	var global uint32
	for retry := false; w.resolve() == nil; retry = true {
		if retry && until.expired() {
			return ErrWaitTimedOut
		}
		w.logger.Debug("waiting for property creation", zap.Uint32("global_serial", global))
		next, err := w.nativeWait(nil, global, until)
		if err != nil {
			return err
		}
		global = next
	}
	return nil
}

// waitForChangeUntil 等待属性序列号越过 w.serial
func (w *Watcher) waitForChangeUntil(until deadline) error {
	pi := w.resolve()
	if pi == nil {
		return w.waitForCreationUntil(until)
	}

	w.logger.Debug("waiting for property change", zap.Uint32("serial", w.serial))
	next, err := w.nativeWait(pi, w.serial, until)
	if err != nil {
		return err
	}
	w.serial = next
	return nil
}

// nativeWait 调用 Store.Wait，并把失败区分为超时与其它失败
func (w *Watcher) nativeWait(pi PropInfo, serial uint32, until deadline) (uint32, error) {
	kind := "property"
	if pi == nil {
		kind = "global"
	}
	started := time.Now()
	next, ok := w.store.Wait(pi, serial, until.remaining())
	w.metrics.observeWait(kind, started, ok)
	if ok {
		return next, nil
	}
	if until.expired() {
		return serial, ErrWaitTimedOut
	}
	w.logger.Warn("native wait failed", zap.String("kind", kind))
	return serial, ErrWaitFailed
}
