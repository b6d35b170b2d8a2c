package sysprop

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// Client 把一个 Store 与日志、指标绑定在一起
//
// Client 本身不持有可变状态，可以被多个 goroutine 共享。
type Client struct {
	store   Store
	logger  *zap.Logger
	metrics *Metrics
}

// New 创建绑定到 store 的 Client，store 为 nil 时视为未挂载
func New(store Store, opts ...Option) *Client {
	if store == nil {
		store = unattached{}
	}
	c := &Client{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("sysprop")
	return c
}

// Store 返回底层存储
func (c *Client) Store() Store {
	return c.store
}

// Watch 为命名属性创建 Watcher，名称含 NUL 时返回 ErrInvalidName
func (c *Client) Watch(name string) (*Watcher, error) {
	return newWatcher(c, name)
}

// Read 读取属性，属性不存在时返回 ("", false, nil)
func (c *Client) Read(name string) (string, bool, error) {
	w, err := c.Watch(name)
	if err != nil {
		return "", false, err
	}
	value, err := w.Value()
	switch {
	case errors.Is(err, ErrPropertyAbsent):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return value, true, nil
}

// ReadBool 读取布尔属性
//
// 值为 "1"、"y"、"yes"、"on"、"true" 时返回 true，
// 为 "0"、"n"、"no"、"off"、"false" 时返回 false，
// 属性不存在或无法解析时返回 def。
func (c *Client) ReadBool(name string, def bool) (bool, error) {
	value, ok, err := c.Read(name)
	if err != nil || !ok {
		return def, err
	}
	if b, ok := ParseBool(value); ok {
		return b, nil
	}
	return def, nil
}

// Write 写入属性
func (c *Client) Write(name, value string) error {
	err := c.write(name, value)
	c.metrics.observeWrite(err)
	if err != nil {
		c.logger.Warn("failed to set property", zap.String("property", name), zap.Error(err))
	}
	return err
}

func (c *Client) write(name, value string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return ErrInvalidName
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("%w: value contains a NUL byte", ErrSetPropertyFailed)
	}
	if c.store.Set(name, value) != 0 {
		return ErrSetPropertyFailed
	}
	return nil
}

// Foreach 对当前进程可见的每个属性调用 f，顺序由存储决定
//
// 存储未初始化时返回 ErrUninitialized。存储交回的畸形条目会被跳过并记录日志。
// f 发生 panic 时停止调用 f，并以 *CallbackError 返回。
func (c *Client) Foreach(f func(name, value string)) error {
	var failed error
	status := c.store.Foreach(func(pi PropInfo) {
		if failed != nil {
			return
		}
		err := readRaw(c.store, pi, func(name, value string) error {
			f(name, value)
			return nil
		})
		switch {
		case err == nil:
		case isMarshalError(err), errors.Is(err, ErrReadCallbackNotCalled):
			c.metrics.skipped()
			c.logger.Warn("skipping malformed property during iteration", zap.Error(err))
		default:
			failed = err
		}
	})
	if status < 0 {
		return ErrUninitialized
	}
	return failed
}

// ParseBool 解析布尔形式的属性值，第二个返回值表示是否识别
func ParseBool(value string) (bool, bool) {
	switch value {
	case "1", "y", "yes", "on", "true":
		return true, true
	case "0", "n", "no", "off", "false":
		return false, true
	}
	return false, false
}

var defaultClient atomic.Pointer[Client]

func init() {
	defaultClient.Store(New(nil))
}

// SetDefault 替换进程级默认 Client，原生后端在 init 中调用它完成挂载
func SetDefault(c *Client) {
	if c == nil {
		c = New(nil)
	}
	defaultClient.Store(c)
}

// Default 返回进程级默认 Client
func Default() *Client {
	return defaultClient.Load()
}

// NewWatcher 使用默认 Client 创建 Watcher
func NewWatcher(name string) (*Watcher, error) {
	return Default().Watch(name)
}

// Read 使用默认 Client 读取属性
func Read(name string) (string, bool, error) {
	return Default().Read(name)
}

// ReadBool 使用默认 Client 读取布尔属性
func ReadBool(name string, def bool) (bool, error) {
	return Default().ReadBool(name, def)
}

// Write 使用默认 Client 写入属性
func Write(name, value string) error {
	return Default().Write(name, value)
}

// Foreach 使用默认 Client 遍历属性
func Foreach(f func(name, value string)) error {
	return Default().Foreach(f)
}
