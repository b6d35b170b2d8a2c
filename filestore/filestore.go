// Package filestore 把属性存储放在一个目录里，供多个进程共享。
//
// 目录结构：
//   - 每个属性一个文件，内容为 "<serial>\n<value>"
//   - .serial 保存全局序列号
//   - .lock 是写入方之间的建议锁
//
// 写入方在 .lock 上加排他锁后完成"读序列号、写新文件、改名覆盖"，
// 因此读取方无需加锁也总能看到完整的文件。等待方通过 fsnotify 监听目录，
// 每次目录事件后重新比较序列号。
package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/shuakami/sysprop/internal/propname"
)

const (
	serialFile = ".serial"
	lockFile   = ".lock"
	tempPrefix = ".tmp-"
)

// handle 是属性文件的句柄，同一名称在同一个 Store 中总是同一个句柄
type handle struct {
	name string
	path string
}

// Option 配置 Store
type Option func(*Store)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store 是基于目录的属性存储
//
// mu：保护 handles 与 changed
// writeMu：同一进程内的写入方互斥，跨进程互斥由 .lock 上的 flock 保证
// changed：每个目录事件后关闭并替换，用来唤醒等待方
type Store struct {
	dir     string
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	lock    *os.File

	mu      sync.Mutex
	handles map[string]*handle
	changed chan struct{}

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// Open 打开（必要时创建）dir 作为属性存储，并开始监听目录变化
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir %s: %w", dir, err)
	}
	lock, err := os.OpenFile(filepath.Join(dir, lockFile), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		lock.Close()
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		lock.Close()
		return nil, fmt.Errorf("failed to watch store dir %s: %w", dir, err)
	}

	s := &Store{
		dir:     dir,
		logger:  zap.NewNop(),
		watcher: fsw,
		lock:    lock,
		handles: make(map[string]*handle),
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("filestore").With(zap.String("dir", dir))

	go s.run()
	return s, nil
}

// Close 停止监听并释放文件
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = errors.Join(s.watcher.Close(), s.lock.Close())
	})
	return err
}

// Dir 返回存储目录
func (s *Store) Dir() string {
	return s.dir
}

// run 把目录事件转换为对等待方的广播
func (s *Store) run() {
	for {
		select {
		case _, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.broadcast()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			// 事件可能已经丢失，唤醒所有等待方重新比较序列号
			s.logger.Warn("fsnotify error", zap.Error(err))
			s.broadcast()
		case <-s.done:
			return
		}
	}
}

func (s *Store) broadcast() {
	s.mu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

func (s *Store) notifier() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// validName 在 propname.Valid 的基础上拒绝无法作为文件名的名称
func validName(name string) bool {
	return propname.Valid(name) &&
		!strings.ContainsRune(name, filepath.Separator) &&
		!strings.HasPrefix(name, ".")
}

func (s *Store) handle(name string) *handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	if !ok {
		h = &handle{name: name, path: filepath.Join(s.dir, name)}
		s.handles[name] = h
	}
	return h
}

// Find 按名称查找属性
func (s *Store) Find(name string) any {
	if !validName(name) {
		return nil
	}
	if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
		return nil
	}
	return s.handle(name)
}

// ReadCallback 读取属性文件并调用 fn，读取失败时不调用
func (s *Store) ReadCallback(pi any, fn func(name, value []byte, serial uint32)) {
	h, ok := pi.(*handle)
	if !ok || h == nil {
		return
	}
	serial, value, err := readRecord(h.path)
	if err != nil {
		s.logger.Debug("failed to read property", zap.String("property", h.name), zap.Error(err))
		return
	}
	fn([]byte(h.name), value, serial)
}

// Wait 阻塞直到序列号与 serial 不同或超时，pi 为 nil 时观察 .serial
func (s *Store) Wait(pi any, serial uint32, timeout time.Duration) (uint32, bool) {
	h, _ := pi.(*handle)

	var expired <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		// 先取通知通道再读序列号，读之后发生的写入一定会关闭这个通道
		changed := s.notifier()
		current, err := s.serialOf(h)
		if err != nil {
			s.logger.Warn("failed to read serial", zap.Error(err))
			return serial, false
		}
		if current != serial {
			return current, true
		}
		if timeout == 0 {
			return serial, false
		}
		select {
		case <-changed:
		case <-expired:
			return serial, false
		case <-s.done:
			return serial, false
		}
	}
}

func (s *Store) serialOf(h *handle) (uint32, error) {
	if h == nil {
		return s.globalSerial()
	}
	serial, _, err := readRecord(h.path)
	return serial, err
}

func (s *Store) globalSerial() (uint32, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, serialFile))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseSerial(bytes.TrimSpace(data))
}

// Set 写入属性，成功返回 0，失败返回 -1
func (s *Store) Set(name, value string) int {
	if !validName(name) || !propname.ValidValue(name, value) {
		return -1
	}
	if err := s.set(name, value); err != nil {
		s.logger.Warn("failed to set property", zap.String("property", name), zap.Error(err))
		return -1
	}
	return 0
}

var errReadOnly = errors.New("read-only property already set")

func (s *Store) set(name, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := lockExclusive(s.lock); err != nil {
		return fmt.Errorf("failed to lock store: %w", err)
	}
	defer unlock(s.lock)

	path := filepath.Join(s.dir, name)
	serial, _, err := readRecord(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		serial = 0
	case err != nil:
		return err
	case propname.ReadOnly(name):
		return errReadOnly
	}

	record := make([]byte, 0, len(value)+12)
	record = strconv.AppendUint(record, uint64(serial+1), 10)
	record = append(record, '\n')
	record = append(record, value...)
	if err := s.replace(path, record); err != nil {
		return err
	}

	global, err := s.globalSerial()
	if err != nil {
		return err
	}
	return s.replace(filepath.Join(s.dir, serialFile), strconv.AppendUint(nil, uint64(global+1), 10))
}

// replace 先写临时文件再改名，读取方不会看到写了一半的内容
func (s *Store) replace(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Foreach 对目录中的每个属性调用 fn，目录不可读时返回 -1
func (s *Store) Foreach(fn func(pi any)) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to list store dir", zap.Error(err))
		return -1
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		fn(s.handle(e.Name()))
	}
	return 0
}

func readRecord(path string) (uint32, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return 0, nil, fmt.Errorf("malformed property file %s", path)
	}
	serial, err := parseSerial(data[:i])
	if err != nil {
		return 0, nil, fmt.Errorf("malformed property file %s: %w", path, err)
	}
	return serial, data[i+1:], nil
}

func parseSerial(b []byte) (uint32, error) {
	v, err := strconv.ParseUint(string(b), 10, 32)
	return uint32(v), err
}
