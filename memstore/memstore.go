// Package memstore 提供进程内的属性存储，实现与原生存储相同的序列号与等待语义。
//
// 它适合测试以及在没有原生存储的主机上嵌入使用。
package memstore

import (
	"sync"
	"time"

	"github.com/shuakami/sysprop/internal/propname"
)

// entry 是属性在存储中的位置，作为句柄交给调用方，地址在存储生命周期内不变
type entry struct {
	name   string
	value  string
	serial uint32
}

// Store 是并发安全的内存属性存储
//
// mu：保护 props、order、global 与 changed
// changed：每次写入后关闭并替换，用来唤醒所有等待者
type Store struct {
	mu          sync.Mutex
	props       map[string]*entry
	order       []*entry
	global      uint32
	changed     chan struct{}
	initialized bool
}

// New 创建已初始化的空存储
func New() *Store {
	return &Store{
		props:       make(map[string]*entry),
		changed:     make(chan struct{}),
		initialized: true,
	}
}

// NewUninitialized 创建未初始化的存储，Foreach 返回 -1，Set 失败
func NewUninitialized() *Store {
	s := New()
	s.initialized = false
	return s
}

// Find 按名称查找属性
func (s *Store) Find(name string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.props[name]; ok {
		return e
	}
	// 返回无类型的 nil，避免接口中包着空指针
	return nil
}

// ReadCallback 以当前名称、值与序列号调用 fn，句柄无效时不调用
func (s *Store) ReadCallback(pi any, fn func(name, value []byte, serial uint32)) {
	e, ok := pi.(*entry)
	if !ok || e == nil {
		return
	}
	s.mu.Lock()
	name, value, serial := []byte(e.name), []byte(e.value), e.serial
	s.mu.Unlock()
	fn(name, value, serial)
}

// Wait 阻塞直到序列号与 serial 不同或超时
func (s *Store) Wait(pi any, serial uint32, timeout time.Duration) (uint32, bool) {
	e, _ := pi.(*entry)

	var expired <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		s.mu.Lock()
		current := s.global
		if e != nil {
			current = e.serial
		}
		changed := s.changed
		s.mu.Unlock()

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
		}
	}
}

// Set 写入属性，成功返回 0，失败返回 -1
//
// 名称为空或含 NUL、值超长、重写 ro. 属性、存储未初始化时失败。
func (s *Store) Set(name, value string) int {
	if !propname.Valid(name) || !propname.ValidValue(name, value) {
		return -1
	}
	readOnly := propname.ReadOnly(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return -1
	}

	e, ok := s.props[name]
	switch {
	case !ok:
		e = &entry{name: name}
		s.props[name] = e
		s.order = append(s.order, e)
	case readOnly:
		return -1
	}
	e.value = value
	e.serial++
	s.global++

	close(s.changed)
	s.changed = make(chan struct{})
	return 0
}

// Foreach 按创建顺序对每个属性调用 fn
func (s *Store) Foreach(fn func(pi any)) int {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return -1
	}
	entries := make([]*entry, len(s.order))
	copy(entries, s.order)
	s.mu.Unlock()

	for _, e := range entries {
		fn(e)
	}
	return 0
}

// GlobalSerial 返回全局序列号
func (s *Store) GlobalSerial() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.global
}
