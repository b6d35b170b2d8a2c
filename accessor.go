package sysprop

import (
	"github.com/shuakami/sysprop/codec"
)

// Prop 是某个命名属性的类型化访问器
//
// parse 与 format 通常取自 codec 包，例如 codec.Parse[int32] 与 codec.Format[int32]。
type Prop[T any] struct {
	client *Client
	name   string
	parse  func(string) (T, error)
	format func(T) string
}

// NewProp 创建类型化访问器，client 为 nil 时使用默认 Client
func NewProp[T any](client *Client, name string, parse func(string) (T, error), format func(T) string) *Prop[T] {
	return &Prop[T]{client: client, name: name, parse: parse, format: format}
}

// NewScalarProp 使用 codec 的标量解析与格式化创建访问器
func NewScalarProp[T codec.Scalar](client *Client, name string) *Prop[T] {
	return NewProp(client, name, codec.Parse[T], codec.Format[T])
}

// NewListProp 使用 codec 的列表解析与格式化创建访问器
func NewListProp[T codec.Scalar](client *Client, name string) *Prop[[]T] {
	return NewProp(client, name, codec.ParseList[T], codec.FormatList[T])
}

func (p *Prop[T]) clientOrDefault() *Client {
	if p.client != nil {
		return p.client
	}
	return Default()
}

// Name 返回属性名
func (p *Prop[T]) Name() string {
	return p.name
}

// Get 读取并解析属性，属性不存在时第二个返回值为 false
func (p *Prop[T]) Get() (T, bool, error) {
	var zero T
	raw, ok, err := p.clientOrDefault().Read(p.name)
	if err != nil {
		return zero, false, &AccessorError{Op: OpFetch, Name: p.name, Err: err}
	}
	if !ok {
		return zero, false, nil
	}
	v, err := p.parse(raw)
	if err != nil {
		return zero, true, &AccessorError{Op: OpParse, Name: p.name, Err: err}
	}
	return v, true, nil
}

// GetOr 读取属性，不存在时返回 def
func (p *Prop[T]) GetOr(def T) (T, error) {
	v, ok, err := p.Get()
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// Set 格式化并写入属性
func (p *Prop[T]) Set(v T) error {
	if err := p.clientOrDefault().Write(p.name, p.format(v)); err != nil {
		return &AccessorError{Op: OpSet, Name: p.name, Err: err}
	}
	return nil
}
