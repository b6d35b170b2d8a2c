package sysprop

import (
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuakami/sysprop/memstore"
)

// fakeStore 包装 memstore，统计原生调用次数并注入违反约定的行为
type fakeStore struct {
	*memstore.Store

	finds atomic.Int32
	waits atomic.Int32

	skipCallback bool
	override     bool
	rawName      []byte
	rawValue     []byte
	failWait     bool

	// churn 非空时，每次原生等待前先写一次该属性
	churn  string
	writes atomic.Int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{Store: memstore.New()}
}

func (f *fakeStore) Find(name string) PropInfo {
	f.finds.Add(1)
	return f.Store.Find(name)
}

func (f *fakeStore) ReadCallback(pi PropInfo, fn ReadFunc) {
	switch {
	case f.skipCallback:
	case f.override:
		fn(f.rawName, f.rawValue, 1)
	default:
		f.Store.ReadCallback(pi, fn)
	}
}

func (f *fakeStore) Wait(pi PropInfo, serial uint32, timeout time.Duration) (uint32, bool) {
	f.waits.Add(1)
	if f.churn != "" {
		f.Store.Set(f.churn, strconv.Itoa(int(f.writes.Add(1))))
	}
	if f.failWait {
		return serial, false
	}
	return f.Store.Wait(pi, serial, timeout)
}

func mustSet(t *testing.T, s Store, name, value string) {
	t.Helper()
	require.Equal(t, 0, s.Set(name, value), "set %s=%s", name, value)
}

func TestNewWatcherInvalidName(t *testing.T) {
	store := newFakeStore()
	_, err := New(store).Watch("bad\x00name")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Zero(t, store.finds.Load(), "no native call for an invalid name")
}

func TestWatcherReadAbsent(t *testing.T) {
	w, err := New(newFakeStore()).Watch("certainly.does.not.exist")
	require.NoError(t, err)

	_, err = w.Value()
	assert.ErrorIs(t, err, ErrPropertyAbsent)
}

func TestWatcherRead(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "ro.product.model", "Pixel")
	mustSet(t, store, "sys.empty", "")
	c := New(store)

	w, err := c.Watch("ro.product.model")
	require.NoError(t, err)
	err = w.Read(func(name, value string) error {
		assert.Equal(t, "ro.product.model", name)
		assert.Equal(t, "Pixel", value)
		return nil
	})
	require.NoError(t, err)

	empty, err := c.Watch("sys.empty")
	require.NoError(t, err)
	v, err := empty.Value()
	require.NoError(t, err, "an empty value is present, not absent")
	assert.Equal(t, "", v)
}

func TestWatcherResolvesHandleOnce(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.prop", "1")
	w, err := New(store).Watch("sys.prop")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := w.Value()
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), store.finds.Load())
}

func TestWatcherRetriesAbsentHandle(t *testing.T) {
	store := newFakeStore()
	w, err := New(store).Watch("sys.late")
	require.NoError(t, err)

	_, err = w.Value()
	require.ErrorIs(t, err, ErrPropertyAbsent)

	mustSet(t, store, "sys.late", "here")
	v, err := w.Value()
	require.NoError(t, err)
	assert.Equal(t, "here", v)
}

func TestWatcherReadContractViolations(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*fakeStore)
		want  error
	}{
		{"callback not called", func(f *fakeStore) { f.skipCallback = true }, ErrReadCallbackNotCalled},
		{"null value", func(f *fakeStore) { f.override, f.rawName = true, []byte("sys.prop") }, ErrMissingValue},
		{"null name", func(f *fakeStore) { f.override, f.rawValue = true, []byte("1") }, ErrMissingValue},
		{"invalid utf-8", func(f *fakeStore) {
			f.override, f.rawName, f.rawValue = true, []byte("sys.prop"), []byte{0xff, 0xfe}
		}, ErrInvalidEncoding},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := newFakeStore()
			mustSet(t, store, "sys.prop", "1")
			c.setup(store)
			w, err := New(store).Watch("sys.prop")
			require.NoError(t, err)

			called := false
			err = w.Read(func(string, string) error {
				called = true
				return nil
			})
			assert.ErrorIs(t, err, c.want)
			assert.False(t, called)
		})
	}
}

func TestWatcherReadCallbackFailure(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.prop", "1")
	w, err := New(store).Watch("sys.prop")
	require.NoError(t, err)

	errBoom := errors.New("boom")
	err = w.Read(func(string, string) error { return errBoom })
	assert.ErrorIs(t, err, ErrCallback)
	assert.ErrorIs(t, err, errBoom)

	err = w.Read(func(string, string) error { panic("unexpected") })
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Contains(t, cbErr.Error(), "unexpected")
}

func TestReadAs(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.len", "hello")
	w, err := New(store).Watch("sys.len")
	require.NoError(t, err)

	n, err := ReadAs(w, func(_, value string) (int, error) { return len(value), nil })
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestWaitObservesConcurrentWrite(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.counter", "0")
	w, err := New(store).Watch("sys.counter")
	require.NoError(t, err)

	// 第一次等待记录当前序列号
	require.NoError(t, w.Wait(Forever))
	observed := w.Serial()

	written := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		store.Set("sys.counter", "1")
		close(written)
	}()

	require.NoError(t, w.Wait(Forever))
	select {
	case <-written:
	default:
		t.Fatal("wait returned before the write completed")
	}
	assert.NotEqual(t, observed, w.Serial())

	v, err := w.Value()
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestWaitDoesNotReportSameChangeTwice(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.once", "a")
	w, err := New(store).Watch("sys.once")
	require.NoError(t, err)

	require.NoError(t, w.Wait(Forever))
	assert.ErrorIs(t, w.Wait(50*time.Millisecond), ErrWaitTimedOut)
}

func TestWaitTimeout(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.still", "a")
	w, err := New(store).Watch("sys.still")
	require.NoError(t, err)
	require.NoError(t, w.Wait(Forever))

	const timeout = 100 * time.Millisecond
	start := time.Now()
	err = w.Wait(timeout)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrWaitTimedOut)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+time.Second)
}

func TestWaitForCreation(t *testing.T) {
	store := newFakeStore()
	w, err := New(store).Watch("sys.created")
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		store.Set("sys.other", "x")
		time.Sleep(20 * time.Millisecond)
		store.Set("sys.created", "yes")
	}()

	require.NoError(t, w.Wait(2*time.Second))
	v, err := w.Value()
	require.NoError(t, err)
	assert.Equal(t, "yes", v)
}

func TestWaitForCreationSharesDeadline(t *testing.T) {
	store := newFakeStore()
	w, err := New(store).Watch("sys.never")
	require.NoError(t, err)

	// 其它属性不断变化，创建等待会被反复唤醒并重试
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				store.Set("sys.noise", time.Now().String())
			case <-stop:
				return
			}
		}
	}()

	const timeout = 150 * time.Millisecond
	start := time.Now()
	err = w.Wait(timeout)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrWaitTimedOut)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+500*time.Millisecond)
	assert.Greater(t, store.waits.Load(), int32(1), "the creation wait retried")
}

func TestWaitFailed(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.prop", "1")
	store.failWait = true
	w, err := New(store).Watch("sys.prop")
	require.NoError(t, err)

	assert.ErrorIs(t, w.Wait(Forever), ErrWaitFailed)
	assert.ErrorIs(t, w.Wait(time.Hour), ErrWaitFailed)
}

func TestWaitForValueAlreadyHeld(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.boot_completed", "1")
	w, err := New(store).Watch("sys.boot_completed")
	require.NoError(t, err)

	require.NoError(t, w.WaitForValue("1", Forever))
	assert.Zero(t, store.waits.Load(), "no native wait when the value already matches")
}

func TestWaitForValueEventually(t *testing.T) {
	store := newFakeStore()
	w, err := New(store).Watch("sys.state")
	require.NoError(t, err)

	go func() {
		for _, v := range []string{"starting", "running", "ready"} {
			time.Sleep(10 * time.Millisecond)
			store.Set("sys.state", v)
		}
	}()

	require.NoError(t, w.WaitForValue("ready", 2*time.Second))
	v, err := w.Value()
	require.NoError(t, err)
	assert.Equal(t, "ready", v)
}

func TestWaitForValueTimeout(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.state", "starting")
	w, err := New(store).Watch("sys.state")
	require.NoError(t, err)

	start := time.Now()
	err = w.WaitForValue("ready", 80*time.Millisecond)
	assert.ErrorIs(t, err, ErrWaitTimedOut)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForCreationStopsAtDeadlineUnderConstantWrites(t *testing.T) {
	store := newFakeStore()
	store.churn = "sys.noise"
	w, err := New(store).Watch("sys.never")
	require.NoError(t, err)

	const timeout = 50 * time.Millisecond
	start := time.Now()
	err = w.Wait(timeout)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrWaitTimedOut)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+300*time.Millisecond)
}

func TestWaitForValueStopsAtDeadlineUnderConstantWrites(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.state", "starting")
	store.churn = "sys.state"
	w, err := New(store).Watch("sys.state")
	require.NoError(t, err)

	const timeout = 50 * time.Millisecond
	start := time.Now()
	err = w.WaitForValue("never", timeout)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrWaitTimedOut)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+300*time.Millisecond)
}

func TestWaitForValueZeroTimeoutAlreadyHeld(t *testing.T) {
	store := newFakeStore()
	mustSet(t, store, "sys.state", "ready")
	w, err := New(store).Watch("sys.state")
	require.NoError(t, err)

	require.NoError(t, w.WaitForValue("ready", 0))
	assert.Zero(t, store.waits.Load())
}
