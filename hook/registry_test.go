package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKind Kind = "test"

type testEvent struct {
	reverse bool
	calls   []string
	flag    string
}

func (e *testEvent) Kind() Kind            { return testKind }
func (e *testEvent) DispatchReverse() bool { return e.reverse }

func record(name string) Callback {
	return func(_ context.Context, ev Event) error {
		te := ev.(*testEvent)
		te.calls = append(te.calls, name)
		return nil
	}
}

func TestRegistry_DispatchOrder(t *testing.T) {
	r := NewRegistry()
	r.AddCallback(testKind, record("a"))
	r.AddCallback(testKind, record("b"))
	r.AddCallback(testKind, record("c"))

	ev := &testEvent{}
	require.NoError(t, r.Dispatch(context.Background(), ev))
	assert.Equal(t, []string{"a", "b", "c"}, ev.calls)
}

func TestRegistry_ReverseDispatch(t *testing.T) {
	r := NewRegistry()
	r.AddCallback(testKind, record("a"))
	r.AddCallback(testKind, record("b"))
	r.AddCallback(testKind, record("c"))

	ev := &testEvent{reverse: true}
	require.NoError(t, r.Dispatch(context.Background(), ev))
	assert.Equal(t, []string{"c", "b", "a"}, ev.calls)
}

func TestRegistry_IncrementalRegistration(t *testing.T) {
	r := NewRegistry()
	r.AddCallback(testKind, record("a"))

	ev := &testEvent{}
	require.NoError(t, r.Dispatch(context.Background(), ev))
	assert.Equal(t, []string{"a"}, ev.calls)

	// Callbacks added after construction slot in at the end of the order.
	r.AddCallback(testKind, record("b"))

	ev2 := &testEvent{}
	require.NoError(t, r.Dispatch(context.Background(), ev2))
	assert.Equal(t, []string{"a", "b"}, ev2.calls)

	ev3 := &testEvent{reverse: true}
	require.NoError(t, r.Dispatch(context.Background(), ev3))
	assert.Equal(t, []string{"b", "a"}, ev3.calls)
}

func TestRegistry_LaterCallbackSeesEarlierMutation(t *testing.T) {
	r := NewRegistry()
	r.AddCallback(testKind, func(_ context.Context, ev Event) error {
		ev.(*testEvent).flag = "set-by-first"
		return nil
	})

	var observed string
	r.AddCallback(testKind, func(_ context.Context, ev Event) error {
		observed = ev.(*testEvent).flag
		return nil
	})

	require.NoError(t, r.Dispatch(context.Background(), &testEvent{}))
	assert.Equal(t, "set-by-first", observed)
}

func TestRegistry_ErrorAbortsChain(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	r.AddCallback(testKind, record("a"))
	r.AddCallback(testKind, func(_ context.Context, _ Event) error { return boom })
	r.AddCallback(testKind, record("never"))

	ev := &testEvent{}
	err := r.Dispatch(context.Background(), ev)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, ev.calls)
}

func TestRegistry_NoCallbacksIsNoOp(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.Dispatch(context.Background(), &testEvent{}))
}

type testProvider struct{}

func (testProvider) RegisterHooks(r *Registry) {
	r.AddCallback(testKind, record("from-provider-1"))
	r.AddCallback(testKind, record("from-provider-2"))
}

func TestRegistry_AddProvider(t *testing.T) {
	r := NewRegistry()
	r.AddProvider(testProvider{})
	assert.Equal(t, 2, r.Len(testKind))

	ev := &testEvent{}
	require.NoError(t, r.Dispatch(context.Background(), ev))
	assert.Equal(t, []string{"from-provider-1", "from-provider-2"}, ev.calls)
}
