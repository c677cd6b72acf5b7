package fsmkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookLog struct {
	HasKey bool
	Calls  []string
}

type hookHandle = Handle[string, string]

func logCall(name string) Action[string, string, hookLog] {
	return func(ctx *hookLog, trigger string, h hookHandle) {
		ctx.Calls = append(ctx.Calls, name+":"+trigger+"@"+h.CurrentState())
	}
}

func newHookedDoor() *WhenBuilder[string, string, hookLog] {
	return NewWhenBuilder[string, string, hookLog]().
		AddTransition("open", "closed", "open", WithAction(logCall("action"))).
		AddTransition("close", "open", "closed").
		AddTransition("lock", "closed", "locked").
		AddTransition("open", "locked", "open", WithGuard(func(ctx *hookLog, _ string, _ hookHandle) bool {
			return ctx.HasKey
		})).
		OnTrigger("open", logCall("trigger1")).
		OnTrigger("open", logCall("trigger2")).
		OnEnter("open", logCall("enter1")).
		OnEnter("open", logCall("enter2"))
}

func TestWhenMachine_HookOrderOnSuccess(t *testing.T) {
	m, err := newHookedDoor().BuildWhenNew("closed")
	require.NoError(t, err)

	assert.Equal(t, Success, m.Fire("open"))
	assert.Equal(t, []string{
		"trigger1:open@closed",
		"trigger2:open@closed",
		"action:open@open",
		"enter1:open@open",
		"enter2:open@open",
	}, m.Context().Calls)
}

func TestWhenMachine_TriggerHooksRunOnFailure(t *testing.T) {
	m, err := newHookedDoor().BuildWhen(&hookLog{HasKey: false}, "locked")
	require.NoError(t, err)

	assert.Equal(t, ConditionNotMet, m.Fire("open"))
	assert.Equal(t, "locked", m.CurrentState())
	assert.Equal(t, []string{"trigger1:open@locked", "trigger2:open@locked"}, m.Context().Calls)

	m.Context().Calls = nil
	m2, err := newHookedDoor().BuildWhenNew("open")
	require.NoError(t, err)
	assert.Equal(t, InvalidTransition, m2.Fire("open"))
	assert.Equal(t, []string{"trigger1:open@open", "trigger2:open@open"}, m2.Context().Calls)
}

func TestWhenMachine_EnterHooksOncePerTransition(t *testing.T) {
	m, err := newHookedDoor().BuildWhen(&hookLog{HasKey: true}, "closed")
	require.NoError(t, err)

	m.Fire("open")
	m.Fire("close")
	m.Fire("lock")
	m.Fire("open")

	enters := 0
	for _, call := range m.Context().Calls {
		if call == "enter1:open@open" {
			enters++
		}
	}
	assert.Equal(t, 2, enters)
}

func TestWhenMachine_ReentrantFireRunsHooks(t *testing.T) {
	m, err := NewWhenBuilder[string, string, hookLog]().
		AddTransition("Init", "Off", "Initing", WithAction(func(_ *hookLog, _ string, h hookHandle) {
			h.Fire("Inited")
		})).
		AddTransition("Inited", "Initing", "Available").
		OnTrigger("Inited", logCall("before")).
		OnEnter("Initing", logCall("entered")).
		OnEnter("Available", logCall("entered")).
		BuildWhenNew("Off")
	require.NoError(t, err)

	assert.Equal(t, Success, m.Fire("Init"))
	assert.Equal(t, "Available", m.CurrentState())
	// Enter hooks run for the state each transition entered, innermost first.
	assert.Equal(t, []string{
		"before:Inited@Initing",
		"entered:Inited@Available",
		"entered:Init@Available",
	}, m.Context().Calls)
}

func TestWhenMachine_BuildWhenNilContext(t *testing.T) {
	_, err := newHookedDoor().BuildWhen(nil, "closed")
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.True(t, valErr.HasCode(ErrCodeNilContext))

	assert.Panics(t, func() { newHookedDoor().MustBuildWhen(nil, "closed") })
}

func TestWhenMachine_ConstructorRejectsMissingTables(t *testing.T) {
	_, err := newWhenMachine[string, string, hookLog](nil, nil, &hookLog{}, "a", nil)
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.True(t, valErr.HasCode(ErrCodeNilTable))
	assert.True(t, valErr.HasCode(ErrCodeNilHooks))
	assert.False(t, valErr.HasCode(ErrCodeNilContext))
}

func TestWhenBuilder_PlainBuildIgnoresHooks(t *testing.T) {
	b := newHookedDoor()
	m := b.BuildNew("closed")

	assert.Equal(t, Success, m.Fire("open"))
	assert.Equal(t, []string{"action:open@open"}, m.Context().Calls)
}

func TestWhenBuilder_HooksFrozenAtBuild(t *testing.T) {
	b := newHookedDoor()
	first, err := b.BuildWhenNew("closed")
	require.NoError(t, err)

	b.OnEnter("open", logCall("late"))
	second, err := b.BuildWhenNew("closed")
	require.NoError(t, err)

	first.Fire("open")
	second.Fire("open")

	assert.NotContains(t, first.Context().Calls, "late:open@open")
	assert.Contains(t, second.Context().Calls, "late:open@open")
}

func TestWhenBuilder_Validate(t *testing.T) {
	assert.NoError(t, newHookedDoor().Validate())

	err := newHookedDoor().
		OnEnter("nowhere", logCall("x")).
		OnTrigger("open", nil).
		Validate()
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.True(t, valErr.HasCode(ErrCodeUnknownHookState))
	assert.True(t, valErr.HasCode(ErrCodeNilHook))
}

func TestWhenMachine_NilHookIsSkipped(t *testing.T) {
	m, err := NewWhenBuilder[string, string, hookLog]().
		AddTransition("go", "a", "b").
		OnTrigger("go", nil).
		OnEnter("b", nil).
		BuildWhenNew("a")
	require.NoError(t, err)

	assert.NotPanics(t, func() { m.Fire("go") })
	assert.Equal(t, "b", m.CurrentState())
}

func TestWhenMachine_MaxDepthCountsHookFrames(t *testing.T) {
	m, err := NewWhenBuilder[string, string, hookLog]().
		AddTransition("go", "a", "a").
		OnTrigger("go", func(_ *hookLog, trigger string, h hookHandle) {
			h.Fire(trigger)
		}).
		BuildWhenNew("a", WithMaxDepth(4))
	require.NoError(t, err)

	assert.PanicsWithError(t, `fsmkit: fire depth 5 exceeded while firing go`, func() { m.Fire("go") })
}

func TestWhenMachine_Observer(t *testing.T) {
	m, err := newHookedDoor().BuildWhenNew("closed", WithName("door"))
	require.NoError(t, err)

	var results []Result
	m.AddObserver(ObserverFunc[string, string](func(e FireEvent[string, string]) {
		results = append(results, e.Result)
	}))

	m.Fire("open")
	m.Fire("lock")
	assert.Equal(t, []Result{Success, InvalidTransition}, results)
}
