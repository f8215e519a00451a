// Package hooking provides the hook points that let observers subscribe to
// what happens inside engines, flows and network substrates.
package hooking

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)
	h.hookList = append(h.hookList, hook)
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	for _, registered := range h.hookList {
		if registered == hook {
			panic("duplicated hook")
		}
	}
}

// InvokeHook triggers the registered hooks in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}

// HookPosFilter is a hook that only forwards the contexts of selected
// positions to the wrapped hook.
type HookPosFilter struct {
	positions []*HookPos
	hook      Hook
}

// NewHookPosFilter creates a filter that forwards to hook only when the hook
// position is one of positions.
func NewHookPosFilter(hook Hook, positions ...*HookPos) *HookPosFilter {
	return &HookPosFilter{
		positions: positions,
		hook:      hook,
	}
}

// Func forwards ctx if its position is accepted.
func (f *HookPosFilter) Func(ctx HookCtx) {
	for _, pos := range f.positions {
		if pos == ctx.Pos {
			f.hook.Func(ctx)
			return
		}
	}
}
