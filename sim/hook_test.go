package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookableBase", func() {
	var (
		base *HookableBase
		pos  = &HookPos{Name: "Test"}
	)

	BeforeEach(func() {
		base = NewHookableBase()
	})

	It("should invoke hooks in registration order", func() {
		calls := []string{}
		base.AcceptHook(HookFunc(func(ctx HookCtx) {
			calls = append(calls, "first:"+ctx.Item.(string))
		}))
		base.AcceptHook(HookFunc(func(ctx HookCtx) {
			calls = append(calls, "second:"+ctx.Item.(string))
		}))

		base.InvokeHook(HookCtx{Domain: base, Pos: pos, Item: "x"})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(calls).To(Equal([]string{"first:x", "second:x"}))
	})

	It("should pass the position to the hook", func() {
		var got *HookPos
		base.AcceptHook(HookFunc(func(ctx HookCtx) { got = ctx.Pos }))

		base.InvokeHook(HookCtx{Pos: pos})

		Expect(got).To(BeIdenticalTo(pos))
	})
})

var _ = Describe("AtPos", func() {
	It("should only forward invocations at its position", func() {
		wanted := &HookPos{Name: "Wanted"}
		other := &HookPos{Name: "Other"}
		count := 0

		base := NewHookableBase()
		base.AcceptHook(AtPos(wanted, HookFunc(func(HookCtx) { count++ })))

		base.InvokeHook(HookCtx{Pos: other})
		base.InvokeHook(HookCtx{Pos: wanted})
		base.InvokeHook(HookCtx{Pos: wanted})

		Expect(count).To(Equal(2))
	})
})
