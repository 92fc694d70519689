// Package vgjs ties core.Pool (the scheduler) and coro (the coroutine
// await protocol) together behind the surface an application actually
// imports. See package core for the queue/job/pool machinery and package
// coro for Promise[T]/Coro[T]/Ctx[T].
package vgjs
