// Package arwlock implements an asynchronous, cancellable reader/writer
// lock with an upgradeable-read kind, built around a single private mutex
// and one FIFO wait queue per request kind.
//
// The closest real-world analog is classic two-phase locking's shared/
// exclusive lock table — readers coexist, writers are exclusive, requests
// queue and are granted in arrival order — but arwlock deliberately omits
// 2PL's deadlock detection: it is cooperative rather than transactional,
// and a caller that needs to bound wait time passes a context with a
// deadline instead of relying on cycle detection to break a stall.
//
// Every suspension point is a channel receive, never a blocked OS thread,
// and the core mutex is held only across bookkeeping. An admitted waiter
// is woken by closing its admission channel while the mutex is still held,
// which runs no caller code; the optional event hook (WithEventHook) is
// also called with the mutex held for admission, queueing and release
// events. Release callbacks registered with OnBeforeWriteLockReleased
// always run with the mutex released, so a callback may reenter the lock.
package arwlock
