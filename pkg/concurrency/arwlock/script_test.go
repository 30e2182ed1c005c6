package arwlock

import (
	"context"
	"testing"
	"testing/quick"
	"time"

	"arwl/pkg/concurrency/ambient"
	"github.com/stretchr/testify/require"
)

// runLockScript replays script, a string over the alphabet R (read), U
// (upgradeable read, plain), S (upgradeable read, sticky), W (write),
// against a single task on a fresh core, one request per character, never
// releasing until the whole script has been attempted. It returns the index
// of the first character that failed to acquire, or -1 if every character
// in script succeeded.
//
// A W with nothing held before it is an ordinary top-level WriteLock and is
// admitted on the idle core. A W/U/S that cannot nest under whatever the
// task already holds (a plain Read, most notably: escalating past one's own
// unreleased Read is invalid, not a queue-and-wait) fails fast with
// ErrInvalidOperation instead of either being wrongly admitted or blocking
// the test forever — see holdsAnythingLocked in core.go.
func runLockScript(t *testing.T, script string) (failedAt int, releasers []*Releaser) {
	t.Helper()
	core := NewLockCore()
	task := ambient.NewTask()
	ctx := context.Background()

	for i, op := range script {
		var (
			r   *Releaser
			err error
		)
		switch op {
		case 'R':
			r, err = core.ReadLock(ctx, task)
		case 'U':
			r, err = core.UpgradeableReadLock(ctx, task, FlagNone)
		case 'S':
			r, err = core.UpgradeableReadLock(ctx, task, StickyWrite)
		case 'W':
			r, err = core.WriteLock(ctx, task)
		default:
			t.Fatalf("unknown script op %q", op)
		}
		if err != nil {
			return i, releasers
		}
		releasers = append(releasers, r)
	}
	return -1, releasers
}

func releaseAll(releasers []*Releaser) {
	for i := len(releasers) - 1; i >= 0; i-- {
		_ = releasers[i].Release()
	}
}

func TestLockScriptEnumeration(t *testing.T) {
	cases := []struct {
		script   string
		failedAt int
	}{
		// A second UpgradeableRead from the same task is always rejected,
		// sticky or not, regardless of what preceded it.
		{"UU", 1},
		{"SS", 1},
		{"US", 1},
		{"SU", 1},

		// A lone top-level W with no UpgradeableRead ancestor held is a
		// perfectly ordinary top-level WriteLock request: with the core
		// otherwise idle it is admitted immediately, same as "R" or "U"
		// alone would be.
		{"W", -1},

		// Read cannot be escalated in place: a task holding only a plain
		// Read has nothing an UpgradeableRead or a Write request can nest
		// under, so both fail fast at the second character rather than
		// either wrongly granting a second, unrelated hold or queuing
		// into a self-deadlock against the still-held Read.
		{"RU", 1},
		{"RS", 1},
		{"RW", 1},

		// A plain U escalates via its first nested W.
		{"UW", -1},

		// A plain U escalates via its first nested W; a second nested W
		// before anything releases is a pure view on the same still-held
		// escalation, same as the sticky case below — the sticky/plain
		// distinction only shows once the last nested W releases: a plain
		// U de-escalates then, a sticky S stays escalated.
		{"UWW", -1},

		// A sticky U stays escalated across every nested W until the U
		// itself releases, so any number of nested Ws in a row succeed.
		{"SWWW", -1},

		// Nested reads under a plain or sticky U never queue, regardless of
		// escalation state.
		{"UR", -1},
		{"SR", -1},

		// A second sequential nested write under the same still-escalated
		// sticky ancestor is its own pure view, adding a participant to
		// the ancestor's outstanding-view countdown rather than
		// re-escalating from scratch.
		{"SWW", -1},
	}

	for _, c := range cases {
		t.Run(c.script, func(t *testing.T) {
			failedAt, releasers := runLockScript(t, c.script)
			defer releaseAll(releasers)
			require.Equal(t, c.failedAt, failedAt, "script %q", c.script)
		})
	}
}

// TestLockScriptNeverPanicsOnRandomInput is a property check over the full
// R/U/S/W alphabet, drawn independently per character: every such script
// either succeeds outright or fails cleanly at some index, and never
// deadlocks the test binary. Earlier revisions of this test deliberately
// restricted the alphabet to dodge a genuine self-deadlock hazard (escalating
// past one's own unreleased nested Read); that hazard is now closed by
// escalateLocked's fail-fast check for active readers that all belong to
// the escalating task (with holdsAnythingLocked covering a W under a plain
// Read in acquireWrite), so the generator no longer needs to avoid it.
func TestLockScriptNeverPanicsOnRandomInput(t *testing.T) {
	alphabet := [4]byte{'R', 'U', 'S', 'W'}

	f := func(seed uint32) bool {
		n := int(seed%8) + 1
		script := make([]byte, n)
		rest := seed
		for i := range script {
			script[i] = alphabet[rest%4]
			rest /= 4
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, releasers := runLockScript(t, string(script))
			releaseAll(releasers)
		}()

		select {
		case <-done:
			return true
		case <-time.After(2 * time.Second):
			t.Logf("script %q did not complete in time", script)
			return false
		}
	}

	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 256}))
}
