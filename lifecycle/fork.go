package lifecycle

import (
	"context"

	"ssw-corelog/config"
	"ssw-corelog/corelogerr"
	"ssw-corelog/forklock"
)

// NewForkCoordinator builds a forklock.Coordinator whose three hooks
// implement spec.md §4.7's pre-fork/parent-post-fork/child-post-fork
// sequence against this Controller. opts is reused to re-init the
// parent once the fork returns (spec.md: "parent-post-fork: ... run
// init").
func (c *Controller) NewForkCoordinator(opts config.Resolved) *forklock.Coordinator {
	return forklock.NewCoordinator(forklock.Hooks{
		PreFork:        c.preFork,
		PostForkParent: func() error { return c.postForkParent(opts) },
		PostForkChild:  c.postForkChild,
	})
}

// preFork implements spec.md §4.7's pre-fork step. Forking out of
// INITIALIZING or FINALIZING is undefined and made an explicit abort
// (DESIGN.md Open Question 3); INITIALIZED runs a full finalize before
// publishing FORKED; UNSET/FINALIZED are no-ops.
func (c *Controller) preFork() error {
	c.mu.Lock()
	state := c.state
	if state == Initializing || state == Finalizing {
		c.state = Illegal
		c.mu.Unlock()
		return corelogerr.New(corelogerr.CodeIllegalState, "lifecycle", "pre-fork",
			"forking from INITIALIZING or FINALIZING is undefined")
	}
	if state == Unset || state == Finalized {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.Finalize(context.Background()); err != nil {
		return err
	}

	c.mu.Lock()
	c.state = Forked
	c.mu.Unlock()
	return nil
}

// postForkParent implements spec.md §4.7's parent-post-fork step: from
// FORKED, publish FINALIZED, then run init and publish INITIALIZED.
func (c *Controller) postForkParent(opts config.Resolved) error {
	c.mu.Lock()
	if c.state != Forked {
		c.mu.Unlock()
		return nil
	}
	c.state = Finalized
	c.mu.Unlock()

	return c.Init(context.Background(), opts)
}

// postForkChild implements spec.md §4.7's child-post-fork step: from
// FORKED, free inherited state and publish FINALIZED. The child must
// call Init explicitly afterward if it wants to log.
func (c *Controller) postForkChild() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Forked {
		return nil
	}
	c.data = nil
	c.control = nil
	c.sinkW = nil
	c.sigCh = nil
	c.watcher = nil
	c.handlerDone = nil
	c.cancel = nil
	c.state = Finalized
	return nil
}
