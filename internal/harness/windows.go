// File: internal/harness/windows.go
package harness

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// pageTargets filters a target list down to real tabs/windows, dropping
// service workers, extensions, and other background targets.
func pageTargets(infos []*target.Info) []target.ID {
	ids := make([]target.ID, 0, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			ids = append(ids, info.TargetID)
		}
	}
	return ids
}

// diffTargets returns the IDs present in after but absent from before: a
// pure set difference over two snapshots of the open-handle set.
func diffTargets(before, after []target.ID) []target.ID {
	seen := make(map[target.ID]struct{}, len(before))
	for _, id := range before {
		seen[id] = struct{}{}
	}
	var fresh []target.ID
	for _, id := range after {
		if _, ok := seen[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	return fresh
}

// WithNewWindow runs trigger (an action expected to open a new tab, such as
// a click on an external link), waits for the window to appear, hands its
// context to fn, and unconditionally closes it again. The original tab is
// the active context when this returns, on success and on failure alike.
//
// The new handle is found by set difference between the handle snapshots
// taken before the trigger and after the window count increased.
func (s *Session) WithNewWindow(ctx context.Context, trigger func(ctx context.Context) error, fn func(winCtx context.Context) error) error {
	infos, err := chromedp.Targets(s.ctx)
	if err != nil {
		return fmt.Errorf("snapshotting window handles: %w", err)
	}
	before := pageTargets(infos)

	if err := trigger(ctx); err != nil {
		return fmt.Errorf("new-window trigger failed: %w", err)
	}

	if err := s.WaitFor(ctx, WindowCount(len(before)+1), 0); err != nil {
		// The new window never appeared. Nothing was opened, so nothing to
		// close; the original tab never stopped being the active context.
		return err
	}

	infos, err = chromedp.Targets(s.ctx)
	if err != nil {
		return fmt.Errorf("listing window handles: %w", err)
	}
	fresh := diffTargets(before, pageTargets(infos))
	if len(fresh) == 0 {
		return fmt.Errorf("window count increased but no new handle found")
	}
	newID := fresh[0]

	winCtx, cancelWin := chromedp.NewContext(s.ctx, chromedp.WithTargetID(newID))
	s.logger.Debug("Switched to new window", zap.String("target_id", string(newID)))

	fnErr := fn(winCtx)

	// Close the spawned window and fall back to the original tab whether or
	// not fn succeeded.
	if err := chromedp.Run(winCtx, page.Close()); err != nil {
		s.logger.Warn("Failed to close spawned window", zap.Error(err))
	}
	cancelWin()
	s.logger.Debug("Restored original window")

	return fnErr
}
