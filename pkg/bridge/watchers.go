package bridge

import (
	"context"
	"time"

	"github.com/lyrisync/lyrisync/pkg/openlp"
	"github.com/lyrisync/lyrisync/pkg/vmix"
)

// Run starts the OpenLP listeners and the watchers, applies the always-on
// overlay once, then blocks until ctx is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	for _, bundle := range b.bundles {
		if bundle.Listener == nil {
			continue
		}
		bundle.Listener.OnSlide = func(s openlp.Slide) { b.HandleSlide(ctx, s) }
		go bundle.Listener.Run(ctx)
		b.log.WithField("url", bundle.Listener.URL).Info("listening for openlp slides")
	}

	if b.cfg.Settings.OverlayAlwaysOn {
		if err := b.overlay(ctx, vmix.OverlayOn); err != nil {
			b.log.WithError(err).Warn("failed to force overlay on")
		}
	}

	go b.runIdleWatcher(ctx)
	go b.runHealthWatcher(ctx)
	go b.runStatusPoller(ctx)

	<-ctx.Done()
	for _, bundle := range b.bundles {
		bundle.VMix.Close()
	}
	return nil
}

// runIdleWatcher clears the output once the lyrics have been idle for
// auto_clear_idle_sec. Zero disables the auto-clear.
func (b *Bridge) runIdleWatcher(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		idle := time.Duration(b.cfg.Settings.AutoClearIdleSec) * time.Second
		if idle <= 0 {
			continue
		}
		b.mu.Lock()
		stamp := b.lastLyricsAt
		b.mu.Unlock()
		if stamp.IsZero() || time.Since(stamp) < idle {
			continue
		}

		b.log.Info("auto-clearing idle lyrics")
		if err := b.ClearLyrics(ctx); err != nil {
			b.log.WithError(err).Warn("idle clear failed")
		}
		b.mu.Lock()
		b.lastLyricsAt = time.Time{}
		b.mu.Unlock()
	}
}

// runHealthWatcher counts connected OpenLP listeners into the state and
// probes the first vMix for reachability.
func (b *Bridge) runHealthWatcher(ctx context.Context) {
	ticker := time.NewTicker(b.pollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ok := 0
		for _, bundle := range b.bundles {
			if bundle.Listener != nil && bundle.Listener.Connected() {
				ok++
			}
		}
		b.mu.Lock()
		b.state.ConnectionsOK = ok
		b.mu.Unlock()

		if len(b.bundles) > 0 {
			if _, err := b.bundles[0].VMix.Status(ctx); err != nil && ctx.Err() == nil {
				b.log.WithError(err).Debug("vmix unreachable")
			}
		}
	}
}

// runStatusPoller mirrors recording and overlay state from the first vMix.
func (b *Bridge) runStatusPoller(ctx context.Context) {
	ticker := time.NewTicker(b.pollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if len(b.bundles) == 0 {
			continue
		}
		status, err := b.bundles[0].VMix.Status(ctx)
		if err != nil {
			continue
		}
		b.mu.Lock()
		b.state.Recording = status.Recording
		b.state.OverlayOn = status.OverlayActive(b.cfg.Settings.OverlayChannel)
		b.mu.Unlock()
	}
}

func (b *Bridge) pollInterval() time.Duration {
	return time.Duration(max(b.cfg.Settings.PollIntervalSec, 1)) * time.Second
}
