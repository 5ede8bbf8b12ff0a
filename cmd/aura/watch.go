package main

import (
	"context"
	"fmt"
	"time"

	"aura/internal/models"
	"aura/internal/poller"

	"golang.org/x/sync/errgroup"
)

// runWatch keeps polling and streams live analytics until interrupted.
func runWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlags("watch")
	peer := fs.Int("peer", 0, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	if *peer > 0 {
		a.store.OpenConversation(*peer)
	}
	if _, err := a.store.LoadFeed(ctx, "", 1); err != nil {
		return err
	}
	me := a.store.User().ID

	p := poller.New(a.api, a.store, poller.IntervalsFrom(a.cfg), a.logger)
	p.OnMessages = func(peerID int, msgs []models.Message) {
		for _, m := range msgs {
			printMessage(a.out, m, me)
		}
	}
	p.OnNotifications = func(notes []models.Notification) {
		for _, n := range notes {
			if !n.IsRead {
				printNotification(a.out, n)
			}
		}
	}

	fmt.Fprintln(a.out, "Watching. Press Ctrl+C to stop.")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(ctx) })
	g.Go(func() error { return streamAnalytics(ctx, a) })
	err := g.Wait()
	a.save()
	return err
}

// streamAnalytics prints live engagement events and reconnects after a drop.
func streamAnalytics(ctx context.Context, a *app) error {
	for {
		err := a.api.StreamAnalytics(ctx, func(ev models.AnalyticsEvent) {
			printEvent(a.out, ev)
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			a.logger.Printf("WARNING: analytics stream: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
}
