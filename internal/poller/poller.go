package poller

import (
	"context"
	"log"
	"time"

	"aura/config"
	"aura/internal/models"

	"golang.org/x/sync/errgroup"
)

// Source fetches the server state that is refreshed periodically.
type Source interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
	Thread(ctx context.Context, peerID, afterID int) ([]models.Message, error)
	ReactionStates(ctx context.Context, ids []int) ([]models.ReactionState, error)
	Notifications(ctx context.Context) ([]models.Notification, error)
}

// Store receives the polled state.
type Store interface {
	ActivePeer() int
	PostIDs() []int
	MergeConversations(convs []models.Conversation)
	MergeMessages(peerID int, msgs []models.Message) []models.Message
	MergeReactions(states []models.ReactionState)
	MergeNotifications(notes []models.Notification) []models.Notification
}

// Intervals sets how often each refresh runs. Zero disables a refresh.
type Intervals struct {
	Conversations time.Duration
	Messages      time.Duration
	Reactions     time.Duration
	Notifications time.Duration
}

// IntervalsFrom reads the poll intervals of a client configuration.
func IntervalsFrom(cfg *config.ClientConfig) Intervals {
	return Intervals{
		Conversations: cfg.ConversationsInterval,
		Messages:      cfg.MessagesInterval,
		Reactions:     cfg.ReactionsInterval,
		Notifications: cfg.NotificationsInterval,
	}
}

// Poller runs the periodic refreshes.
type Poller struct {
	src       Source
	store     Store
	intervals Intervals
	logger    *log.Logger

	// OnMessages and OnNotifications, when set, receive newly seen entries.
	OnMessages      func(peerID int, msgs []models.Message)
	OnNotifications func(notes []models.Notification)
}

func New(src Source, store Store, intervals Intervals, logger *log.Logger) *Poller {
	return &Poller{src: src, store: store, intervals: intervals, logger: logger}
}

// Run polls until ctx is cancelled. Each refresh has its own ticker; a failed
// tick is logged and the next tick tries again.
func (p *Poller) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	p.every(ctx, g, "conversations", p.intervals.Conversations, p.pollConversations)
	p.every(ctx, g, "messages", p.intervals.Messages, p.pollMessages)
	p.every(ctx, g, "reactions", p.intervals.Reactions, p.pollReactions)
	p.every(ctx, g, "notifications", p.intervals.Notifications, p.pollNotifications)
	return g.Wait()
}

func (p *Poller) every(ctx context.Context, g *errgroup.Group, name string, d time.Duration, tick func(context.Context) error) {
	if d <= 0 {
		return
	}
	g.Go(func() error {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				if err := tick(ctx); err != nil && ctx.Err() == nil {
					p.logger.Printf("WARNING: %s poll failed: %v", name, err)
				}
			}
		}
	})
}

func (p *Poller) pollConversations(ctx context.Context) error {
	convs, err := p.src.Conversations(ctx)
	if err != nil {
		return err
	}
	p.store.MergeConversations(convs)
	return nil
}

func (p *Poller) pollMessages(ctx context.Context) error {
	peer := p.store.ActivePeer()
	if peer == 0 {
		return nil
	}
	msgs, err := p.src.Thread(ctx, peer, 0)
	if err != nil {
		return err
	}
	if fresh := p.store.MergeMessages(peer, msgs); len(fresh) > 0 && p.OnMessages != nil {
		p.OnMessages(peer, fresh)
	}
	return nil
}

func (p *Poller) pollReactions(ctx context.Context) error {
	ids := p.store.PostIDs()
	if len(ids) == 0 {
		return nil
	}
	states, err := p.src.ReactionStates(ctx, ids)
	if err != nil {
		return err
	}
	p.store.MergeReactions(states)
	return nil
}

func (p *Poller) pollNotifications(ctx context.Context) error {
	notes, err := p.src.Notifications(ctx)
	if err != nil {
		return err
	}
	if fresh := p.store.MergeNotifications(notes); len(fresh) > 0 && p.OnNotifications != nil {
		p.OnNotifications(fresh)
	}
	return nil
}
