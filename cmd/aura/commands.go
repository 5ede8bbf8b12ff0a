package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"aura/internal/models"
	"aura/internal/state"
)

func parseID(raw, name string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func needArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: aura %s", usage)
	}
	return nil
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runRegister(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 3, "register <email> <username> <password>"); err != nil {
		return err
	}
	u, err := a.api.Register(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (id %d) with %d Aura Credits. Log in with: aura login %s <password>\n",
		u.Username, u.ID, u.Credits, u.Username)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 2, "login <email|username> <password>"); err != nil {
		return err
	}
	res, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.local.Set(state.TokenKey, res.Token); err != nil {
		return err
	}
	if _, err := a.store.Restore(res.User.ID); err != nil {
		a.logger.Printf("WARNING: ignoring cached state: %v", err)
	}
	a.store.SetUser(&res.User)
	a.save()
	fmt.Fprintf(a.out, "Logged in as %s. Session valid until %s.\n", res.User.Username, res.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	if err := a.store.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func runMe(ctx context.Context, a *app, args []string) error {
	if err := a.session(ctx); err != nil {
		return err
	}
	u := a.store.User()
	fmt.Fprintf(a.out, "%s (@%s, id %d)\n", displayName(*u), u.Username, u.ID)
	fmt.Fprintf(a.out, "Credits: %d  Trust: %d\n", u.Credits, u.TrustScore)
	if u.Bio != "" {
		fmt.Fprintln(a.out, u.Bio)
	}
	a.save()
	return nil
}

func runFeed(ctx context.Context, a *app, args []string) error {
	fs := newFlags("feed")
	filter := fs.String("filter", "all", "")
	page := fs.Int("page", 1, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	fp, err := a.store.LoadFeed(ctx, *filter, *page)
	if err != nil {
		return err
	}
	for _, p := range fp.Posts {
		printPost(a.out, p)
	}
	fmt.Fprintf(a.out, "Page %d of %d\n", fp.Page, fp.TotalPages)
	a.save()
	return nil
}

func runPost(ctx context.Context, a *app, args []string) error {
	fs := newFlags("post")
	show := fs.Int("show", 0, "")
	media := fs.String("media", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}

	if *show > 0 {
		p, err := a.store.LoadPost(ctx, *show)
		if err != nil {
			return err
		}
		printPost(a.out, *p)
		printComments(a.out, p.Comments, 1)
		a.save()
		return nil
	}

	if err := needArgs(fs.Args(), 1, "post <content>"); err != nil {
		return err
	}
	p, err := a.api.CreatePost(ctx, strings.Join(fs.Args(), " "), *media)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Posted #%d\n", p.ID)
	return nil
}

func runReact(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 2, "react <post-id> <emoji>"); err != nil {
		return err
	}
	id, err := parseID(args[0], "post id")
	if err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	if a.store.Post(id) == nil {
		if _, err := a.store.LoadPost(ctx, id); err != nil {
			return err
		}
	}
	if err := a.store.ToggleReaction(ctx, id, args[1]); err != nil {
		return err
	}
	printPost(a.out, *a.store.Post(id))
	a.save()
	return nil
}

func runComment(ctx context.Context, a *app, args []string) error {
	fs := newFlags("comment")
	reply := fs.Int("reply", 0, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs.Args(), 2, "comment [-reply comment-id] <post-id> <content>"); err != nil {
		return err
	}
	postID, err := parseID(fs.Arg(0), "post id")
	if err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	if _, err := a.store.LoadPost(ctx, postID); err != nil {
		return err
	}

	var parentID *int
	if *reply > 0 {
		parentID = reply
	}
	c, err := a.store.AddComment(ctx, postID, parentID, strings.Join(fs.Args()[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Commented #%d on post #%d\n", c.ID, postID)
	a.save()
	return nil
}

func runBoost(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 2, "boost <post-id> <credits>"); err != nil {
		return err
	}
	postID, err := parseID(args[0], "post id")
	if err != nil {
		return err
	}
	credits, err := parseID(args[1], "credit amount")
	if err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	if a.store.Post(postID) == nil {
		if _, err := a.store.LoadPost(ctx, postID); err != nil {
			return err
		}
	}
	receipt, err := a.store.BoostPost(ctx, postID, credits)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Post #%d now has %d radiance, boosted until %s. Balance: %d\n",
		receipt.PostID, receipt.Radiance, receipt.BoostedUntil.Local().Format(time.Kitchen), receipt.Balance)
	a.save()
	return nil
}

func runSend(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 2, "send <user-id> <content>"); err != nil {
		return err
	}
	peerID, err := parseID(args[0], "user id")
	if err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	m, err := a.store.SendMessage(ctx, peerID, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Sent #%d\n", m.ID)
	a.save()
	return nil
}

func runThread(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 1, "thread <user-id>"); err != nil {
		return err
	}
	peerID, err := parseID(args[0], "user id")
	if err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	msgs, err := a.api.Thread(ctx, peerID, 0)
	if err != nil {
		return err
	}
	a.store.MergeMessages(peerID, msgs)
	me := a.store.User().ID
	for _, m := range a.store.Messages(peerID) {
		printMessage(a.out, m, me)
	}
	a.save()
	return nil
}

func runConversations(ctx context.Context, a *app, args []string) error {
	if err := a.session(ctx); err != nil {
		return err
	}
	convs, err := a.api.Conversations(ctx)
	if err != nil {
		return err
	}
	a.store.MergeConversations(convs)
	if len(convs) == 0 {
		fmt.Fprintln(a.out, "No conversations yet.")
	}
	for _, c := range convs {
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", c.UnreadCount)
		}
		fmt.Fprintf(a.out, "%s [id %d]%s: %s\n", displayName(c.Peer), c.Peer.ID, unread, c.LastMessage.Content)
	}
	a.save()
	return nil
}

func runNotifications(ctx context.Context, a *app, args []string) error {
	fs := newFlags("notifications")
	markRead := fs.Bool("read", false, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	notes, err := a.api.Notifications(ctx)
	if err != nil {
		return err
	}
	a.store.MergeNotifications(notes)
	for _, n := range notes {
		printNotification(a.out, n)
	}
	if *markRead {
		if err := a.api.MarkAllNotificationsRead(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "All notifications marked read.")
	}
	a.save()
	return nil
}

func runCredits(ctx context.Context, a *app, args []string) error {
	if err := a.session(ctx); err != nil {
		return err
	}
	summary, err := a.api.Credits(ctx)
	if err != nil {
		return err
	}
	pkgs, err := a.api.CreditPackages(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Balance: %d Aura Credits\n", summary.Balance)
	for _, t := range summary.Transactions {
		fmt.Fprintf(a.out, "  %s %+d %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"), t.Amount, t.Kind)
	}
	fmt.Fprintln(a.out, "Packages:")
	for _, p := range pkgs {
		fmt.Fprintf(a.out, "  %-8s %5d credits  $%d.%02d\n", p.ID, p.Credits, p.PriceCents/100, p.PriceCents%100)
	}
	return nil
}

func runBuy(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 1, "buy <package-id>"); err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	balance, err := a.api.PurchaseCredits(ctx, args[0])
	if err != nil {
		return err
	}
	u := a.store.User()
	u.Credits = balance
	a.store.SetUser(u)
	a.save()
	fmt.Fprintf(a.out, "Balance: %d Aura Credits\n", balance)
	return nil
}

func runPrivacy(ctx context.Context, a *app, args []string) error {
	if err := a.session(ctx); err != nil {
		return err
	}
	current, err := a.api.PrivacySettings(ctx)
	if err != nil {
		return err
	}

	fs := newFlags("privacy")
	visibility := fs.String("visibility", current.ProfileVisibility, "")
	messages := fs.String("messages", current.MessagePermission, "")
	searchable := fs.Bool("searchable", current.Searchable, "")
	showTrust := fs.Bool("show-trust", current.ShowTrustScore, "")
	showAcq := fs.Bool("show-acquaintances", current.ShowAcquaintances, "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NFlag() > 0 {
		next := models.PrivacySettings{
			ProfileVisibility: *visibility,
			MessagePermission: *messages,
			Searchable:        *searchable,
			ShowTrustScore:    *showTrust,
			ShowAcquaintances: *showAcq,
		}
		if err := a.api.UpdatePrivacySettings(ctx, next); err != nil {
			return err
		}
		current = &next
	}
	fmt.Fprintf(a.out, "Profile visible to: %s\nMessages from: %s\nSearchable: %t\nShow trust score: %t\nShow acquaintances: %t\n",
		current.ProfileVisibility, current.MessagePermission, current.Searchable, current.ShowTrustScore, current.ShowAcquaintances)
	return nil
}

func runBlock(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 1, "block <user-id>"); err != nil {
		return err
	}
	id, err := parseID(args[0], "user id")
	if err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	if err := a.api.Block(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Blocked user %d\n", id)
	return nil
}

func runUnblock(ctx context.Context, a *app, args []string) error {
	if err := needArgs(args, 1, "unblock <user-id>"); err != nil {
		return err
	}
	id, err := parseID(args[0], "user id")
	if err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	if err := a.api.Unblock(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Unblocked user %d\n", id)
	return nil
}

func runAds(ctx context.Context, a *app, args []string) error {
	fs := newFlags("ads")
	mine := fs.Bool("mine", false, "")
	react := fs.Int("react", 0, "")
	emoji := fs.String("emoji", "", "")
	click := fs.Int("click", 0, "")
	pause := fs.Int("pause", 0, "")
	resume := fs.Int("resume", 0, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}

	switch {
	case *mine:
		ads, err := a.api.MyAds(ctx)
		if err != nil {
			return err
		}
		for _, ad := range ads {
			fmt.Fprintf(a.out, "#%d %s [%s] budget %d, %d impressions, %d clicks\n",
				ad.ID, ad.Title, ad.Status, ad.Budget, ad.Impressions, ad.Clicks)
		}
		return nil
	case *pause > 0 || *resume > 0:
		id, status := *pause, models.AdPaused
		if *resume > 0 {
			id, status = *resume, models.AdActive
		}
		ad, err := a.api.SetAdStatus(ctx, id, status)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Ad #%d is now %s\n", ad.ID, ad.Status)
		return nil
	case *click > 0:
		ad, err := a.api.AdClick(ctx, *click)
		if err != nil {
			return err
		}
		if ad.LinkURL != "" {
			fmt.Fprintln(a.out, ad.LinkURL)
		}
		return nil
	}

	ads, err := a.store.LoadAds(ctx)
	if err != nil {
		return err
	}
	if *react > 0 {
		if err := a.store.ToggleAdReaction(ctx, *react, *emoji); err != nil {
			return err
		}
		ads = a.store.Ads()
	}
	if len(ads) == 0 {
		fmt.Fprintln(a.out, "No sponsored posts right now.")
	}
	for _, ad := range ads {
		fmt.Fprintf(a.out, "[sponsored #%d] %s by %s\n  %s\n  %s\n", ad.ID, ad.Title, ad.Owner, ad.Content, formatReactions(ad.Reactions, ad.UserReactions))
	}
	a.save()
	return nil
}

func runAdCreate(ctx context.Context, a *app, args []string) error {
	fs := newFlags("ad-create")
	title := fs.String("title", "", "")
	content := fs.String("content", "", "")
	link := fs.String("link", "", "")
	budget := fs.Int("budget", 0, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" || *content == "" || *budget <= 0 {
		return fmt.Errorf("usage: aura ad-create -title t -content c [-link url] -budget n")
	}
	if err := a.session(ctx); err != nil {
		return err
	}
	ad, err := a.api.CreateAd(ctx, *title, *content, *link, *budget)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created ad #%d funded with %d credits\n", ad.ID, ad.Budget)
	return nil
}

func runAcquaint(ctx context.Context, a *app, args []string) error {
	fs := newFlags("acquaint")
	remove := fs.Bool("remove", false, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.session(ctx); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		acq, err := a.api.Acquaintances(ctx)
		if err != nil {
			return err
		}
		printUsers(a.out, "Acquaintances", acq.Acquaintances)
		printUsers(a.out, "Requests for you", acq.Incoming)
		printUsers(a.out, "Requests you sent", acq.Outgoing)
		return nil
	}

	id, err := parseID(fs.Arg(0), "user id")
	if err != nil {
		return err
	}
	if *remove {
		if err := a.api.RemoveAcquaintance(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Removed user %d\n", id)
		return nil
	}
	rel, err := a.api.RequestAcquaintance(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Relationship with user %d: %s\n", id, rel)
	return nil
}
