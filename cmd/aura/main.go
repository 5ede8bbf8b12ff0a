package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"aura/config"
	"aura/internal/cache"
	"aura/internal/client"
	"aura/internal/state"
)

// app bundles what every subcommand works with.
type app struct {
	cfg    *config.ClientConfig
	api    *client.Client
	store  *state.Store
	local  *cache.Local
	out    io.Writer
	logger *log.Logger
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"register":      {"register <email> <username> <password>", runRegister},
	"login":         {"login <email|username> <password>", runLogin},
	"logout":        {"logout", runLogout},
	"me":            {"me", runMe},
	"feed":          {"feed [-filter all|mine|acquaintances|boosted|reacted] [-page n]", runFeed},
	"post":          {"post <content> | post -show <id>", runPost},
	"react":         {"react <post-id> <emoji>", runReact},
	"comment":       {"comment [-reply comment-id] <post-id> <content>", runComment},
	"boost":         {"boost <post-id> <credits>", runBoost},
	"send":          {"send <user-id> <content>", runSend},
	"thread":        {"thread <user-id>", runThread},
	"conversations": {"conversations", runConversations},
	"notifications": {"notifications [-read]", runNotifications},
	"credits":       {"credits", runCredits},
	"buy":           {"buy <package-id>", runBuy},
	"privacy":       {"privacy [-visibility v] [-messages m] [-searchable=bool] [-show-trust=bool] [-show-acquaintances=bool]", runPrivacy},
	"block":         {"block <user-id>", runBlock},
	"unblock":       {"unblock <user-id>", runUnblock},
	"ads":           {"ads [-mine] [-react ad-id -emoji e] [-click ad-id] [-pause ad-id] [-resume ad-id]", runAds},
	"ad-create":     {"ad-create -title t -content c [-link url] -budget n", runAdCreate},
	"acquaint":      {"acquaint [-remove] [<user-id>]", runAcquaint},
	"watch":         {"watch [-peer user-id]", runWatch},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: aura [-server url] [-cache path] <command> [args]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(os.Stderr, "  "+commands[name].usage)
	}
}

func main() {
	cfg := config.LoadClientConfig()
	serverFlag := flag.String("server", "", "Override server base URL (default $AURA_SERVER)")
	cacheFlag := flag.String("cache", "", "Override local cache file (default $AURA_CACHE)")
	flag.Usage = usage
	flag.Parse()
	if *serverFlag != "" {
		cfg.ServerURL = strings.TrimRight(*serverFlag, "/")
	}
	if *cacheFlag != "" {
		cfg.CachePath = *cacheFlag
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Println("Unknown command:", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer a.local.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, a, flag.Args()[1:]); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Printf("Error: %s (HTTP %d)\n", apiErr.Message, apiErr.Status)
		} else {
			fmt.Println("Error:", err)
		}
		a.local.Close()
		os.Exit(1)
	}
}

func newApp(cfg *config.ClientConfig) (*app, error) {
	local, err := cache.OpenLocal(cfg.CachePath)
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stderr, "aura: ", log.LstdFlags)
	api := client.New(cfg.ServerURL, nil)
	if token, err := local.Get(state.TokenKey); err == nil {
		api.SetToken(token)
	}

	store := state.New(api, cache.NewSession(), local, logger)
	store.Alert = func(msg string) { fmt.Fprintln(os.Stderr, "!", msg) }

	return &app{cfg: cfg, api: api, store: store, local: local, out: os.Stdout, logger: logger}, nil
}

// session restores the cached state of the logged in user and refreshes
// the user from the server.
func (a *app) session(ctx context.Context) error {
	if a.api.Token() == "" {
		return errors.New("not logged in, run: aura login <email|username> <password>")
	}
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	if _, err := a.store.Restore(u.ID); err != nil {
		a.logger.Printf("WARNING: ignoring cached state: %v", err)
	}
	a.store.SetUser(u)
	return nil
}

// save persists the store, logging instead of failing the command.
func (a *app) save() {
	if err := a.store.Save(); err != nil {
		a.logger.Printf("WARNING: failed to cache state: %v", err)
	}
}
