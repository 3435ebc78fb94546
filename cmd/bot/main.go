package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/appheap/tase/internal/bot"
	"github.com/appheap/tase/internal/database"
	"github.com/appheap/tase/internal/scheduler"
	"github.com/appheap/tase/pkg/config"
	"github.com/appheap/tase/pkg/logger"
)

func main() {
	// Load configuration first; the logger mode depends on it.
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting bot...")

	if cfg.BotToken == "" {
		log.Fatal("BOT_TOKEN is required")
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	db := database.New(driver)
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	// Wire the dispatcher. Replies go to stdout for the transport
	// sidecar to deliver.
	dispatcher := bot.NewDispatcher(db)
	handler := bot.NewHandler(db, stdoutReplier{enc: json.NewEncoder(os.Stdout)})
	handler.RegisterAll(dispatcher)

	// Background jobs. Usernames are verified against chats already in
	// the graph; a transport-side resolver can replace this.
	verify := func(ctx context.Context, username string) (bool, error) {
		chat, err := db.Chats.FindOne(ctx, map[string]any{"username": username})
		if err != nil {
			return false, err
		}
		return chat != nil, nil
	}

	sched := scheduler.New()
	sched.Add(scheduler.NewUsernameCheckJob(db, verify, cfg.UsernameCheckInterval))
	sched.Add(scheduler.NewCountRefreshJob(db, cfg.StatusRefreshInterval))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return runUpdateLoop(ctx, dispatcher, log) })

	log.Info("Bot is running. Press CTRL-C to exit.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("Shutting down bot...")
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("Shutdown finished with error", zap.Error(err))
	}
}

// stdoutReplier emits one JSON line per outgoing message.
type stdoutReplier struct {
	enc *json.Encoder
}

func (r stdoutReplier) Reply(_ context.Context, chatID int64, text string) error {
	return r.enc.Encode(map[string]any{"chat_id": chatID, "text": text})
}

// runUpdateLoop consumes already-parsed updates as JSON lines on stdin.
// The Telegram transport runs as a sidecar that decodes the wire protocol
// and emits one bot.Update per line.
func runUpdateLoop(ctx context.Context, d *bot.Dispatcher, log *zap.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		u := &bot.Update{}
		if err := json.Unmarshal(line, u); err != nil {
			log.Warn("dropping malformed update", zap.Error(err))
			continue
		}
		if u.Command == bot.CommandNone && u.Text != "" {
			u.Command, u.Args = bot.ParseCommand(u.Text)
		}
		if u.ReceivedAt == 0 {
			u.ReceivedAt = time.Now().Unix()
		}
		_ = d.Dispatch(ctx, u)
	}
	return scanner.Err()
}
