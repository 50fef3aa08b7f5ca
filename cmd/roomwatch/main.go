package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/iamwsll/poker-score-release/internal/api"
	"github.com/iamwsll/poker-score-release/internal/config"
	"github.com/iamwsll/poker-score-release/internal/room"
	"github.com/iamwsll/poker-score-release/internal/session"
	"github.com/iamwsll/poker-score-release/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Printfln("failed to load config: %v", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		pterm.Error.Println("usage: roomwatch <room_id>")
		os.Exit(1)
	}
	roomID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		pterm.Error.Printfln("invalid room id %q", os.Args[1])
		os.Exit(1)
	}

	if cfg.SessionID == "" {
		pterm.Error.Println("SESSION_ID is required")
		os.Exit(1)
	}
	identity, err := session.Identity(cfg.SessionID)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot determine acting user")
	}
	logger.Info().Int64("user_id", identity.UserID).Str("nickname", identity.Nickname).Msg("acting as")

	store := room.NewStore(identity.UserID, logger)
	manager := stream.NewManager(cfg.BackendOrigin, cfg.SessionID, store.Apply, logger)
	store.BindConnection(manager)

	// Seed the store over HTTP before the stream opens. This is the
	// optimistic-write path: it goes through the same store primitives the
	// projector uses, so the first few duplicated stream events are no-ops.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	client := api.NewClient(cfg.BackendOrigin, cfg.SessionID)
	snap, err := client.GetRoomInfo(ctx, roomID)
	if err != nil {
		cancel()
		logger.Fatal().Err(err).Int64("room_id", roomID).Msg("failed to fetch room info")
	}
	store.SetRoomInfo(snap)
	if ops, err := client.GetRoomOperations(ctx, roomID); err != nil {
		logger.Warn().Err(err).Msg("failed to fetch operation history")
	} else {
		store.SetOperations(ops)
	}
	cancel()

	if err := manager.Connect(roomID); err != nil {
		logger.Fatal().Err(err).Int64("room_id", roomID).Msg("failed to open room stream")
	}

	renderRoom(snap)
	for _, op := range reversed(store.Operations()) {
		printOperation(op)
	}

	lastSeen := headID(store.Operations())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			pterm.Info.Println("leaving room view")
			store.Clear()
			return
		case departure := <-store.Departures():
			switch departure.Reason {
			case room.DepartureKicked:
				pterm.Warning.Println("you have been removed from the room")
			case room.DepartureDissolved:
				pterm.Warning.Println("the room has been dissolved")
			}
			return
		case <-ticker.C:
			ops := store.Operations()
			for _, op := range reversed(newerThan(ops, lastSeen)) {
				printOperation(op)
			}
			lastSeen = headID(ops)
		}
	}
}

func renderRoom(snap room.Snapshot) {
	pterm.DefaultSection.Printfln("room %s (%s)  table: %d  me: %d",
		snap.RoomCode, snap.RoomType, snap.TableBalance, snap.MyBalance)

	rows := pterm.TableData{{"user", "nickname", "balance", "status"}}
	for _, member := range snap.Members {
		rows = append(rows, []string{
			strconv.FormatInt(member.UserID, 10),
			member.Nickname,
			strconv.Itoa(member.Balance),
			member.Status,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printOperation(op room.Operation) {
	line := pterm.Sprintf("%s  %s %s", op.CreatedAt, pterm.LightCyan(op.Nickname), op.Description)
	if op.Type == room.OpTypeNiuniuBet && len(op.Bets) > 0 {
		for _, bet := range op.Bets {
			line += pterm.Sprintf("\n    -> %s: %d", bet.ToNickname, bet.Amount)
		}
	}
	pterm.Println(line)
}

// newerThan keeps the head entries appended after the given id. The log is
// most recent first, so we stop at the first already-seen entry.
func newerThan(ops []room.Operation, lastSeen int64) []room.Operation {
	for i, op := range ops {
		if op.ID == lastSeen {
			return ops[:i]
		}
	}
	return ops
}

func headID(ops []room.Operation) int64 {
	if len(ops) == 0 {
		return 0
	}
	return ops[0].ID
}

func reversed(ops []room.Operation) []room.Operation {
	out := make([]room.Operation, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		out = append(out, ops[i])
	}
	return out
}
