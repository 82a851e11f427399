package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"event-match/internal/client"
	"event-match/internal/config"
	"event-match/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/encoding/json"
)

func main() {
	cfg := config.LoadClient()
	server := flag.String("server", cfg.ServerURL, "event-match server url")
	code := flag.String("code", "", "event code to join (defaults to the stored event)")
	name := flag.String("name", "", "display name used when joining")
	chat := flag.Bool("chat", false, "load the revealed match and chat over stdin")
	storagePath := flag.String("storage", cfg.StoragePath, "path of the local storage file")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()
	logging.Setup(*logLevel, "console")
	cfg.ServerURL = *server

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := client.OpenFileStorage(*storagePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *storagePath).Msg("open storage")
	}
	session := client.NewSessionStore()
	session.Update(client.SessionFromStorage(storage))
	if err := session.Mirror(storage); err != nil {
		log.Fatal().Err(err).Msg("mirror session")
	}

	api := client.NewAPI(cfg.ServerURL, storage, nil)
	socket := client.NewManager(cfg, session,
		client.WithNotifier(client.LogNotifier{}),
		client.WithToken(api.Token()),
	)
	flows := &client.Flows{API: api, Session: session, Storage: storage, Socket: socket}

	current := session.Read()
	if *code != "" && !strings.EqualFold(*code, current.EventCode) {
		if *name == "" {
			log.Fatal().Msg("-name is required to join a new event")
		}
		result, err := flows.JoinEvent(ctx, *code, *name)
		if err != nil {
			log.Fatal().Err(err).Str("code", *code).Msg("join event")
		}
		log.Info().Str("code", result.EventCode).Str("anonymous_id", result.AnonymousID).Msg("joined event")
	} else if current.EventCode == "" {
		log.Fatal().Msg("no stored event; pass -code and -name")
	}

	if *chat {
		match, err := flows.LoadMatch(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("load match")
		}
		log.Info().Str("partner", match.DisplayName).Int("compatibility", match.CompatibilityScore).Bool("wildcard", match.IsWildCard).Msg("match loaded")
	}

	socket.OnStateChange(func(state client.State) {
		log.Info().Stringer("state", state).Msg("socket state")
	})
	socket.On(client.EventParticipantUpdate, func(data json.RawMessage) {
		var update struct {
			ParticipantCount int `json:"participantCount"`
		}
		if err := json.Unmarshal(data, &update); err == nil {
			log.Info().Int("participants", update.ParticipantCount).Msg("participants updated")
		}
	})
	socket.On(client.EventCountdownUpdate, func(data json.RawMessage) {
		var update client.Countdown
		if err := json.Unmarshal(data, &update); err == nil {
			log.Info().Int("remaining_seconds", update.RemainingSeconds).Msg("countdown")
		}
	})
	socket.On(client.EventNewMessage, func(data json.RawMessage) {
		var msg client.ChatMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			fmt.Printf("%s: %s\n", msg.SenderName, msg.Content)
		}
	})

	current = session.Read()
	if err := socket.Connect(ctx, client.ConnectOptions{
		EventCode:          current.EventCode,
		ParticipantID:      current.ParticipantID,
		DisplayName:        current.DisplayName,
		MatchID:            current.MatchID,
		MatchParticipantID: current.MatchParticipantID,
	}); err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	defer socket.Disconnect()

	if *chat {
		go readChat(ctx, socket)
	}
	<-ctx.Done()
}

func readChat(ctx context.Context, socket *client.Manager) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := socket.SendChatMessage(ctx, line); err != nil {
			log.Error().Err(err).Msg("send message")
		}
	}
}
