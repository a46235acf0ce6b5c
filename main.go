package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chat-client/internal/api"
	"chat-client/internal/config"
	"chat-client/internal/events"
	"chat-client/internal/mapper"
	"chat-client/internal/mockserver"
	"chat-client/internal/models"
	"chat-client/internal/observability"
	"chat-client/internal/preview"
	"chat-client/internal/session"
	"chat-client/internal/store"
	"chat-client/internal/views"
)

func main() {
	admin := flag.Bool("admin", false, "open the back-office inbox")
	mock := flag.Bool("mock", false, "run against an embedded mock backend")
	token := flag.String("token", "", "access token (overrides the persisted session)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg := config.Load()
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "chat-client")
	if err != nil {
		logger.Fatal().Err(err).Msg("tracer init failed")
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	if cfg.MetricsAddr != "" {
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listener started")
			if err := http.ListenAndServe(cfg.MetricsAddr, promhttp.Handler()); err != nil {
				logger.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	if *mock {
		srv := mockserver.New()
		seedMockData(srv)
		go func() {
			logger.Info().Str("addr", cfg.MockAddr).Msg("mock backend started")
			if err := http.ListenAndServe(cfg.MockAddr, srv.Handler()); err != nil {
				logger.Fatal().Err(err).Msg("mock backend stopped")
			}
		}()
		cfg.APIBaseURL = "http://" + cfg.MockAddr + "/api"
		if *token == "" {
			if *admin {
				*token = "A1"
			} else {
				*token = "U100"
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	sess, err := session.Open(cfg.SessionPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("session store open failed")
	}
	defer sess.Close()

	accessToken := *token
	if accessToken == "" {
		if accessToken, err = sess.Token(); err != nil {
			logger.Fatal().Err(err).Msg("session token read failed")
		}
	}
	if accessToken == "" {
		logger.Fatal().Msg("no access token: pass -token or log in first")
	}
	if err := sess.SaveToken(accessToken); err != nil {
		logger.Warn().Err(err).Msg("session token save failed")
	}

	client := api.New(cfg.APIBaseURL, api.WithToken(accessToken))

	publisher := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	emitter := events.NewEmitter(publisher, "chat-client", cfg.Environment, logger)

	st := store.New(client,
		store.WithLogger(logger),
		store.WithEmitter(emitter),
	)
	previews := preview.NewContext(client, logger)

	inbox := views.NewInbox(st, client, *admin, logger)
	if cached, ok, err := sess.User(); err == nil && ok {
		inbox.FallbackIdentity = &cached
	}
	if err := inbox.Load(ctx); err != nil {
		logger.Fatal().Err(err).Str("detail", inbox.Err()).Msg("inbox load failed")
	}
	if err := sess.SaveUser(st.CurrentUser()); err != nil {
		logger.Warn().Err(err).Msg("session user save failed")
	}

	st.StartInboxPolling(inbox.Role(), cfg.PollInterval)
	defer st.StopInboxPolling()

	runShell(ctx, logger, st, previews, inbox, *admin)
}

// runShell is a minimal terminal front-end over the inbox and thread views.
func runShell(ctx context.Context, logger zerolog.Logger, st *store.Store, previews *preview.Context, inbox *views.InboxView, isAdmin bool) {
	printInbox(inbox)
	fmt.Println(`commands: ls | open <n> | send <text> | more | rm <n> | refresh | quit`)

	var thread *views.ThreadView
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")

		switch cmd {
		case "quit", "exit":
			return

		case "ls":
			printInbox(inbox)

		case "refresh":
			if err := inbox.Refresh(ctx); err != nil {
				fmt.Println(inbox.Err())
				continue
			}
			printInbox(inbox)

		case "open":
			row, ok := rowByIndex(inbox, arg)
			if !ok {
				fmt.Println("no such chat")
				continue
			}
			if thread != nil {
				thread.Close()
			}
			thread = views.NewThread(st, previews, mapper.New(), row.ID, isAdmin, logger)
			if err := thread.Open(ctx, nil); err != nil {
				fmt.Println(thread.Err())
			}
			printThread(thread)

		case "send":
			if thread == nil {
				fmt.Println("open a chat first")
				continue
			}
			if err := thread.Send(ctx, arg); err != nil {
				fmt.Println(thread.Err())
				continue
			}
			printThread(thread)

		case "more":
			if thread == nil {
				fmt.Println("open a chat first")
				continue
			}
			if err := thread.OnScrollTop(ctx); err != nil {
				fmt.Println("couldn't load older messages")
				continue
			}
			printThread(thread)

		case "rm":
			row, ok := rowByIndex(inbox, arg)
			if !ok {
				fmt.Println("no such chat")
				continue
			}
			if err := inbox.DeleteChat(ctx, row.ID); err != nil {
				fmt.Println(inbox.Err())
				continue
			}
			printInbox(inbox)

		case "":
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}

func rowByIndex(inbox *views.InboxView, arg string) (models.ChatRow, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	rows := inbox.Rows()
	if err != nil || n < 1 || n > len(rows) {
		return models.ChatRow{}, false
	}
	return rows[n-1], true
}

func printInbox(inbox *views.InboxView) {
	rows := inbox.Rows()
	if len(rows) == 0 {
		fmt.Println("inbox empty")
		return
	}
	fmt.Printf("inbox (%d unread)\n", inbox.UnreadTotal())
	for i, row := range rows {
		badge := ""
		if row.Unread > 0 {
			badge = fmt.Sprintf(" [%d]", row.Unread)
		}
		fmt.Printf("%2d. %s%s | %s\n", i+1, row.OtherName, badge, row.Last.Text)
	}
}

func printThread(thread *views.ThreadView) {
	fmt.Println("--", thread.OtherName(), "--")
	if p := thread.Preview(); p != nil {
		fmt.Printf("reservation %s (%s) total %.2f\n", p.ReservationID, p.Status, p.Total)
	}
	for _, m := range thread.Messages() {
		fmt.Printf("[%s] %s: %s\n", m.At.Format("15:04"), m.FromID, m.Text)
	}
	if thread.Closed() {
		fmt.Println("(reservation closed, sending disabled)")
	}
}

func seedMockData(srv *mockserver.Server) {
	srv.SeedUser(models.CurrentUser{ID: "U100", Name: "Sebas", Role: models.RoleCustomer})
	srv.SeedUser(models.CurrentUser{ID: "A1", Name: "Perfumes Catedral", Role: models.RoleAdmin})

	chat := srv.SeedChat(models.Chat{
		ID:               "C1",
		CustomerID:       "U100",
		AdminID:          "A1",
		UnreadByCustomer: 1,
		ReservationID:    "R1",
	})
	srv.SeedMessage(models.Message{ChatID: chat.ID, SenderID: "U100", Type: "text", Text: "Hola, ¿coordinamos?"})
	srv.SeedMessage(models.Message{ChatID: chat.ID, SenderID: "A1", Type: "text", Text: "¿Puedes mañana?"})
	srv.SeedPreview(chat.ID, models.ReservationPreview{
		ReservationID: "R1",
		CreatedAt:     time.Now().Add(-24 * time.Hour),
		Total:         59.90,
		Status:        models.ReservationPending,
		Items: []models.PreviewItem{
			{Name: "Eau de Parfum 100ml", Qty: 1, Price: 59.90},
		},
	})
}
