// Command gateway is the HTTP/WebSocket entrypoint: it accepts the
// telephony provider's media stream and webhooks, and drives one
// session.Call per call. The router and graceful-shutdown shape are
// grounded on lookatitude-beluga-ai's examples/voice/twilio/webhook_server
// (context.WithCancel + signal handling + gorilla/mux + http.Server.Shutdown),
// generalized from its single Twilio webhook handler to this gateway's
// fuller set of routes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/lokutor-ai/lokutor-gateway/pkg/autopress"
	"github.com/lokutor-ai/lokutor-gateway/pkg/config"
	"github.com/lokutor-ai/lokutor-gateway/pkg/gatewaylog"
	"github.com/lokutor-ai/lokutor-gateway/pkg/modelsocket"
	"github.com/lokutor-ai/lokutor-gateway/pkg/notify"
	"github.com/lokutor-ai/lokutor-gateway/pkg/outbound"
	"github.com/lokutor-ai/lokutor-gateway/pkg/recording"
	"github.com/lokutor-ai/lokutor-gateway/pkg/remoteconfig"
	"github.com/lokutor-ai/lokutor-gateway/pkg/session"
	"github.com/lokutor-ai/lokutor-gateway/pkg/telephony"
	"github.com/lokutor-ai/lokutor-gateway/pkg/transcript"
)

func main() {
	cfg := config.Load(godotenv.Load)
	logger := gatewaylog.New(os.Getenv("LOG_PRETTY") == "true")

	remoteCfg := remoteconfig.New(cfg.GoogleConfigURL, cfg.ConfigTTL, logger)
	rest := telephony.NewRESTClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioOutboundFrom, "")
	callLog := notify.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID)
	botSink := notify.NewTelegramSink(cfg.TelegramOutboundBotToken, cfg.TelegramOutboundChatID)
	outboundStore := outbound.NewStore(cfg.OutboundCodeTTL)
	downloader := recording.NewDownloader()
	registry := session.NewCallRegistry()

	deps := session.Deps{
		Config:       cfg,
		RemoteConfig: remoteCfg,
		REST:         rest,
		Logger:       logger,
		CallLog:      callLog,
		DialModel: func(ctx context.Context) (*modelsocket.Client, error) {
			return modelsocket.Dial(ctx, "api.openai.com", cfg.RealtimeModel, cfg.OpenAIAPIKey)
		},
		RateLimit:     autopress.NewRateLimit(cfg.AutoPressRateLimit),
		PublicBaseURL: cfg.WebhookURL,
		Registry:      registry,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	router := mux.NewRouter()
	router.HandleFunc("/voice/inbound", handleInboundVoice(cfg)).Methods(http.MethodPost)
	router.HandleFunc("/voice/outbound-twiml", handleOutboundTwiML(cfg)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/voice/dnc-redirect", handleDNCRedirect()).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/media", handleMedia(ctx, deps, logger)).Methods(http.MethodGet)
	router.HandleFunc("/webhooks/transcription", handleTranscriptionWebhook(registry, callLog, logger)).Methods(http.MethodPost)
	router.HandleFunc("/webhooks/recording", handleRecordingWebhook(downloader, callLog, logger)).Methods(http.MethodPost)
	router.HandleFunc("/webhooks/status", handleStatusWebhook(logger)).Methods(http.MethodPost)
	router.HandleFunc(cfg.TelegramOutboundWebhookPath, handleOutboundBotWebhook(cfg, deps, outboundStore, botSink, logger)).Methods(http.MethodPost)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}

// mediaWSURL rewrites the operator's public HTTPS base into the wss URL the
// provider's <Stream> element dials (§4.1, §6 "Outbound TwiML endpoint").
func mediaWSURL(publicBaseURL string) string {
	u := strings.Replace(publicBaseURL, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return strings.TrimRight(u, "/") + "/media"
}

func handleInboundVoice(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(telephony.InboundTwiML(mediaWSURL(cfg.WebhookURL))))
	}
}

// handleOutboundTwiML renders the envelope the REST call-create's Url points
// at: start dual-track recording/transcription, then connect to the media
// socket carrying the call's routing context (§4.10, §6).
func handleOutboundTwiML(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		q := r.Form
		to := q.Get("to")
		reason := q.Get("reason")
		theme := q.Get("theme")
		recipientName := q.Get("recipientName")
		callID := q.Get("callSid")

		recordingCB := cfg.WebhookURL + "/webhooks/recording"
		transcriptionCB := fmt.Sprintf("%s/webhooks/transcription?from=%s&to=%s&callerName=%s",
			cfg.WebhookURL, url.QueryEscape(to), url.QueryEscape(cfg.TwilioOutboundFrom), url.QueryEscape(recipientName))

		doc := telephony.OutboundTwiML(mediaWSURL(cfg.WebhookURL), recordingCB, transcriptionCB, telephony.OutboundTwiMLParams{
			To:            to,
			Reason:        reason,
			Theme:         theme,
			RecipientName: recipientName,
			CallID:        callID,
		})
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(doc))
	}
}

// handleDNCRedirect renders the auto-press/DNC hangup envelope the REST
// client redirects an in-flight call to (§4.9, §6).
func handleDNCRedirect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		digits := r.Form.Get("digits")
		say := r.Form.Get("say")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(telephony.DNCTwiML(digits, say)))
	}
}

// handleMedia upgrades the provider's <Stream> connection and runs one Call
// for its lifetime. The server's shutdown context bounds every call's
// lifetime too: a process shutdown cancels every in-flight Run.
func handleMedia(ctx context.Context, deps session.Deps, logger *gatewaylog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := telephony.Accept(w, r)
		if err != nil {
			logger.Warn("media accept failed", "err", err)
			return
		}
		call := session.NewCall(deps, conn)
		if err := call.Run(ctx); err != nil {
			logger.Debug("call ended", "err", err)
		}
	}
}

// handleTranscriptionWebhook feeds each utterance into its Call's transcript
// and number-mode/auto-press controllers, and fires the inbound call-log
// notification once the track reports stopped (§4.11, §6 "Transcript webhook").
func handleTranscriptionWebhook(registry *session.CallRegistry, callLog notify.Sink, logger *gatewaylog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := telephony.ParseTranscriptionWebhook(r)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)

		call, ok := registry.Get(ev.CallID)
		if !ok {
			return
		}

		switch ev.Event {
		case "transcription-content":
			text := transcript.ParseContent(ev.TranscriptionData, ev.TranscriptionText)
			track := transcript.TrackInbound
			if ev.Track == "outbound_track" {
				track = transcript.TrackOutbound
			}
			call.IngestTranscript(track, text, time.Now())

		case "transcription-stopped":
			rendered := transcript.Render(call.State().ExportTranscript())
			go func() {
				notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := callLog.Notify(notifyCtx, rendered); err != nil {
					logger.Warn("call log notify failed", "call_id", ev.CallID, "err", err)
				}
			}()

		case "transcription-error":
			logger.Warn("transcription error webhook", "call_id", ev.CallID)
		}
	}
}

// handleRecordingWebhook downloads the finished recording with the backoff
// schedule and posts a short note with its call id and byte size to the call
// log, best-effort (§6 "Recording webhook"). The audio itself is not sent to
// the call log. The call may already be DONE by the time this fires, so it
// never looks the call up in the registry.
func handleRecordingWebhook(downloader *recording.Downloader, callLog notify.Sink, logger *gatewaylog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := telephony.ParseRecordingWebhook(r)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)

		go func() {
			dlCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			body, err := downloader.Download(dlCtx, ev.RecordingURL)
			if err != nil {
				logger.Warn("recording download failed", "call_id", ev.CallID, "err", err)
				return
			}
			notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer notifyCancel()
			msg := fmt.Sprintf("recording ready for call %s (%d bytes)", ev.CallID, len(body))
			if err := callLog.Notify(notifyCtx, msg); err != nil {
				logger.Warn("call log notify failed", "call_id", ev.CallID, "err", err)
			}
		}()
	}
}

// handleStatusWebhook logs the call-create's lifecycle callbacks (§6
// "StatusCallback set", event set "initiated ringing answered completed").
// Best-effort: nothing downstream depends on these beyond the log line.
func handleStatusWebhook(logger *gatewaylog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		logger.Debug("call status callback", "call_id", r.FormValue("CallSid"), "status", r.FormValue("CallStatus"))
		w.WriteHeader(http.StatusOK)
	}
}

// telegramUpdate is the subset of a Telegram Bot API update this gateway
// reads: chat id and message text.
type telegramUpdate struct {
	Message struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// handleOutboundBotWebhook implements the outbound command FSM's HTTP
// surface (§4.10, §6 "Chat-bot webhook"): allow-list the chat id, verify the
// secret header if configured, parse the command, and reply.
func handleOutboundBotWebhook(cfg config.Config, deps session.Deps, store *outbound.Store, botSink notify.Sink, logger *gatewaylog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.TelegramOutboundWebhookSecret != "" &&
			r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != cfg.TelegramOutboundWebhookSecret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var upd telegramUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)

		chatID := fmt.Sprintf("%d", upd.Message.Chat.ID)
		if cfg.TelegramOutboundAllowedChatID != "" && chatID != cfg.TelegramOutboundAllowedChatID {
			return
		}

		reply := handleOutboundCommand(r.Context(), cfg, deps, store, chatID, upd.Message.Text, logger)
		if reply == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := botSink.Notify(ctx, reply); err != nil {
				logger.Warn("outbound bot reply failed", "err", err)
			}
		}()
	}
}

func handleOutboundCommand(ctx context.Context, cfg config.Config, deps session.Deps, store *outbound.Store, chatID, text string, logger *gatewaylog.Logger) string {
	cmd, req := outbound.Parse(text)
	switch cmd {
	case outbound.CmdHelp:
		return outbound.HelpText

	case outbound.CmdCall:
		return handleOutboundCall(ctx, deps, store, chatID, req)

	case outbound.CmdConfirm:
		return handleOutboundConfirm(ctx, cfg, deps, store, outbound.ConfirmCode(text), logger)

	case outbound.CmdCancel:
		if store.Cancel(outbound.CancelCode(text)) {
			return "Cancelled."
		}
		return "No pending call with that code."

	default:
		return outbound.HelpText
	}
}

func handleOutboundCall(ctx context.Context, deps session.Deps, store *outbound.Store, chatID string, req outbound.CallRequest) string {
	var dest, recipientName string
	if req.Phone != "" {
		dest = outbound.ToE164US(req.Phone)
		if dest == "" {
			return "Couldn't parse that phone number."
		}
	} else {
		snap := deps.RemoteConfig.Get(ctx, false)
		vip, ok := outbound.ResolveVIP(snap.VIPs, req.Name, req.Last4)
		if !ok {
			return "No matching contact for that name and last 4 digits."
		}
		dest = outbound.ToE164US(vip.Phone)
		recipientName = vip.Name
	}

	code, err := store.Issue(outbound.Pending{
		DestinationE164: dest,
		Display:         dest,
		Theme:           req.Theme,
		RecipientName:   recipientName,
		RequesterID:     chatID,
	})
	if err != nil {
		return "Couldn't issue a confirmation code, try again."
	}
	return fmt.Sprintf("Reply \"YES %s\" to call %s about: %s", code, dest, req.Theme)
}

func handleOutboundConfirm(ctx context.Context, cfg config.Config, deps session.Deps, store *outbound.Store, code string, logger *gatewaylog.Logger) string {
	if code == "" {
		return "Usage: YES <code>"
	}
	pending, err := store.Consume(code)
	if err != nil {
		switch err {
		case outbound.ErrCodeExpired:
			return "That confirmation code has expired."
		default:
			return "Unknown confirmation code."
		}
	}

	corrID := uuid.NewString()
	twimlURL := fmt.Sprintf("%s/voice/outbound-twiml?to=%s&reason=%s&theme=%s&recipientName=%s&callSid=%s",
		cfg.WebhookURL, url.QueryEscape(pending.DestinationE164), url.QueryEscape("outbound_command"),
		url.QueryEscape(pending.Theme), url.QueryEscape(pending.RecipientName), url.QueryEscape(corrID))

	result, err := deps.REST.CreateCall(ctx, telephony.CreateCallParams{
		To:             pending.DestinationE164,
		URL:            twimlURL,
		StatusCallback: cfg.WebhookURL + "/webhooks/status",
	})
	if err != nil {
		logger.Error("outbound call-create failed", "err", err, "corr_id", corrID)
		return "Failed to place the call."
	}
	return fmt.Sprintf("Calling %s now (%s).", pending.DestinationE164, result.CallID)
}
