package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pma-companion/internal/alerts"
	"pma-companion/internal/api"
	"pma-companion/internal/chat"
	"pma-companion/internal/config"
	"pma-companion/internal/geofence"
	"pma-companion/internal/livefeed"
	"pma-companion/internal/notify"
	"pma-companion/internal/poller"
	"pma-companion/internal/reminders"
	"pma-companion/internal/routines"
	"pma-companion/internal/session"
	"pma-companion/internal/store"

	"github.com/gorilla/mux"
)

// --- CORE STATE ---

var (
	cfg          *config.Config
	apiClient    *api.Client
	cache        *store.Store
	sessions     *session.Manager
	feed         *livefeed.Client
	pollManager  *poller.Manager
	bus          *notify.Bus
	pushService  *notify.PushService
	emailService *notify.EmailService

	reminderCoord  *reminders.Coordinator
	routineCoord   *routines.Coordinator
	conversations  *chat.Conversations
	alertBox       *alerts.Collector
	awayWatcher    *geofence.Watcher
	positionSource *geofence.StaticPosition

	startTime  time.Time
	serverLogs []string
	logsMutex  sync.RWMutex
)

const maxLogs = 100

type logWriter struct{}

func (lw logWriter) Write(p []byte) (n int, err error) {
	logsMutex.Lock()
	defer logsMutex.Unlock()

	msg := string(p)
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}

	timestamp := time.Now().Format("15:04:05")
	logEntry := fmt.Sprintf("[%s] %s", timestamp, msg)

	serverLogs = append(serverLogs, logEntry)
	if len(serverLogs) > maxLogs {
		serverLogs = serverLogs[1:]
	}

	fmt.Println(logEntry)

	return len(p), nil
}

// --- STARTUP ---

func main() {
	log.SetFlags(0)
	log.SetOutput(logWriter{})

	startTime = time.Now()
	log.Println("🚀 Starting PMA Companion...")

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	cache, err = store.Open(cfg.CachePath)
	if err != nil {
		log.Fatalf("❌ Cache error: %v", err)
	}
	defer cache.Close()

	apiClient = api.NewClient(cfg.BackendBaseURL)
	sessions = session.NewManager(apiClient, cache)
	bus = notify.NewBus(cfg.NotificationsAllowed)

	if cfg.EnablePushSurfacing && cfg.FirebaseCredentialsPath != "" {
		pushService, err = notify.NewPushService(cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Printf("⚠️  Warning: push service unavailable: %v", err)
		}
	}
	if cfg.EnableEmailFallback {
		emailService, err = notify.NewEmailService(cfg)
		if err != nil {
			log.Printf("⚠️  Warning: email fallback unavailable: %v", err)
		} else {
			log.Println("✅ Email fallback initialized")
		}
	}

	sess := establishSession()
	if sess == nil {
		log.Fatalf("❌ No session: log in once with COMPANION_USERNAME / COMPANION_PASSWORD")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startRuntime(ctx, sess)
	go surfaceToDevice(ctx)

	router := mux.NewRouter()

	opsAPI := router.PathPrefix("/api").Subrouter()
	opsAPI.HandleFunc("/stats", statsHandler).Methods("GET")
	opsAPI.HandleFunc("/health", healthCheckHandler).Methods("GET")
	opsAPI.HandleFunc("/logs", logsHandler).Methods("GET")
	opsAPI.HandleFunc("/toasts", toastsHandler).Methods("GET")
	opsAPI.HandleFunc("/alerts", alertsHandler).Methods("GET")
	opsAPI.HandleFunc("/geofence", geofenceHandler).Methods("GET")
	opsAPI.HandleFunc("/position", positionHandler).Methods("POST")

	server := &http.Server{
		Addr:    ":" + cfg.OpsPort,
		Handler: corsMiddleware(router),
	}

	go func() {
		log.Printf("✅ Ops API ready on port %s", cfg.OpsPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Ops API error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("🛑 Shutting down...")

	pollManager.Stop()
	feed.Disconnect()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	log.Println("✅ Companion stopped")
}

// establishSession restores the persisted identity, or performs a first
// login from the environment when none exists yet.
func establishSession() *session.Session {
	sess, err := sessions.Restore()
	if err != nil {
		log.Printf("⚠️  Session restore failed: %v", err)
	}
	if sess != nil {
		return sess
	}

	username := os.Getenv("COMPANION_USERNAME")
	password := os.Getenv("COMPANION_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sess, err = sessions.Login(ctx, username, password)
	if err != nil {
		log.Printf("❌ Login failed: %v", err)
		return nil
	}
	return sess
}

// startRuntime wires the coordinators for the active session and brings
// up the live channel and the pollers.
func startRuntime(ctx context.Context, sess *session.Session) {
	feed = livefeed.NewClient(
		cfg.BrokerURL,
		time.Duration(cfg.HandshakeTimeout)*time.Second,
		time.Duration(cfg.ReconnectDelaySeconds)*time.Second,
	)
	pollManager = poller.NewManager()

	// Reminders: live topic plus due-reminder catch-up.
	reminderCoord = reminders.NewCoordinator(sess.UserID, apiClient, bus)
	feed.Subscribe(reminderCoord.Topic(), reminderCoord.HandlePush)

	fetchCtx, fetchCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := reminderCoord.FetchDue(fetchCtx); err != nil {
		log.Printf("⚠️  %v", err)
	}
	fetchCancel()

	// Routine check-ins.
	routineCoord = routines.NewCoordinator(sess.UserID, apiClient, bus)
	for _, topic := range routineCoord.Topics() {
		feed.Subscribe(topic, routineCoord.HandlePush)
	}

	// Family chat.
	conversations = chat.NewConversations(sess.Username, cache, bus)
	pollManager.Register(chat.NewPoller(apiClient, conversations, time.Duration(cfg.ChatPollInterval)*time.Second))

	if sess.IsAlzheimer {
		// Patient side: self-monitor the geofence. Position fixes come
		// in through POST /api/position on the ops API.
		evaluator := geofence.ServerEvaluator{
			Client:    apiClient,
			PatientID: sess.UserID,
			Fallback:  geofence.HaversineEvaluator{ThresholdKm: cfg.AwayThresholdKm},
		}
		positionSource = geofence.NewStaticPosition()
		awayWatcher = geofence.NewWatcher(
			sess.UserID, apiClient, cache,
			positionSource, evaluator, bus,
			time.Duration(cfg.LocationPollInterval)*time.Second,
		)
		pollManager.Register(awayWatcher)
	} else {
		// Caregiver side: collect danger alerts.
		alertBox = alerts.NewCollector(bus)
		feed.Subscribe(livefeed.AlertsTopic, alertBox.HandlePush)
		pollManager.Register(alerts.NewPoller(sess.UserID, apiClient, alertBox, time.Duration(cfg.AlertPollInterval)*time.Second))
	}

	feed.Connect(ctx)
	pollManager.Start()
}

// surfaceToDevice forwards toasts to the paired device as OS pushes,
// with email as the danger-alert fallback.
func surfaceToDevice(ctx context.Context) {
	if pushService == nil && emailService == nil {
		return
	}

	toasts := bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-toasts:
			deliverToast(t)
		}
	}
}

func deliverToast(t notify.Toast) {
	if pushService != nil && cfg.DeviceToken != "" {
		var err error
		switch t.Category {
		case "reminder":
			err = pushService.SendReminderPush(cfg.DeviceToken, t.Title, t.Body)
		case "routine":
			err = pushService.SendRoutinePush(cfg.DeviceToken, t.Body)
		case "alert":
			err = pushService.SendDangerAlertPush(cfg.DeviceToken, t.Title, t.Body)
		default:
			return
		}
		if err == nil {
			return
		}
		if notify.IsInvalidTokenError(err) {
			log.Printf("❌ Device token rejected, dropping it")
			cfg.DeviceToken = ""
		}
	}

	if t.Category == "alert" && emailService != nil && cfg.SMTPFromEmail != "" {
		if err := emailService.SendDangerAlertEmail(cfg.SMTPFromEmail, "Caregiver", t.Title, t.Body); err != nil {
			log.Printf("❌ Alert email fallback failed: %v", err)
		}
	}
}

// --- OPS API HANDLERS ---

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	backendOK := false
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := apiClient.Ping(ctx); err == nil {
		backendOK = true
	}

	response := map[string]interface{}{
		"uptime":       formatDuration(time.Since(startTime)),
		"live_channel": feed.Connected(),
		"pollers":      pollManager.GetStats(),
		"backend_ok":   backendOK,
		"firebase_ok":  pushService != nil,
		"unread_chat":  conversations.UnreadTotal(),
		"timestamp":    time.Now().Unix(),
	}

	json.NewEncoder(w).Encode(response)
}

func logsHandler(w http.ResponseWriter, r *http.Request) {
	logsMutex.RLock()
	defer logsMutex.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(map[string]interface{}{
		"logs": serverLogs,
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "healthy"
	httpStatus := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := apiClient.Ping(ctx); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func toastsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"toasts": bus.Recent(),
	})
}

func alertsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if alertBox == nil {
		json.NewEncoder(w).Encode(map[string]interface{}{"alerts": []struct{}{}})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"alerts": alertBox.Active(),
	})
}

// positionHandler accepts a GPS fix from the host platform and
// evaluates it right away instead of waiting for the next cycle.
func positionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if positionSource == nil || awayWatcher == nil {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "not monitoring"})
		return
	}

	var fix struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&fix); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid position payload"})
		return
	}

	positionSource.Set(fix.Latitude, fix.Longitude)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := awayWatcher.Poll(ctx); err != nil {
		log.Printf("⚠️  %v", err)
	}

	json.NewEncoder(w).Encode(awayWatcher.Status())
}

func geofenceHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if awayWatcher == nil {
		json.NewEncoder(w).Encode(map[string]string{"status": "not monitoring"})
		return
	}
	json.NewEncoder(w).Encode(awayWatcher.Status())
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
