package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sundayekpa25-ai/WeThrift/internal/api"
	"github.com/sundayekpa25-ai/WeThrift/internal/commission"
	"github.com/sundayekpa25-ai/WeThrift/internal/complaint"
	"github.com/sundayekpa25-ai/WeThrift/internal/escrow"
	"github.com/sundayekpa25-ai/WeThrift/internal/group"
	"github.com/sundayekpa25-ai/WeThrift/internal/loan"
	"github.com/sundayekpa25-ai/WeThrift/internal/notification"
	"github.com/sundayekpa25-ai/WeThrift/internal/savings"
	"github.com/sundayekpa25-ai/WeThrift/internal/ussd"
	"github.com/sundayekpa25-ai/WeThrift/internal/user"
	"github.com/sundayekpa25-ai/WeThrift/internal/ws"
)

type app struct {
	user         user.Server
	group        group.Server
	savings      savings.Server
	loan         loan.Server
	escrow       escrow.Server
	complaint    complaint.Server
	notification notification.Server
	commission   commission.Server
	ussd         ussd.Server
	ws           ws.Server
}

func main() {
	if err := godotenv.Load(); err != nil {
		panic("Failed to load .env file.")
	}

	dbUrl, ok := os.LookupEnv("DATABASE_URL")
	if !ok {
		panic("DATABASE_URL not found.")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbUrl)
	defer pool.Close()
	if err != nil {
		panic(err)
	}

	redisUrl, ok := os.LookupEnv("REDIS_URL")
	if !ok {
		panic("REDIS_URL not found.")
	}

	opt, err := redis.ParseURL(redisUrl)
	if err != nil {
		panic(fmt.Errorf("redis url: %w", err))
	}

	redisClient := redis.NewClient(opt)

	sessionTTL := ussd.DefaultSessionTTL

	if raw, ok := os.LookupEnv("USSD_SESSION_TTL"); ok {
		sessionTTL, err = time.ParseDuration(raw)
		if err != nil {
			panic(fmt.Errorf("USSD_SESSION_TTL: %w", err))
		}
	}

	userRepo := user.NewRepository(pool, redisClient)
	commissionRepo := commission.NewRepository(pool)
	notificationRepo := notification.NewRepository(pool, redisClient)
	groupRepo := group.NewRepository(pool)
	savingsRepo := savings.NewRepository(pool, commissionRepo, notificationRepo)
	loanRepo := loan.NewRepository(pool, commissionRepo, notificationRepo)
	escrowRepo := escrow.NewRepository(pool, commissionRepo, notificationRepo)
	complaintRepo := complaint.NewRepository(pool, notificationRepo)

	engine := ussd.NewEngine(
		ussd.NewRedisStore(redisClient, sessionTTL),
		ussd.Services{
			Auth:          userRepo,
			Groups:        groupRepo,
			Contributions: savingsRepo,
			Loans:         loanRepo,
			Escrow:        escrowRepo,
			Complaints:    complaintRepo,
		},
	)

	hub := ws.NewHub()

	go hub.Start()
	go hub.Relay(ctx, redisClient, notification.CreatedChannel)

	app := app{
		user:         *user.NewServer(userRepo),
		group:        *group.NewServer(groupRepo),
		savings:      *savings.NewServer(savingsRepo),
		loan:         *loan.NewServer(loanRepo),
		escrow:       *escrow.NewServer(escrowRepo),
		complaint:    *complaint.NewServer(complaintRepo),
		notification: *notification.NewServer(notificationRepo),
		commission:   *commission.NewServer(commissionRepo),
		ussd:         *ussd.NewServer(engine),
		ws:           *ws.NewServer(hub),
	}

	router := http.NewServeMux()

	router.HandleFunc("GET /", health)

	router.Handle("POST /api/auth/register", api.HTTPHandler(app.user.Register))
	router.Handle("POST /api/auth/login", api.HTTPHandler(app.user.Login))

	router.Handle("POST /api/ussd", api.HTTPHandler(app.ussd.HandleRequest))
	router.Handle("GET /api/ussd", api.HTTPHandler(app.ussd.HandleHealth))

	router.HandleFunc("GET /api/ws", app.ws.HandleConnection)

	// Everything below requires a session cookie.
	authed := app.user.AuthMiddleware

	router.Handle("POST /api/groups", authed(api.HTTPHandler(app.group.CreateGroup)))
	router.Handle("GET /api/groups/{groupID}", authed(api.HTTPHandler(app.group.GetGroup)))
	router.Handle("GET /api/users/{userID}/groups", authed(api.HTTPHandler(app.group.GetUserGroups)))
	router.Handle("POST /api/groups/join", authed(api.HTTPHandler(app.group.JoinGroup)))

	router.Handle("POST /api/savings-products", authed(api.HTTPHandler(app.savings.CreateProduct)))
	router.Handle("GET /api/groups/{groupID}/savings-products", authed(api.HTTPHandler(app.savings.GetGroupProducts)))
	router.Handle("POST /api/contributions", authed(api.HTTPHandler(app.savings.MakeContribution)))
	router.Handle("PATCH /api/contributions/{contributionID}/status", authed(api.HTTPHandler(app.savings.UpdateContributionStatus)))
	router.Handle("GET /api/users/{userID}/contributions", authed(api.HTTPHandler(app.savings.GetUserContributions)))

	router.Handle("POST /api/loans", authed(api.HTTPHandler(app.loan.Apply)))
	router.Handle("GET /api/users/{userID}/loans", authed(api.HTTPHandler(app.loan.GetUserLoans)))
	router.Handle("POST /api/loans/{loanID}/approve", authed(api.HTTPHandler(app.loan.ApproveLoan)))
	router.Handle("POST /api/loans/{loanID}/reject", authed(api.HTTPHandler(app.loan.RejectLoan)))
	router.Handle("POST /api/loans/{loanID}/disburse", authed(api.HTTPHandler(app.loan.DisburseLoan)))
	router.Handle("POST /api/loan-repayments", authed(api.HTTPHandler(app.loan.MakeRepayment)))
	router.Handle("PATCH /api/loan-repayments/{repaymentID}/status", authed(api.HTTPHandler(app.loan.UpdateRepaymentStatus)))

	router.Handle("POST /api/escrow", authed(api.HTTPHandler(app.escrow.CreateTransaction)))
	router.Handle("GET /api/users/{userID}/escrow", authed(api.HTTPHandler(app.escrow.GetUserTransactions)))
	router.Handle("POST /api/escrow/{transactionID}/fund", authed(api.HTTPHandler(app.escrow.FundTransaction)))
	router.Handle("POST /api/escrow/{transactionID}/release", authed(api.HTTPHandler(app.escrow.ReleaseTransaction)))
	router.Handle("POST /api/escrow/{transactionID}/dispute", authed(api.HTTPHandler(app.escrow.DisputeTransaction)))
	router.Handle("POST /api/escrow/{transactionID}/cancel", authed(api.HTTPHandler(app.escrow.CancelTransaction)))

	router.Handle("POST /api/complaints", authed(api.HTTPHandler(app.complaint.SubmitComplaint)))
	router.Handle("GET /api/users/{userID}/complaints", authed(api.HTTPHandler(app.complaint.GetUserComplaints)))
	router.Handle("POST /api/complaints/{complaintID}/assign", authed(api.HTTPHandler(app.complaint.AssignComplaint)))
	router.Handle("POST /api/complaints/{complaintID}/resolve", authed(api.HTTPHandler(app.complaint.ResolveComplaint)))
	router.Handle("POST /api/complaints/{complaintID}/close", authed(api.HTTPHandler(app.complaint.CloseComplaint)))

	router.Handle("GET /api/users/{userID}/notifications", authed(api.HTTPHandler(app.notification.GetUserNotifications)))
	router.Handle("GET /api/users/{userID}/notifications/unread-count", authed(api.HTTPHandler(app.notification.GetUnreadCount)))
	router.Handle("POST /api/notifications/{notificationID}/read", authed(api.HTTPHandler(app.notification.MarkNotificationRead)))

	router.Handle("POST /api/commission-rates", authed(api.HTTPHandler(app.commission.CreateRate)))
	router.Handle("GET /api/commission-rates", authed(api.HTTPHandler(app.commission.GetRates)))
	router.Handle("DELETE /api/commission-rates/{rateID}", authed(api.HTTPHandler(app.commission.DeactivateRate)))

	host, ok := os.LookupEnv("HOST")
	if !ok {
		panic("HOST not found.")
	}

	port, ok := os.LookupEnv("PORT")
	if !ok {
		panic("PORT not found.")
	}

	server := http.Server{
		Addr:    host + ":" + port,
		Handler: router,
	}

	slog.Info(fmt.Sprintf("Starting server on port: %s", port))

	server.ListenAndServe()
}

func health(w http.ResponseWriter, r *http.Request) {
	slog.Info("Hello, World!")
}
