package router

import (
	"github.com/Nevi32/wofuo1/internal/app/handlers"
	"github.com/Nevi32/wofuo1/internal/app/middleware"
	"github.com/Nevi32/wofuo1/internal/service/loans"
	"github.com/Nevi32/wofuo1/internal/service/members"
	"github.com/Nevi32/wofuo1/internal/service/savings"
	"github.com/Nevi32/wofuo1/internal/service/snapshot"
	"github.com/Nevi32/wofuo1/internal/service/syncengine"
	"github.com/Nevi32/wofuo1/internal/service/users"
	"github.com/Nevi32/wofuo1/internal/service/visits"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
)

const (
	basePath           = "/api/v1"
	defaultServiceName = "wofuo-ledger"
)

// Tokens issues and validates bearer tokens.
type Tokens interface {
	handlers.TokenIssuer
	middleware.TokenValidator
}

// Services holds everything the HTTP API is served from.
type Services struct {
	Users    users.UserServiceInterface
	Members  members.MemberServiceInterface
	Savings  savings.SavingsServiceInterface
	Loans    loans.LoanServiceInterface
	Visits   visits.VisitServiceInterface
	Sync     syncengine.EngineInterface
	Snapshot snapshot.SnapshotServiceInterface
	Ledger   handlers.LedgerReader
	Tokens   Tokens

	// ServiceName labels spans and metrics; empty means wofuo-ledger.
	ServiceName string
}

func SetupRouter(s Services) *gin.Engine {
	serviceName := s.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	server := gin.New()
	server.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		middleware.Metrics(otel.Meter(serviceName)),
		middleware.TraceID(),
	)

	healthCheckHandler := handlers.NewHealthCheckHandler()
	server.GET("/health", healthCheckHandler.HealthCheck)

	api := server.Group(basePath)

	authHandler := handlers.NewAuthHandler(s.Users, s.Tokens)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.AuthRequired(s.Tokens))
	secured.GET("/auth/me", authHandler.Me)

	memberHandler := handlers.NewMemberHandler(s.Members)
	secured.GET("/members", memberHandler.List)
	secured.POST("/members", memberHandler.Add)
	secured.GET("/members/:nationalId", memberHandler.Get)
	secured.PUT("/members/:nationalId", memberHandler.Update)
	secured.DELETE("/members/:nationalId", memberHandler.Delete)
	secured.GET("/groups", memberHandler.ListGroups)
	secured.PUT("/groups/:groupName", memberHandler.RenameGroup)

	savingsHandler := handlers.NewSavingsHandler(s.Savings)
	secured.POST("/savings", savingsHandler.RecordSaving)
	secured.GET("/savings", savingsHandler.GetMemberSavings)
	secured.GET("/savings/totals", savingsHandler.GetTotalSavings)
	secured.GET("/savings/balance", savingsHandler.GetBalance)
	secured.POST("/withdrawals", savingsHandler.RecordWithdrawal)
	secured.GET("/withdrawals", savingsHandler.GetWithdrawals)

	loanHandler := handlers.NewLoanHandler(s.Loans)
	secured.POST("/loans", loanHandler.RecordLoan)
	secured.GET("/loans", loanHandler.List)
	secured.GET("/loans/:id", loanHandler.Get)
	secured.PUT("/loans/:id", loanHandler.UpdateLoan)
	secured.GET("/loans/:id/summary", loanHandler.Summary)
	secured.GET("/loans/:id/defaulters", loanHandler.Defaulters)
	secured.POST("/loans/:id/defaulters", loanHandler.RecordDefaulter)
	secured.DELETE("/loans/:id/defaulters/:defaulterId", loanHandler.RemoveDefaulter)
	secured.GET("/loans/:id/payments", loanHandler.Payments)
	secured.POST("/loans/:id/payments", loanHandler.RecordPayment)

	visitHandler := handlers.NewVisitHandler(s.Visits)
	secured.GET("/visits", visitHandler.List)
	secured.POST("/visits", visitHandler.RecordVisit)
	secured.GET("/visits/groups", visitHandler.GroupsAndMembers)

	syncHandler := handlers.NewSyncHandler(s.Sync)
	secured.POST("/sync/push", syncHandler.Push)
	secured.POST("/sync/pull", syncHandler.Pull)

	snapshotHandler := handlers.NewSnapshotHandler(s.Snapshot)
	secured.POST("/snapshot/push", snapshotHandler.Push)
	secured.POST("/snapshot/pull", snapshotHandler.Pull)
	secured.DELETE("/ledger", snapshotHandler.Clear)

	ledgerHandler := handlers.NewLedgerHandler(s.Ledger)
	secured.GET("/ledger/export", ledgerHandler.Export)
	secured.GET("/ledger/size", ledgerHandler.Size)

	return server
}
