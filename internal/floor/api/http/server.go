package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	brokermessage "comanda-api/internal/floor/adapter/broker_message"
	database "comanda-api/internal/floor/adapter/db"
	"comanda-api/internal/floor/api/http/handle"
	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/app/services"
	"comanda-api/internal/floor/broadcast"
	"comanda-api/internal/mylogger"
	"comanda-api/internal/xpkg/config"
	xdb "comanda-api/internal/xpkg/db"
)

var ErrServerClosed = errors.New("server closed")

type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	srv    *http.Server
	params *core.ServerParams
	mylog  mylogger.Logger
	db     core.IDB
	mb     *brokermessage.RabbitMQ
	hub    *broadcast.Hub
	ctx    context.Context
	appCtx context.Context
	mu     sync.Mutex
}

func NewServer(ctx, appCtx context.Context, cfg *config.Config, params *core.ServerParams, mylog mylogger.Logger) *Server {
	return &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		params: params,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}
}

// Run initializes the database, broker mirror and hub, wires the routes and
// serves until the context is canceled or the listener fails.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	db, err := xdb.Start(s.appCtx, s.cfg.DB)
	if err != nil {
		mylog.Action("db_connection_failed").Error("Failed to connect to database", err)
		return fmt.Errorf("%w: %v", core.ErrDBConn, err)
	}
	s.db = db
	mylog.Action("db_connected").Info("Successful database connection")

	s.hub = broadcast.New(s.mylog, s.cfg.Events.Buffer())

	if s.cfg.RMQ.Enabled {
		mb, err := brokermessage.New(*s.cfg.RMQ, s.mylog)
		if err != nil {
			mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
			return err
		}
		s.mb = mb
		s.hub.SetMirror(mb)
	}

	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.params.Port),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.params.Port, "broker_mirror", s.cfg.RMQ.Enabled).
		Info("server is running")

	g, gctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		s.hub.Run(gctx, s.cfg.Events.Heartbeat())
		return nil
	})
	g.Go(func() error {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), core.WaitTime*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Stop closes the database and broker connections after the listener has
// drained.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Action("graceful_shutdown_started").Info("Shutting down HTTP server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, core.WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Action("db_close_failed").Error("Failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Action("db_closed").Info("Database closed")
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
			return fmt.Errorf("mb close: %w", err)
		}
		s.mylog.Action("mb_closed").Info("Message broker closed")
	}

	s.mylog.Action("graceful_shutdown_completed").Info("HTTP server shut down gracefully")
	return nil
}

// Configure wires repositories, services and routes.
func (s *Server) Configure() {
	tableRepo := database.NewTableRepo(s.db)
	billRepo := database.NewBillRepo(s.db)
	orderRepo := database.NewOrderRepo(s.db)
	menuRepo := database.NewMenuRepo(s.db)

	tableService := services.NewTableService(tableRepo, billRepo, orderRepo, s.hub, s.mylog)
	orderService := services.NewOrderService(orderRepo, billRepo, menuRepo, s.hub, s.mylog)
	kitchenService := services.NewKitchenService(orderRepo, s.hub, s.mylog)
	billingService := services.NewBillingService(billRepo, orderRepo, tableRepo, s.hub, s.mylog)

	tableHandler := handle.NewTableHandler(tableService, s.mylog)
	orderHandler := handle.NewOrderHandler(orderService, s.mylog)
	kitchenHandler := handle.NewKitchenHandler(kitchenService, s.mylog)
	billingHandler := handle.NewBillingHandler(billingService, s.mylog)
	menuHandler := handle.NewMenuHandler(menuRepo)
	eventsHandler := handle.NewEventsHandler(s.hub, tableService, orderService, kitchenService, s.mylog)

	s.mux.Handle("GET /tables", tableHandler.List())
	s.mux.Handle("GET /tables/{id}", tableHandler.Get())
	s.mux.Handle("POST /tables/{id}/open", tableHandler.Open())
	s.mux.Handle("POST /tables/{id}/close", tableHandler.Close())
	s.mux.Handle("POST /tables/{id}/reopen", tableHandler.Reopen())
	s.mux.Handle("POST /tables/migrate", tableHandler.Migrate())

	s.mux.Handle("POST /bills/{id}/orders", orderHandler.Submit())
	s.mux.Handle("GET /orders/{id}", orderHandler.Get())

	s.mux.Handle("GET /kitchen/orders", kitchenHandler.ActiveOrders())
	s.mux.Handle("GET /kitchen/orders/delivered", kitchenHandler.DeliveredOrders())
	s.mux.Handle("PUT /orders/{orderID}/items/{itemID}/units/{unitIndex}", kitchenHandler.UpdateUnitStatus())
	s.mux.Handle("POST /orders/{id}/deliver", kitchenHandler.DeliverOrder())
	s.mux.Handle("POST /orders/{orderID}/items/{itemID}/deliver", kitchenHandler.DeliverItem())

	s.mux.Handle("POST /tables/{id}/payments", billingHandler.CreatePayment())
	s.mux.Handle("GET /tables/{id}/payments", billingHandler.ListPayments())
	s.mux.Handle("DELETE /payments/{id}", billingHandler.CancelPayment())
	s.mux.Handle("GET /payments/{id}", billingHandler.PaymentDetails())
	s.mux.Handle("GET /tables/{id}/summary", billingHandler.Summary())
	s.mux.Handle("POST /tables/{id}/finalize", billingHandler.Finalize())

	s.mux.Handle("GET /items", menuHandler.List())

	s.mux.Handle("GET /orders/events", eventsHandler.KitchenFeed())
	s.mux.Handle("GET /tables/{id}/orders/events", eventsHandler.TableFeed())
}
