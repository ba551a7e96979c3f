package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"comanda-api/internal/floor/app/core"
	"comanda-api/internal/floor/app/services"
	"comanda-api/internal/floor/domain/dto"
	"comanda-api/internal/floor/domain/models"
	"comanda-api/internal/mylogger"
)

type TableHandler struct {
	tableService *services.TableService
	mylog        mylogger.Logger
}

func NewTableHandler(tableService *services.TableService, mylog mylogger.Logger) *TableHandler {
	return &TableHandler{
		tableService: tableService,
		mylog:        mylog,
	}
}

func (th *TableHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext()
		defer cancel()

		tables, err := th.tableService.List(ctx)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, tables)
	}
}

func (th *TableHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		table, err := th.tableService.Get(ctx, id)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, table)
	}
}

func (th *TableHandler) Open() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		bill, err := th.tableService.Open(ctx, id)
		if err != nil {
			serviceError(w, err)
			return
		}
		th.mylog.Action("table_opened").Info("Table opened", "table_id", id, "bill_id", bill.ID)
		jsonResponse(w, http.StatusCreated, bill)
	}
}

func (th *TableHandler) Close() http.HandlerFunc {
	return th.transition(th.tableService.Close)
}

func (th *TableHandler) Reopen() http.HandlerFunc {
	return th.transition(th.tableService.Reopen)
}

func (th *TableHandler) transition(op func(context.Context, int) (models.Table, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		table, err := op(ctx, id)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, table)
	}
}

func (th *TableHandler) Migrate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.MigrateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := requestContext()
		defer cancel()

		origin, destination, err := th.tableService.Migrate(ctx, req.OriginID, req.DestinationID)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, dto.MigrateResponse{Origin: origin, Destination: destination})
	}
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), core.WaitTime*time.Second)
}
