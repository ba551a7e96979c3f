package handle

import (
	"net/http"

	"comanda-api/internal/floor/app/core"
)

type MenuHandler struct {
	menuRepo core.IMenuRepo
}

func NewMenuHandler(menuRepo core.IMenuRepo) *MenuHandler {
	return &MenuHandler{menuRepo: menuRepo}
}

func (mh *MenuHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext()
		defer cancel()

		items, err := mh.menuRepo.List(ctx)
		if err != nil {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, items)
	}
}
