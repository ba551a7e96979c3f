package dto

import "comanda-api/internal/floor/domain/models"

// OrderRequest is the payload staff submit when a cart is sent to the kitchen.
type OrderRequest struct {
	UserName string        `json:"user_name"`
	Items    []ItemRequest `json:"items"`
}

type ItemRequest struct {
	ItemID      int    `json:"item_id"`
	Count       int    `json:"count"`
	Observation string `json:"observation,omitempty"`
}

type MigrateRequest struct {
	OriginID      int `json:"origin_id"`
	DestinationID int `json:"destination_id"`
}

type UnitStatusRequest struct {
	Status    string `json:"status"`
	UpdatedBy string `json:"updated_by"`
}

type DeliverRequest struct {
	UpdatedBy string `json:"updated_by"`
}

type PartialPaymentRequest struct {
	PaidBy      string `json:"paid_by,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description,omitempty"`
	Method      string `json:"payment_method,omitempty"`
	ReceivedBy  *int   `json:"received_by,omitempty"`
}

type FinalizeRequest struct {
	FinalizedBy int `json:"finalized_by"`
}

type MigrateResponse struct {
	Origin      models.Table `json:"origin"`
	Destination models.Table `json:"destination"`
}
