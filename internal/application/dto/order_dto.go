package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// OrderPatch conjunto cerrado de campos mutables del pedido. Los nil no se tocan.
// Lines reemplaza el conjunto completo de líneas.
type OrderPatch struct {
	CustomerID       *string             `json:"customer_id,omitempty"`
	PaymentMethodID  *string             `json:"payment_method_id,omitempty"`
	Installments     *int                `json:"installments,omitempty" validate:"omitempty,min=1,max=99"`
	Lines            *[]OrderLineInput   `json:"lines,omitempty" validate:"omitempty,dive"`
	DiscountAmount   *decimal.Decimal    `json:"discount_amount,omitempty"`
	DiscountPercent  *decimal.Decimal    `json:"discount_percent,omitempty"`
	ShippingCost     *decimal.Decimal    `json:"shipping_cost,omitempty"`
	ShippingModality *string             `json:"shipping_modality,omitempty" validate:"omitempty,oneof=0 1 2 3 4 9"`
	OtherCharges     *decimal.Decimal    `json:"other_charges,omitempty"`
	Notes            *string             `json:"notes,omitempty" validate:"omitempty,max=2000"`
	InternalNotes    *string             `json:"internal_notes,omitempty" validate:"omitempty,max=2000"`
	DeliveryAddress  *DeliveryAddressDTO `json:"delivery_address,omitempty"`
	ValidUntil       *time.Time          `json:"valid_until,omitempty"`
}

// OrderLineInput línea en creación/edición. Si UnitPrice es nil y MarginPercent
// viene informado, el precio se deriva del costo del producto; si ambos son nil
// se usa el precio de lista.
type OrderLineInput struct {
	ProductID       string           `json:"product_id" validate:"required"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	MarginPercent   *decimal.Decimal `json:"margin_percent,omitempty"`
	Discount        decimal.Decimal  `json:"discount"`
	StockLocationID string           `json:"stock_location_id,omitempty"`
	Notes           string           `json:"notes,omitempty" validate:"max=500"`
}

// DeliveryAddressDTO dirección de entrega: la del cliente o una explícita.
type DeliveryAddressDTO struct {
	UseCustomerAddress bool   `json:"use_customer_address"`
	Street             string `json:"street,omitempty"`
	Number             string `json:"number,omitempty"`
	Complement         string `json:"complement,omitempty"`
	District           string `json:"district,omitempty"`
	CityCode           string `json:"city_code,omitempty"`
	City               string `json:"city,omitempty"`
	State              string `json:"state,omitempty" validate:"omitempty,len=2"`
	ZipCode            string `json:"zip_code,omitempty"`
}

// CreateOrderRequest body para POST /api/orders. Status QUOTE (default) o DRAFT.
type CreateOrderRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=QUOTE DRAFT"`
	OrderPatch
}

// ConfirmOrderRequest body opcional de POST /api/orders/:id/confirm.
type ConfirmOrderRequest struct {
	DefaultStockLocationID string `json:"default_stock_location_id,omitempty"`
}

// CreditDecisionDTO decisión de análisis de crédito.
type CreditDecisionDTO struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// ApproveOrderRequest body de POST /api/orders/:id/approve.
type ApproveOrderRequest struct {
	Decision *CreditDecisionDTO `json:"decision,omitempty"`
}

// CancelOrderRequest body de POST /api/orders/:id/cancel.
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// OrderLineResponse línea en respuestas.
type OrderLineResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Discount        decimal.Decimal `json:"discount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
	StockLocationID string          `json:"stock_location_id,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// CreditAnalysisResponse análisis de crédito embebido.
type CreditAnalysisResponse struct {
	Status    string     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// OrderResponse pedido en respuestas.
type OrderResponse struct {
	ID                 string                  `json:"id"`
	Code               string                  `json:"code"`
	Status             string                  `json:"status"`
	CustomerID         string                  `json:"customer_id,omitempty"`
	PaymentMethodID    string                  `json:"payment_method_id,omitempty"`
	Installments       int                     `json:"installments"`
	Lines              []OrderLineResponse     `json:"lines"`
	Subtotal           decimal.Decimal         `json:"subtotal"`
	DiscountAmount     decimal.Decimal         `json:"discount_amount"`
	DiscountPercent    decimal.Decimal         `json:"discount_percent"`
	ShippingCost       decimal.Decimal         `json:"shipping_cost"`
	ShippingModality   string                  `json:"shipping_modality,omitempty"`
	OtherCharges       decimal.Decimal         `json:"other_charges"`
	TotalAmount        decimal.Decimal         `json:"total_amount"`
	Notes              string                  `json:"notes,omitempty"`
	InternalNotes      string                  `json:"internal_notes,omitempty"`
	DeliveryAddress    DeliveryAddressDTO      `json:"delivery_address"`
	CreditAnalysis     *CreditAnalysisResponse `json:"credit_analysis,omitempty"`
	ValidUntil         *time.Time              `json:"valid_until,omitempty"`
	ReceivableIDs      []string                `json:"receivable_ids,omitempty"`
	ConfirmedAt        *time.Time              `json:"confirmed_at,omitempty"`
	ApprovedAt         *time.Time              `json:"approved_at,omitempty"`
	CompletedAt        *time.Time              `json:"completed_at,omitempty"`
	CanceledAt         *time.Time              `json:"canceled_at,omitempty"`
	CancellationReason string                  `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// OrderListResponse listado paginado.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// NewOrderResponse mapea la entidad a la respuesta.
func NewOrderResponse(o *entity.Order) OrderResponse {
	out := OrderResponse{
		ID:                 o.ID,
		Code:               o.Code,
		Status:             string(o.Status),
		CustomerID:         o.CustomerID,
		PaymentMethodID:    o.PaymentMethodID,
		Installments:       o.Installments,
		Lines:              make([]OrderLineResponse, 0, len(o.Lines)),
		Subtotal:           o.Subtotal,
		DiscountAmount:     o.DiscountAmount,
		DiscountPercent:    o.DiscountPercent,
		ShippingCost:       o.ShippingCost,
		ShippingModality:   o.ShippingModality,
		OtherCharges:       o.OtherCharges,
		TotalAmount:        o.TotalAmount,
		Notes:              o.Notes,
		InternalNotes:      o.InternalNotes,
		DeliveryAddress:    deliveryAddressToDTO(o.DeliveryAddress),
		ValidUntil:         o.ValidUntil,
		ReceivableIDs:      o.ReceivableIDs,
		ConfirmedAt:        o.ConfirmedAt,
		ApprovedAt:         o.ApprovedAt,
		CompletedAt:        o.CompletedAt,
		CanceledAt:         o.CanceledAt,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, OrderLineResponse{
			ID:              l.ID,
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			Discount:        l.Discount,
			Subtotal:        l.Subtotal,
			Total:           l.Total,
			StockLocationID: l.StockLocationID,
			Notes:           l.Notes,
		})
	}
	if o.CreditAnalysis != nil {
		out.CreditAnalysis = &CreditAnalysisResponse{
			Status:    string(o.CreditAnalysis.Status),
			Notes:     o.CreditAnalysis.Notes,
			DecidedAt: o.CreditAnalysis.DecidedAt,
		}
	}
	return out
}

// ToEntity convierte la dirección de entrega del request.
func (d DeliveryAddressDTO) ToEntity() entity.DeliveryAddress {
	return entity.DeliveryAddress{
		UseCustomerAddress: d.UseCustomerAddress,
		Address: entity.Address{
			Street:     d.Street,
			Number:     d.Number,
			Complement: d.Complement,
			District:   d.District,
			CityCode:   d.CityCode,
			City:       d.City,
			State:      d.State,
			ZipCode:    d.ZipCode,
		},
	}
}

func deliveryAddressToDTO(a entity.DeliveryAddress) DeliveryAddressDTO {
	return DeliveryAddressDTO{
		UseCustomerAddress: a.UseCustomerAddress,
		Street:             a.Address.Street,
		Number:             a.Address.Number,
		Complement:         a.Address.Complement,
		District:           a.Address.District,
		CityCode:           a.Address.CityCode,
		City:               a.Address.City,
		State:              a.Address.State,
		ZipCode:            a.Address.ZipCode,
	}
}
