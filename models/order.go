package models

import "github.com/shopspring/decimal"

// Order statuses. An order is created "pendente" and moves exactly once to
// "pago" or "falha" when the gateway calls back; there is no way back.
const (
	OrderPending = "pendente"
	OrderPaid    = "pago"
	OrderFailed  = "falha"
)

// Order is one simulated checkout. Field names follow the storefront
// payload (pt-BR) so exported data matches what the pages submit.
type Order struct {
	IDPedido      string          `json:"id_pedido"`
	LpID          string          `json:"lp_id"`
	DescricaoOfer string          `json:"descricao_oferta"`
	ValorTotal    decimal.Decimal `json:"valor_total"`
	CupomCodigo   string          `json:"cupom_codigo,omitempty"`
	Status        string          `json:"status"`
	CriadoEm      string          `json:"criado_em"`
	AtualizadoEm  string          `json:"atualizado_em"`
	VisitorID     string          `json:"visitor_id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
}

// Coupon is a percent-off discount code applied at checkout.
type Coupon struct {
	Code       string          `json:"code"`
	PercentOff decimal.Decimal `json:"percent_off"`
}

// CheckoutRequest is the POST /api/checkout payload.
type CheckoutRequest struct {
	LpID          string `json:"lp_id" binding:"required"`
	ValorTotal    string `json:"valor_total" binding:"required"`
	DescricaoOfer string `json:"descricao_oferta"`
	CupomCodigo   string `json:"cupom_codigo"`
	VisitorID     string `json:"visitor_id"`
	SessionID     string `json:"session_id"`
}

// CheckoutResponse carries the created order plus the simulated gateway
// redirect the storefront should navigate to.
type CheckoutResponse struct {
	Order       Order  `json:"order"`
	RedirectURL string `json:"redirect_url"`
}
