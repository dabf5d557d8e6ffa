package paymentprovider

// CreateCheckoutSessionRequest представляет параметры создания checkout-сессии.
type CreateCheckoutSessionRequest struct {
	PriceID       string            `json:"priceId" validate:"required"`        // ID тарифа у провайдера
	SuccessURL    string            `json:"successUrl" validate:"required,url"` // Редирект после оплаты
	CancelURL     string            `json:"cancelUrl" validate:"required,url"`  // Редирект при отмене
	CustomerEmail string            `json:"customerEmail" validate:"required,email"`
	Metadata      map[string]string `json:"metadata,omitempty"` // phone, plan_type и др.
}

// CheckoutSession представляет ответ провайдера на создание сессии.
type CheckoutSession struct {
	ID         string `json:"id"`
	URL        string `json:"url"` // hosted-страница оплаты
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// apiError — тело ошибки Stripe API.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
