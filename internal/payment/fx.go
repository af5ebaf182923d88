package payment

import "go.uber.org/fx"

var Module = fx.Module("payment.adapters",
	fx.Provide(
		NewStripeAdapter,
		NewPaypalAdapter,
		NewMercadopagoAdapter,
		ProvideRegistry,
	),
)

func ProvideRegistry(stripe *StripeAdapter, paypal *PaypalAdapter, mercadopago *MercadopagoAdapter) *Registry {
	return NewRegistry(
		NewBankAdapter(),
		NewCashAdapter(),
		stripe,
		paypal,
		mercadopago,
	)
}
