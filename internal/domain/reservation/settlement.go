package reservation

// Settlement is the outcome of splitting a charge between the member's
// wallet and the external payment gateway.
type Settlement struct {
	WalletAmount  Money
	GatewayAmount Money
	Remaining     Money
}

// SplitCharge applies the settlement policy:
//  1. wallet covers the full fee if the balance allows
//  2. otherwise the whole balance is consumed and the rest goes to the gateway
//  3. an empty wallet pushes the full fee to the gateway
//
// GatewayAmount is what has actually been collected at charge time (always
// zero here); Remaining is what the gateway still owes us.
func SplitCharge(totalFee, walletBalance Money) Settlement {
	wallet := totalFee.Min(walletBalance)
	return Settlement{
		WalletAmount:  wallet,
		GatewayAmount: ZeroMoney(),
		Remaining:     totalFee.Sub(wallet),
	}
}

func (s Settlement) Method() PaymentMethod {
	switch {
	case s.Remaining.IsZero():
		return PaymentWallet
	case s.WalletAmount.IsZero():
		return PaymentGateway
	default:
		return PaymentMixed
	}
}

// RefundMethod identifies how a refund portion is returned.
type RefundMethod string

const (
	RefundWallet  RefundMethod = "wallet"  // credited back synchronously
	RefundGateway RefundMethod = "gateway" // recorded, executed externally
)

type RefundState string

const (
	RefundCredited        RefundState = "credited"
	RefundPendingExternal RefundState = "pending_external"
)

// Refund is one computed refund portion produced on cancellation.
type Refund struct {
	Amount Money
	Method RefundMethod
	State  RefundState
}

// ComputeRefund applies the refund law: the non-refundable fee component is
// kept regardless of payment method, the rest is returned. Wallet-paid money
// comes back to the wallet first; anything beyond that was gateway-paid and
// is only recorded as owed (pending external processing).
func ComputeRefund(walletPaid, gatewayPaid, nonRefundable Money) []Refund {
	paid := walletPaid.Add(gatewayPaid)
	refundable := paid.Sub(nonRefundable)
	if refundable.IsZero() {
		return nil
	}

	var refunds []Refund
	toWallet := refundable.Min(walletPaid)
	if !toWallet.IsZero() {
		refunds = append(refunds, Refund{Amount: toWallet, Method: RefundWallet, State: RefundCredited})
	}
	toGateway := refundable.Sub(toWallet)
	if !toGateway.IsZero() {
		refunds = append(refunds, Refund{Amount: toGateway, Method: RefundGateway, State: RefundPendingExternal})
	}
	return refunds
}

// TotalRefund sums the portions of a computed refund.
func TotalRefund(refunds []Refund) Money {
	total := ZeroMoney()
	for _, r := range refunds {
		total = total.Add(r.Amount)
	}
	return total
}
