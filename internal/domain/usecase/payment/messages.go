package payment

import (
	"fmt"

	"github.com/amirhossein-jamali/client-portal/internal/domain/entity"
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/usecase"
	"github.com/shopspring/decimal"
)

func amountText(amount decimal.Decimal, currency string) string {
	return entity.FormatAmount(amount) + " " + currency
}

func createdClientMessage(p *entity.Payment, serviceName string, amount decimal.Decimal, currency string) string {
	if p.Method == entity.MethodFreeConsultation {
		return fmt.Sprintf("Your free consultation for %s has been booked. Our staff will confirm it with you.", serviceName)
	}
	if p.Type == entity.PaymentTypePartial {
		return fmt.Sprintf("Your partial payment of %s for %s has been created. Complete it through the checkout link.",
			amountText(amount, currency), serviceName)
	}
	return fmt.Sprintf("Your payment of %s for %s has been created. Complete it through the checkout link.",
		amountText(amount, currency), serviceName)
}

func createdStaffMessage(p *entity.Payment, clientName, serviceName string, amount decimal.Decimal, currency string) string {
	if clientName == "" {
		clientName = p.ClientID
	}
	if p.Method == entity.MethodFreeConsultation {
		return fmt.Sprintf("Client %s booked a free consultation for %s.", clientName, serviceName)
	}
	return fmt.Sprintf("Client %s started a %s payment of %s for %s (total %s).",
		clientName, p.Type, amountText(amount, currency), serviceName, amountText(p.TotalAmount, currency))
}

func settledClientMessage(p *entity.Payment, amount decimal.Decimal, currency string) string {
	if p.Status == entity.PaymentStatusCompleted {
		if p.Type == entity.PaymentTypePartial {
			return fmt.Sprintf("We received your payment of %s. Your balance is now fully paid.", amountText(amount, currency))
		}
		return fmt.Sprintf("Your payment of %s has been received. The service is fully paid.", amountText(amount, currency))
	}
	return fmt.Sprintf("We received your partial payment of %s. Remaining balance: %s.",
		amountText(amount, currency), amountText(p.RemainingBalance, currency))
}

func settledStaffMessage(p *entity.Payment, amount decimal.Decimal, currency string) string {
	if p.Status == entity.PaymentStatusCompleted {
		return fmt.Sprintf("Payment %s is fully paid (%s received, total %s).",
			p.ID, amountText(amount, currency), amountText(p.TotalAmount, currency))
	}
	return fmt.Sprintf("Partial payment of %s received for payment %s. Remaining balance: %s.",
		amountText(amount, currency), p.ID, amountText(p.RemainingBalance, currency))
}

func failedClientMessage(p *entity.Payment) string {
	return fmt.Sprintf("Your payment %s could not be completed. You can start a new payment for this service.", p.ID)
}

func failedStaffMessage(p *entity.Payment) string {
	return fmt.Sprintf("Payment %s for client %s failed at the gateway.", p.ID, p.ClientID)
}

func reviewStaffMessage(p *entity.Payment, amount decimal.Decimal, currency, gatewayPaymentID string) string {
	return fmt.Sprintf("Payment %s was confirmed by the gateway after it had failed (%s, session %s). Manual review required.",
		p.ID, amountText(amount, currency), gatewayPaymentID)
}

func topUpClientMessage(p *entity.Payment, amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("A new payment of %s was opened on your balance. Remaining before this payment: %s.",
		amountText(amount, currency), amountText(p.RemainingBalance, currency))
}

func topUpStaffMessage(p *entity.Payment, amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("Client %s opened an additional payment of %s on payment %s.",
		p.ClientID, amountText(amount, currency), p.ID)
}

// buildSummary describes what the caller is about to pay. amount is the size of
// the checkout just opened; nothing of it is in the ledger yet.
func buildSummary(p *entity.Payment, amount decimal.Decimal) usecase.PaymentSummary {
	summary := usecase.PaymentSummary{
		TotalAmount:   entity.FormatAmount(p.TotalAmount),
		PaymentAmount: entity.FormatAmount(amount),
		PaymentType:   p.Type,
	}

	if p.Method == entity.MethodFreeConsultation {
		summary.PaymentAmount = entity.FormatAmount(decimal.Zero)
		summary.RemainingAfterPayment = entity.FormatAmount(p.RemainingBalance)
		summary.NextSteps = "No online payment is taken. Our staff will confirm your consultation."
		return summary
	}

	remaining := p.RemainingBalance.Sub(amount)
	summary.RemainingAfterPayment = entity.FormatAmount(remaining)
	if remaining.IsPositive() {
		summary.NextSteps = fmt.Sprintf("Complete the payment through the checkout link. %s will remain to be paid afterwards.",
			entity.FormatAmount(remaining))
	} else {
		summary.NextSteps = "Complete the payment through the checkout link. Your request is confirmed once the payment is received."
	}
	return summary
}
