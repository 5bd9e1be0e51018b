package enums

import "fmt"

// TxnDirection records which way a wallet transaction moved the balance.
type TxnDirection string

const (
	TxnDirectionCredit TxnDirection = "CREDIT"
	TxnDirectionDebit  TxnDirection = "DEBIT"
)

// IsValid reports whether the value is a known transaction direction.
func (d TxnDirection) IsValid() bool {
	return d == TxnDirectionCredit || d == TxnDirectionDebit
}

// TxnType classifies the business event behind a wallet transaction.
type TxnType string

const (
	TxnTypePurchase TxnType = "PURCHASE"
	TxnTypeCredit   TxnType = "CREDIT"
	TxnTypeRefund   TxnType = "REFUND"
)

var validTxnTypes = []TxnType{TxnTypePurchase, TxnTypeCredit, TxnTypeRefund}

// IsValid reports whether the value is a known transaction type.
func (t TxnType) IsValid() bool {
	for _, candidate := range validTxnTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTxnType converts raw input into a TxnType.
func ParseTxnType(value string) (TxnType, error) {
	for _, candidate := range validTxnTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}

// PaymentMode distinguishes wallet-credit checkouts from gateway cash checkouts.
type PaymentMode string

const (
	PaymentModeCredits PaymentMode = "Credits"
	PaymentModeCash    PaymentMode = "Cash"
)

// IsValid reports whether the value is a known payment mode.
func (m PaymentMode) IsValid() bool {
	return m == PaymentModeCredits || m == PaymentModeCash
}
