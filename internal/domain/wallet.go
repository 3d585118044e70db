package domain

import "time"

// OwnerKind discriminates the WalletOwner variants.
type OwnerKind string

// List of wallet owner kinds
const (
	OwnerPlatform OwnerKind = "platform"
	OwnerPharmacy OwnerKind = "pharmacy"
	OwnerCourier  OwnerKind = "courier"
)

// WalletOwner is a tagged union over the three actors that can hold a
// ledger account. The platform owner carries no ID.
type WalletOwner struct {
	Kind OwnerKind
	ID   int64
}

// PlatformOwner returns the platform wallet owner.
func PlatformOwner() WalletOwner {
	return WalletOwner{Kind: OwnerPlatform}
}

// CourierOwner returns the wallet owner for a courier.
func CourierOwner(id int64) WalletOwner {
	return WalletOwner{Kind: OwnerCourier, ID: id}
}

// PharmacyOwner returns the wallet owner for a pharmacy.
func PharmacyOwner(id int64) WalletOwner {
	return WalletOwner{Kind: OwnerPharmacy, ID: id}
}

// Valid checks the owner kind and the kind/ID pairing.
func (o WalletOwner) Valid() bool {
	switch o.Kind {
	case OwnerPlatform:
		return o.ID == 0
	case OwnerPharmacy, OwnerCourier:
		return o.ID > 0
	}
	return false
}

// Wallet is a balance-bearing ledger account for one owner.
//
// Balance is held in minor currency units and always equals the signed sum
// of the wallet's completed transactions.
type Wallet struct {
	ID       int64
	Owner    WalletOwner
	Balance  int64
	Currency string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type (
	// TxType is the direction of a ledger entry.
	TxType string
	// TxCategory classifies what a ledger entry was for.
	TxCategory string
	// TxStatus is the lifecycle status of a ledger entry.
	TxStatus string
)

// Ledger entry directions
const (
	TxCredit TxType = "credit"
	TxDebit  TxType = "debit"
)

// Ledger entry categories
const (
	CategoryTopup           TxCategory = "topup"
	CategoryDeliveryEarning TxCategory = "delivery_earning"
	CategoryCommission      TxCategory = "commission"
	CategoryWithdrawal      TxCategory = "withdrawal"
	CategoryBonus           TxCategory = "bonus"
	CategoryRefund          TxCategory = "refund"
)

var allowedTxCategories = [...]TxCategory{
	CategoryTopup, CategoryDeliveryEarning, CategoryCommission,
	CategoryWithdrawal, CategoryBonus, CategoryRefund,
}

// Valid checks if the TxCategory is valid
func (c TxCategory) Valid() bool {
	for _, v := range allowedTxCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Ledger entry statuses
const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxFailed    TxStatus = "failed"
)

// WalletTransaction is one immutable ledger entry. Only Status may change,
// and only from pending to completed or failed.
type WalletTransaction struct {
	ID           int64
	WalletID     int64
	Type         TxType
	Amount       int64
	BalanceAfter int64
	Category     TxCategory
	DeliveryID   *int64
	Status       TxStatus
	Reference    string
	Description  string
	CreatedAt    time.Time
}

// Signed returns the amount with the sign implied by the entry direction.
func (t WalletTransaction) Signed() int64 {
	if t.Type == TxDebit {
		return -t.Amount
	}
	return t.Amount
}
