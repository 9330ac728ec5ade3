package walletdto

import (
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
)

// FromWallet maps a persisted wallet.
func FromWallet(wallet *models.Wallet) Wallet {
	if wallet == nil {
		return Wallet{}
	}
	return Wallet{
		ID:                    wallet.ID,
		OwnerID:               wallet.OwnerID,
		OwnerType:             wallet.OwnerType,
		AvailableBalancePaise: wallet.AvailableBalancePaise,
		PendingBalancePaise:   wallet.PendingBalancePaise,
		LifetimeEarningsPaise: wallet.LifetimeEarningsPaise,
		UpdatedAt:             wallet.UpdatedAt,
	}
}

// FromTransactions maps ledger postings.
func FromTransactions(rows []models.WalletTransaction) []Transaction {
	out := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, Transaction{
			ID:          row.ID,
			Type:        row.Type,
			Bucket:      row.Bucket,
			Kind:        row.Kind,
			AmountPaise: row.AmountPaise,
			Description: row.Description,
			OrderID:     row.OrderID,
			CashoutID:   row.CashoutID,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out
}

// FromCashout maps a persisted cashout request.
func FromCashout(req *models.CashoutRequest) Cashout {
	if req == nil {
		return Cashout{}
	}
	return Cashout{
		ID:                req.ID,
		WalletID:          req.WalletID,
		BankAccountID:     req.BankAccountID,
		AmountPaise:       req.AmountPaise,
		Status:            req.Status,
		RequestedBy:       req.RequestedBy,
		RejectionReason:   req.RejectionReason,
		TransferReference: req.TransferReference,
		RequestedAt:       req.RequestedAt,
		ApprovedAt:        req.ApprovedAt,
		TransferredAt:     req.TransferredAt,
		CompletedAt:       req.CompletedAt,
		RejectedAt:        req.RejectedAt,
		CancelledAt:       req.CancelledAt,
	}
}

// FromCashouts maps a slice of cashout requests.
func FromCashouts(rows []models.CashoutRequest) []Cashout {
	out := make([]Cashout, 0, len(rows))
	for i := range rows {
		out = append(out, FromCashout(&rows[i]))
	}
	return out
}
