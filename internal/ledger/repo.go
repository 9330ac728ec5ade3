package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bazaarlink-backend/internal/repo"
	"github.com/angelmondragon/bazaarlink-backend/pkg/db/models"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	"github.com/angelmondragon/bazaarlink-backend/pkg/pagination"
)

// Repository manages wallet rows and their append-only postings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error)
	FindWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error)
	FindWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, walletID uuid.UUID, bucket enums.WalletBucket, amountPaise int64, earning bool) (bool, error)
	Debit(ctx context.Context, walletID uuid.UUID, bucket enums.WalletBucket, amountPaise int64) (bool, error)
	InsertTransaction(ctx context.Context, txn *models.WalletTransaction) error
	ListTransactions(ctx context.Context, walletID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.WalletTransaction, error)
	FoldBalances(ctx context.Context, walletID uuid.UUID) (Balances, error)
	ListWalletIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// Balances is the fold of postings per bucket.
type Balances struct {
	AvailablePaise        int64
	PendingPaise          int64
	LifetimeEarningsPaise int64
}

type repository struct {
	repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) EnsureWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error) {
	wallet := &models.Wallet{OwnerID: ownerID, OwnerType: ownerType}
	if err := r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(wallet).Error; err != nil {
		return nil, err
	}
	return r.FindWallet(ctx, ownerID, ownerType)
}

func (r *repository) FindWallet(ctx context.Context, ownerID uuid.UUID, ownerType enums.WalletOwnerType) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.DB(ctx).
		Where("owner_id = ? AND owner_type = ?", ownerID, ownerType).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.DB(ctx).Where("id = ?", walletID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Credit increments a bucket; earning postings also grow lifetime earnings.
func (r *repository) Credit(ctx context.Context, walletID uuid.UUID, bucket enums.WalletBucket, amountPaise int64, earning bool) (bool, error) {
	column, err := bucketColumn(bucket)
	if err != nil {
		return false, err
	}
	updates := map[string]any{
		column: gorm.Expr(column+" + ?", amountPaise),
	}
	if earning {
		updates["lifetime_earnings_paise"] = gorm.Expr("lifetime_earnings_paise + ?", amountPaise)
	}
	res := r.DB(ctx).Model(&models.Wallet{}).Where("id = ?", walletID).Updates(updates)
	return repo.SingleRow(res)
}

// Debit decrements a bucket only when it holds at least amountPaise. The
// balance check and the write are one statement, so concurrent debits cannot
// both observe the same funds.
func (r *repository) Debit(ctx context.Context, walletID uuid.UUID, bucket enums.WalletBucket, amountPaise int64) (bool, error) {
	column, err := bucketColumn(bucket)
	if err != nil {
		return false, err
	}
	res := r.DB(ctx).Model(&models.Wallet{}).
		Where("id = ? AND "+column+" >= ?", walletID, amountPaise).
		Updates(map[string]any{
			column: gorm.Expr(column+" - ?", amountPaise),
		})
	return repo.SingleRow(res)
}

func (r *repository) InsertTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.DB(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, walletID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.WalletTransaction, error) {
	query := r.DB(ctx).Where("wallet_id = ?", walletID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.WalletTransaction
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FoldBalances(ctx context.Context, walletID uuid.UUID) (Balances, error) {
	var rows []struct {
		Type   enums.WalletTxnType
		Bucket enums.WalletBucket
		Kind   enums.WalletTxnKind
		Total  int64
	}
	if err := r.DB(ctx).Model(&models.WalletTransaction{}).
		Select("type, bucket, kind, COALESCE(SUM(amount_paise), 0) AS total").
		Where("wallet_id = ?", walletID).
		Group("type, bucket, kind").
		Scan(&rows).Error; err != nil {
		return Balances{}, err
	}
	var b Balances
	for _, row := range rows {
		signed := row.Total
		if row.Type == enums.WalletTxnTypeDebit {
			signed = -signed
		}
		switch row.Bucket {
		case enums.WalletBucketAvailable:
			b.AvailablePaise += signed
		case enums.WalletBucketPending:
			b.PendingPaise += signed
		}
		if row.Type == enums.WalletTxnTypeCredit && isEarning(row.Kind) {
			b.LifetimeEarningsPaise += row.Total
		}
	}
	return b, nil
}

func (r *repository) ListWalletIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := r.DB(ctx).Model(&models.Wallet{})
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	var ids []uuid.UUID
	if err := query.Order("id ASC").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func bucketColumn(bucket enums.WalletBucket) (string, error) {
	switch bucket {
	case enums.WalletBucketAvailable:
		return "available_balance_paise", nil
	case enums.WalletBucketPending:
		return "pending_balance_paise", nil
	default:
		return "", errors.New("unknown wallet bucket " + string(bucket))
	}
}

func isEarning(kind enums.WalletTxnKind) bool {
	return kind == enums.WalletTxnKindDeliveryPayout || kind == enums.WalletTxnKindVendorEarning
}
