package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// constraintHints names what a schema constraint protects, for log triage.
var constraintHints = map[string]string{
	"ux_orders_order_number":                "order number collision",
	"ux_vendor_pickups_order_vendor":        "vendor leg created twice",
	"ux_wallets_owner":                      "wallet already provisioned for owner",
	"ux_wallet_transactions_order_kind":     "settlement already posted for order",
	"ux_delivery_otps_order_id":             "delivery otp already issued",
	"ux_cart_lines_customer_product":        "product already in cart",
	"chk_orders_courier_assigned":           "courier missing on assigned order",
	"fk_cashout_requests_bank_account":      "cashout references unknown bank account",
	"fk_order_groups_address":               "checkout address missing",
	"fk_wallet_transactions_wallet":         "posting references unknown wallet",
	"wallets_available_balance_paise_check": "available balance would go negative",
	"wallets_pending_balance_paise_check":   "pending balance would go negative",
}

// ErrorDump is the flattened view of an error chain written to request logs.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
	// Hint is set when the violated constraint is one the schema names.
	Hint string `json:"hint,omitempty"`
}

// Dump walks err and pulls out the typed code and any Postgres error details,
// whether the error came through pgx or lib/pq.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode, d.PGConstraint, d.PGTable = pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName
		d.PGColumn, d.PGDetail, d.PGMessage = pgxErr.ColumnName, pgxErr.Detail, pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode, d.PGConstraint, d.PGTable = string(pqErr.Code), pqErr.Constraint, pqErr.Table
		d.PGColumn, d.PGDetail, d.PGMessage = pqErr.Column, pqErr.Detail, pqErr.Message
	}
	d.Hint = constraintHints[d.PGConstraint]
	return d
}
