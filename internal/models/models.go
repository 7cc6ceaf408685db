package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// SentinelID is the fixed fallback id used when every resolution path is exhausted.
const SentinelID int64 = 1

// ProductNameSuffix marks products that originate from the storefront.
const ProductNameSuffix = " D"

// Company owns configurations, journals, partners and products
type Company struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Journal is the accounting journal a POS configuration posts to
type Journal struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Code      string `db:"code" json:"code"`
	Type      string `db:"type" json:"type"`
	CompanyID int64  `db:"company_id" json:"company_id"`
	Sequence  int    `db:"sequence" json:"sequence"`
}

// PosConfig is a named point of sale (till configuration)
type PosConfig struct {
	ID               int64  `db:"id" json:"id"`
	Name             string `db:"name" json:"name"`
	CompanyID        int64  `db:"company_id" json:"company_id"`
	JournalID        int64  `db:"journal_id" json:"journal_id"`
	InvoiceJournalID int64  `db:"invoice_journal_id" json:"invoice_journal_id"`
	PricelistID      int64  `db:"pricelist_id" json:"pricelist_id"`
	UsePricelist     bool   `db:"use_pricelist" json:"use_pricelist"`
}

// Session represents an open till under a POS configuration
type Session struct {
	ID       int64        `db:"id" json:"id"`
	ConfigID int64        `db:"config_id" json:"config_id"`
	UserID   int64        `db:"user_id" json:"user_id"`
	State    string       `db:"state" json:"state"`
	StartAt  sql.NullTime `db:"start_at" json:"-"`
	StopAt   sql.NullTime `db:"stop_at" json:"-"`
}

// Session states
const (
	SessionStateOpeningControl = "opening_control"
	SessionStateOpened         = "opened"
	SessionStateClosingControl = "closing_control"
	SessionStateClosed         = "closed"
)

// Partner is a customer or vendor contact
type Partner struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	IsCompany    bool   `db:"is_company" json:"is_company"`
	CustomerRank int    `db:"customer_rank" json:"customer_rank"`
	SupplierRank int    `db:"supplier_rank" json:"supplier_rank"`
	CompanyID    int64  `db:"company_id" json:"company_id"`
}

// Category groups products
type Category struct {
	ID       int64         `db:"id" json:"id"`
	Name     string        `db:"name" json:"name"`
	ParentID sql.NullInt64 `db:"parent_id" json:"-"`
}

// Uom is a unit of measure
type Uom struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Product represents a sellable product
type Product struct {
	ID             int64           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	DefaultCode    string          `db:"default_code" json:"default_code"`
	Type           string          `db:"type" json:"type"`
	ListPrice      decimal.Decimal `db:"list_price" json:"list_price"`
	StandardPrice  decimal.Decimal `db:"standard_price" json:"standard_price"`
	AvailableInPos bool            `db:"available_in_pos" json:"available_in_pos"`
	SaleOk         bool            `db:"sale_ok" json:"sale_ok"`
	PurchaseOk     bool            `db:"purchase_ok" json:"purchase_ok"`
	CompanyID      int64           `db:"company_id" json:"company_id"`
	CategID        int64           `db:"categ_id" json:"categ_id"`
	UomID          int64           `db:"uom_id" json:"uom_id"`
}

// Order is a point of sale order
type Order struct {
	ID           int64           `db:"id" json:"id"`
	PosReference string          `db:"pos_reference" json:"pos_reference"`
	PartnerID    int64           `db:"partner_id" json:"partner_id"`
	SessionID    int64           `db:"session_id" json:"session_id"`
	PricelistID  sql.NullInt64   `db:"pricelist_id" json:"-"`
	AmountTotal  decimal.Decimal `db:"amount_total" json:"amount_total"`
	AmountTax    decimal.Decimal `db:"amount_tax" json:"amount_tax"`
	AmountPaid   decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	AmountReturn decimal.Decimal `db:"amount_return" json:"amount_return"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	Lines        []OrderLine     `db:"-" json:"lines"`
}

// OrderLine is a priced line of an order
type OrderLine struct {
	ID                int64           `db:"id" json:"id"`
	OrderID           int64           `db:"order_id" json:"order_id"`
	ProductID         int64           `db:"product_id" json:"product_id"`
	Qty               decimal.Decimal `db:"qty" json:"qty"`
	PriceUnit         decimal.Decimal `db:"price_unit" json:"price_unit"`
	Discount          decimal.Decimal `db:"discount" json:"discount"`
	PriceSubtotal     decimal.Decimal `db:"price_subtotal" json:"price_subtotal"`
	PriceSubtotalIncl decimal.Decimal `db:"price_subtotal_incl" json:"price_subtotal_incl"`
	CustomerNote      string          `db:"customer_note" json:"customer_note"`
}

// User is an application user
type User struct {
	ID        int64  `db:"id" json:"id"`
	Login     string `db:"login" json:"login"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Active    bool   `db:"active" json:"active"`
	Share     bool   `db:"share" json:"share"`
	PartnerID int64  `db:"partner_id" json:"partner_id"`
}

// Internal reports whether the user is an active, non-portal user
func (u User) Internal() bool {
	return u.Active && !u.Share
}

// Group is a role users can belong to, addressed by its xml id
type Group struct {
	ID    int64  `db:"id" json:"id"`
	XMLID string `db:"xml_id" json:"xml_id"`
	Name  string `db:"name" json:"name"`
}

// Role groups
const (
	GroupPosManager   = "point_of_sale.group_pos_manager"
	GroupPosUser      = "point_of_sale.group_pos_user"
	GroupSaleSalesman = "sales_team.group_sale_salesman"
	GroupSaleLegacy   = "sale.group_sale_salesman"
	GroupSaleManager  = "sales_team.group_sale_manager"
	GroupInternalUser = "base.group_user"
	GroupSystem       = "base.group_system"
)

// Activity is a to-do attached to a user and a target record
type Activity struct {
	ID           int64     `db:"id" json:"id"`
	ActivityType string    `db:"activity_type" json:"activity_type"`
	Summary      string    `db:"summary" json:"summary"`
	Note         string    `db:"note" json:"note"`
	ResModel     string    `db:"res_model" json:"res_model"`
	ResID        int64     `db:"res_id" json:"res_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	DateDeadline time.Time `db:"date_deadline" json:"date_deadline"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Message is an entry on a record's timeline
type Message struct {
	ID          int64     `db:"id" json:"id"`
	ResModel    string    `db:"res_model" json:"res_model"`
	ResID       int64     `db:"res_id" json:"res_id"`
	Subject     string    `db:"subject" json:"subject"`
	Body        string    `db:"body" json:"body"`
	MessageType string    `db:"message_type" json:"message_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Record models referenced by activities and messages
const (
	ModelPosOrder = "pos.order"
	ModelResUsers = "res.users"
)

// Configuration parameter keys
const (
	ParamAutoAssignGroups      = "pos_order_api.auto_assign_groups"
	ParamLastPermissionRestore = "pos_order_api.last_permission_restore"
)
