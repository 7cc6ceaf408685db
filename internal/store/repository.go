package store

import (
	"context"

	"pos-order-api/internal/models"
)

// Lookups named Find*/Get* return (nil, nil) when no row matches.

// Scope runs work inside a transaction. Savepoint nests a rollback boundary
// inside the transaction carried by ctx; without one it behaves like Execute.
type Scope interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	Savepoint(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type SessionRepository interface {
	FindOpenSession(ctx context.Context) (*models.Session, error)
	FindLatestSessionByConfig(ctx context.Context, configID int64) (*models.Session, error)
	FindLatestSession(ctx context.Context) (*models.Session, error)
	GetSession(ctx context.Context, id int64) (*models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
	OpenSession(ctx context.Context, id int64) error

	FindPosConfigByName(ctx context.Context, name string) (*models.PosConfig, error)
	FindAnyPosConfig(ctx context.Context) (*models.PosConfig, error)
	GetPosConfig(ctx context.Context, id int64) (*models.PosConfig, error)
	CreatePosConfig(ctx context.Context, cfg *models.PosConfig) error

	DefaultCompany(ctx context.Context) (*models.Company, error)
	FindPosJournal(ctx context.Context, companyID int64) (*models.Journal, error)
	CreateJournal(ctx context.Context, journal *models.Journal) error
}

type PartnerRepository interface {
	GetPartner(ctx context.Context, id int64) (*models.Partner, error)
	FindEligibleCustomer(ctx context.Context) (*models.Partner, error)
	FindAnyPartner(ctx context.Context) (*models.Partner, error)
	CreatePartner(ctx context.Context, partner *models.Partner) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	FindPosProduct(ctx context.Context) (*models.Product, error)
	FindAnyProduct(ctx context.Context) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error

	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	FindAnyCategory(ctx context.Context) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	FindUomByName(ctx context.Context, name string) (*models.Uom, error)
	FindAnyUom(ctx context.Context) (*models.Uom, error)
}

type OrderRepository interface {
	// CreateOrder inserts the order and its lines, filling ids and a
	// default ORD-{id} reference.
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	PostMessage(ctx context.Context, msg *models.Message) error
	CreateActivity(ctx context.Context, activity *models.Activity) error
}

type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
	// ListInternalUsers returns active non-shared users by id; limit <= 0 means all.
	ListInternalUsers(ctx context.Context, limit int) ([]models.User, error)
	// ListSessionUsers returns owners of the latest sessions in the given states.
	ListSessionUsers(ctx context.Context, states []string, limit int) ([]models.User, error)

	FindGroup(ctx context.Context, xmlID string) (*models.Group, error)
	ListGroupUsers(ctx context.Context, groupID int64) ([]models.User, error)
	ListUserGroups(ctx context.Context, userID int64) ([]models.Group, error)
	// AddGroupMembers grants the group and reports how many memberships were new.
	AddGroupMembers(ctx context.Context, groupID int64, userIDs []int64) (int, error)
}

type ParamRepository interface {
	GetParam(ctx context.Context, key string) (string, bool, error)
	SetParam(ctx context.Context, key, value string) error
}

// Repository is the full data layer the service orchestrates.
type Repository interface {
	Scope
	SessionRepository
	PartnerRepository
	ProductRepository
	OrderRepository
	UserRepository
	ParamRepository
}
