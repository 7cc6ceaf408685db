package service

import (
	"context"
	"errors"
	"fmt"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store"
	"pos-order-api/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	placeholderPartnerName = "Cliente Ecommerce API"
	defaultCategoryName    = "Ecommerce"
	defaultUomName         = "Units"
	posJournalName         = "Point of Sale"
	posJournalCode         = "POSS"
	defaultCodeMaxLen      = 50
)

// Resolver finds or creates the session, partner and products an order
// refers to. Resolution is not read-only and never aborts the request for
// sessions and partners; those degrade to the sentinel id.
//
// There is no locking between lookup and creation, so concurrent requests
// may create duplicate configs, partners or products.
type Resolver struct {
	repo       store.Repository
	cache      ProductCache
	adminLogin string
	logger     *zap.Logger
}

// NewResolver creates a new resolver. cache may be nil.
func NewResolver(repo store.Repository, cache ProductCache, adminLogin string) *Resolver {
	return &Resolver{
		repo:       repo,
		cache:      cache,
		adminLogin: adminLogin,
		logger:     util.GetLogger(),
	}
}

// ResolveSession returns a usable session for the named POS configuration
func (r *Resolver) ResolveSession(ctx context.Context, posName string) (res Resolution) {
	ctx, span := util.StartSpan(ctx, "Resolver.ResolveSession")
	defer span.End()
	defer func() { util.ResolutionsTotal.WithLabelValues("session", string(res.Outcome)).Inc() }()

	err := r.repo.Savepoint(ctx, "resolve_session", func(ctx context.Context) error {
		var err error
		res, err = r.resolveSession(ctx, posName)
		return err
	})
	if err != nil {
		r.logger.Error("Session resolution failed, using sentinel session",
			zap.String("pos_name", posName), zap.Error(err))
		return fellBack(models.SentinelID, err)
	}
	return res
}

func (r *Resolver) resolveSession(ctx context.Context, posName string) (Resolution, error) {
	open, err := r.repo.FindOpenSession(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if open != nil {
		r.logger.Debug("Using open session", zap.Int64("session_id", open.ID))
		return found(open.ID), nil
	}

	cfg, err := r.resolvePosConfig(ctx, posName)
	if err != nil {
		return Resolution{}, err
	}
	if cfg == nil {
		r.logger.Error("No POS configuration available, using sentinel session")
		return fellBack(models.SentinelID, nil), nil
	}

	latest, err := r.repo.FindLatestSessionByConfig(ctx, cfg.ID)
	if err != nil {
		return Resolution{}, err
	}
	if latest != nil {
		switch latest.State {
		case models.SessionStateOpened:
			return found(latest.ID), nil
		case models.SessionStateOpeningControl:
			err := r.repo.Savepoint(ctx, "open_pos_session", func(ctx context.Context) error {
				return r.repo.OpenSession(ctx, latest.ID)
			})
			if err == nil {
				r.logger.Info("Opened existing session", zap.Int64("session_id", latest.ID))
				return found(latest.ID), nil
			}
			r.logger.Error("Failed to open existing session",
				zap.Int64("session_id", latest.ID), zap.Error(err))
		}
	}

	session, createErr := r.createSession(ctx, cfg)
	if createErr == nil {
		return created(session.ID), nil
	}
	r.logger.Error("Failed to create session",
		zap.String("pos_name", posName), zap.Error(createErr))

	fallback, err := r.repo.FindLatestSession(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if fallback != nil {
		r.logger.Warn("Using latest session as fallback", zap.Int64("session_id", fallback.ID))
		return fellBack(fallback.ID, createErr), nil
	}

	r.logger.Warn("Using sentinel session")
	return fellBack(models.SentinelID, createErr), nil
}

// resolvePosConfig finds the named config or creates it. A failed creation
// falls back to any config; nil means none exists at all.
func (r *Resolver) resolvePosConfig(ctx context.Context, name string) (*models.PosConfig, error) {
	cfg, err := r.repo.FindPosConfigByName(ctx, name)
	if err != nil || cfg != nil {
		return cfg, err
	}

	var createdCfg *models.PosConfig
	err = r.repo.Savepoint(ctx, "create_pos_config", func(ctx context.Context) error {
		var err error
		createdCfg, err = r.createPosConfig(ctx, name)
		return err
	})
	if err == nil {
		r.logger.Info("Created POS configuration",
			zap.String("name", name), zap.Int64("config_id", createdCfg.ID))
		return createdCfg, nil
	}

	r.logger.Error("Failed to create POS configuration", zap.String("name", name), zap.Error(err))
	return r.repo.FindAnyPosConfig(ctx)
}

func (r *Resolver) createPosConfig(ctx context.Context, name string) (*models.PosConfig, error) {
	company, err := r.repo.DefaultCompany(ctx)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, errors.New("no company available")
	}

	journal, err := r.repo.FindPosJournal(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	if journal == nil {
		journal = &models.Journal{
			Name:      posJournalName,
			Code:      posJournalCode,
			Type:      "general",
			CompanyID: company.ID,
			Sequence:  10,
		}
		if err := r.repo.CreateJournal(ctx, journal); err != nil {
			return nil, fmt.Errorf("failed to create POS journal: %w", err)
		}
	}

	cfg := &models.PosConfig{
		Name:             name,
		CompanyID:        company.ID,
		JournalID:        journal.ID,
		InvoiceJournalID: journal.ID,
		PricelistID:      1,
		UsePricelist:     true,
	}
	if err := r.repo.CreatePosConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to create POS config: %w", err)
	}
	return cfg, nil
}

// createSession opens a new session owned by the administrator. A session
// that cannot be opened is still returned.
func (r *Resolver) createSession(ctx context.Context, cfg *models.PosConfig) (*models.Session, error) {
	var session *models.Session
	err := r.repo.Savepoint(ctx, "create_pos_session", func(ctx context.Context) error {
		userID, err := r.adminUserID(ctx)
		if err != nil {
			return err
		}

		session = &models.Session{
			ConfigID: cfg.ID,
			UserID:   userID,
			State:    models.SessionStateOpeningControl,
		}
		if err := r.repo.CreateSession(ctx, session); err != nil {
			return err
		}

		err = r.repo.Savepoint(ctx, "open_new_session", func(ctx context.Context) error {
			return r.repo.OpenSession(ctx, session.ID)
		})
		if err != nil {
			r.logger.Warn("Session created but could not be opened",
				zap.Int64("session_id", session.ID), zap.Error(err))
		}
		return nil
	})
	return session, err
}

func (r *Resolver) adminUserID(ctx context.Context) (int64, error) {
	admin, err := r.repo.FindUserByLogin(ctx, r.adminLogin)
	if err != nil {
		return 0, err
	}
	if admin == nil {
		if admin, err = r.repo.GetUser(ctx, models.SentinelID); err != nil {
			return 0, err
		}
	}
	if admin == nil {
		return models.SentinelID, nil
	}
	return admin.ID, nil
}

// ResolvePartner returns the requested partner when it exists, else an
// eligible customer, a newly created placeholder, any partner or the sentinel.
func (r *Resolver) ResolvePartner(ctx context.Context, partnerID *int64) (res Resolution) {
	ctx, span := util.StartSpan(ctx, "Resolver.ResolvePartner")
	defer span.End()
	defer func() { util.ResolutionsTotal.WithLabelValues("partner", string(res.Outcome)).Inc() }()

	err := r.repo.Savepoint(ctx, "resolve_partner", func(ctx context.Context) error {
		var err error
		res, err = r.resolvePartner(ctx, partnerID)
		return err
	})
	if err != nil {
		r.logger.Error("Partner resolution failed, using sentinel partner", zap.Error(err))
		return fellBack(models.SentinelID, err)
	}
	return res
}

func (r *Resolver) resolvePartner(ctx context.Context, partnerID *int64) (Resolution, error) {
	if partnerID != nil && *partnerID != 0 {
		partner, err := r.repo.GetPartner(ctx, *partnerID)
		if err != nil {
			return Resolution{}, err
		}
		if partner != nil {
			return found(partner.ID), nil
		}
		r.logger.Warn("Requested partner does not exist", zap.Int64("partner_id", *partnerID))
	}

	customer, err := r.repo.FindEligibleCustomer(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if customer != nil {
		return found(customer.ID), nil
	}

	partner := &models.Partner{
		Name:         placeholderPartnerName,
		CompanyID:    models.SentinelID,
		CustomerRank: 1,
	}
	createErr := r.repo.Savepoint(ctx, "create_partner", func(ctx context.Context) error {
		return r.repo.CreatePartner(ctx, partner)
	})
	if createErr == nil {
		r.logger.Info("Created placeholder customer", zap.Int64("partner_id", partner.ID))
		return created(partner.ID), nil
	}
	r.logger.Error("Failed to create customer", zap.Error(createErr))

	fallback, err := r.repo.FindAnyPartner(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if fallback != nil {
		return fellBack(fallback.ID, createErr), nil
	}
	return fellBack(models.SentinelID, createErr), nil
}

// ProductFullName is the stored name of a storefront product
func ProductFullName(name string) string {
	return name + models.ProductNameSuffix
}

// ResolveProduct finds the storefront product by name or creates it with
// basePrice as list price. Unlike sessions and partners there is no
// sentinel: when creation fails and no product exists the outcome is Failed.
func (r *Resolver) ResolveProduct(ctx context.Context, name string, basePrice decimal.Decimal) (res Resolution) {
	ctx, span := util.StartSpan(ctx, "Resolver.ResolveProduct")
	defer span.End()
	defer func() { util.ResolutionsTotal.WithLabelValues("product", string(res.Outcome)).Inc() }()

	if name == "" {
		r.logger.Error("Received an empty product name")
		return failed(ErrMissingProductName)
	}
	fullName := ProductFullName(name)

	err := r.repo.Savepoint(ctx, "resolve_product", func(ctx context.Context) error {
		var err error
		res, err = r.findOrCreateProduct(ctx, fullName, basePrice)
		return err
	})
	if err == nil {
		return res
	}
	r.logger.Error("Failed to find or create product",
		zap.String("product_name", fullName), zap.Error(err))

	fallback, lookupErr := r.repo.FindPosProduct(ctx)
	if lookupErr == nil && fallback == nil {
		fallback, lookupErr = r.repo.FindAnyProduct(ctx)
	}
	if lookupErr != nil {
		r.logger.Error("Failed to look up fallback product", zap.Error(lookupErr))
		return failed(fmt.Errorf("%w: %s: %w", ErrProductUnresolved, name, errors.Join(err, lookupErr)))
	}
	if fallback == nil {
		return failed(fmt.Errorf("%w: %s: %w", ErrProductUnresolved, name, err))
	}

	r.logger.Warn("Using fallback product",
		zap.String("requested", fullName),
		zap.String("product_name", fallback.Name),
		zap.Int64("product_id", fallback.ID))
	return fellBack(fallback.ID, err)
}

func (r *Resolver) findOrCreateProduct(ctx context.Context, fullName string, basePrice decimal.Decimal) (Resolution, error) {
	if id, ok := r.cachedProduct(ctx, fullName); ok {
		return found(id), nil
	}

	product, err := r.repo.FindProductByName(ctx, fullName)
	if err != nil {
		return Resolution{}, err
	}
	if product != nil {
		r.remember(ctx, fullName, product.ID)
		return found(product.ID), nil
	}

	product, err = r.createProduct(ctx, fullName, basePrice)
	if err != nil {
		return Resolution{}, err
	}
	r.logger.Info("Created product",
		zap.String("product_name", fullName),
		zap.Int64("product_id", product.ID),
		zap.String("list_price", basePrice.String()))
	r.remember(ctx, fullName, product.ID)
	return created(product.ID), nil
}

// cachedProduct returns a cached id only if the row still carries that name.
func (r *Resolver) cachedProduct(ctx context.Context, fullName string) (int64, bool) {
	if r.cache == nil {
		return 0, false
	}

	id, ok, err := r.cache.GetProductID(ctx, fullName)
	if err != nil {
		util.ProductCacheTotal.WithLabelValues("error").Inc()
		r.logger.Warn("Product cache lookup failed", zap.String("product_name", fullName), zap.Error(err))
		return 0, false
	}
	if !ok {
		util.ProductCacheTotal.WithLabelValues("miss").Inc()
		return 0, false
	}

	product, err := r.repo.GetProduct(ctx, id)
	if err != nil {
		util.ProductCacheTotal.WithLabelValues("error").Inc()
		return 0, false
	}
	if product == nil || product.Name != fullName {
		util.ProductCacheTotal.WithLabelValues("stale").Inc()
		if err := r.cache.ForgetProduct(ctx, fullName); err != nil {
			r.logger.Warn("Failed to evict stale product id", zap.String("product_name", fullName), zap.Error(err))
		}
		return 0, false
	}
	util.ProductCacheTotal.WithLabelValues("hit").Inc()
	return id, true
}

func (r *Resolver) remember(ctx context.Context, fullName string, id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetProductID(ctx, fullName, id); err != nil {
		r.logger.Warn("Failed to cache product id", zap.String("product_name", fullName), zap.Error(err))
	}
}

func (r *Resolver) createProduct(ctx context.Context, fullName string, basePrice decimal.Decimal) (*models.Product, error) {
	companyID := models.SentinelID
	company, err := r.repo.DefaultCompany(ctx)
	if err != nil {
		return nil, err
	}
	if company != nil {
		companyID = company.ID
	}

	categID, err := r.defaultCategory(ctx)
	if err != nil {
		return nil, err
	}

	uomID := models.SentinelID
	uom, err := r.repo.FindUomByName(ctx, defaultUomName)
	if err == nil && uom == nil {
		uom, err = r.repo.FindAnyUom(ctx)
	}
	if err != nil {
		return nil, err
	}
	if uom != nil {
		uomID = uom.ID
	}

	code := []rune(fullName)
	if len(code) > defaultCodeMaxLen {
		code = code[:defaultCodeMaxLen]
	}

	product := &models.Product{
		Name:           fullName,
		DefaultCode:    string(code),
		Type:           "consu",
		ListPrice:      basePrice,
		StandardPrice:  decimal.Zero,
		AvailableInPos: true,
		SaleOk:         true,
		PurchaseOk:     true,
		CompanyID:      companyID,
		CategID:        categID,
		UomID:          uomID,
	}
	if err := r.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product %q: %w", fullName, err)
	}
	return product, nil
}

func (r *Resolver) defaultCategory(ctx context.Context) (int64, error) {
	category, err := r.repo.FindCategoryByName(ctx, defaultCategoryName)
	if err != nil {
		return 0, err
	}
	if category != nil {
		return category.ID, nil
	}

	category = &models.Category{Name: defaultCategoryName}
	err = r.repo.Savepoint(ctx, "create_category", func(ctx context.Context) error {
		return r.repo.CreateCategory(ctx, category)
	})
	if err == nil {
		return category.ID, nil
	}
	r.logger.Warn("Failed to create product category", zap.Error(err))

	category, err = r.repo.FindAnyCategory(ctx)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return models.SentinelID, nil
	}
	return category.ID, nil
}
