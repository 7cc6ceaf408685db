package store

import (
	"context"

	"pos-order-api/internal/models"
)

// GetPartner retrieves a partner by ID
func (s *Store) GetPartner(ctx context.Context, id int64) (*models.Partner, error) {
	var partner models.Partner
	found, err := s.get(ctx, &partner, "SELECT * FROM res_partner WHERE id = $1", id)
	if err != nil || !found {
		return nil, err
	}
	return &partner, nil
}

// FindEligibleCustomer returns the first individual that is not a supplier
func (s *Store) FindEligibleCustomer(ctx context.Context) (*models.Partner, error) {
	var partner models.Partner
	found, err := s.get(ctx, &partner,
		"SELECT * FROM res_partner WHERE is_company = FALSE AND supplier_rank = 0 ORDER BY id LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &partner, nil
}

// FindAnyPartner returns the first partner
func (s *Store) FindAnyPartner(ctx context.Context) (*models.Partner, error) {
	var partner models.Partner
	found, err := s.get(ctx, &partner, "SELECT * FROM res_partner ORDER BY id LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &partner, nil
}

// CreatePartner creates a new partner
func (s *Store) CreatePartner(ctx context.Context, partner *models.Partner) error {
	query := `
		INSERT INTO res_partner (name, is_company, customer_rank, supplier_rank, company_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return s.insert(ctx, &partner.ID, query,
		partner.Name, partner.IsCompany, partner.CustomerRank, partner.SupplierRank, partner.CompanyID)
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	found, err := s.get(ctx, &product, "SELECT * FROM product_product WHERE id = $1", id)
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

// FindProductByName retrieves a product by exact name
func (s *Store) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	found, err := s.get(ctx, &product,
		"SELECT * FROM product_product WHERE name = $1 ORDER BY id LIMIT 1", name)
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

// FindPosProduct returns the first product available in the point of sale
func (s *Store) FindPosProduct(ctx context.Context) (*models.Product, error) {
	var product models.Product
	found, err := s.get(ctx, &product,
		"SELECT * FROM product_product WHERE available_in_pos = TRUE ORDER BY id LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

// FindAnyProduct returns the first product
func (s *Store) FindAnyProduct(ctx context.Context) (*models.Product, error) {
	var product models.Product
	found, err := s.get(ctx, &product, "SELECT * FROM product_product ORDER BY id LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a new product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO product_product (
			name, default_code, type, list_price, standard_price,
			available_in_pos, sale_ok, purchase_ok, company_id, categ_id, uom_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	return s.insert(ctx, &product.ID, query,
		product.Name, product.DefaultCode, product.Type, product.ListPrice, product.StandardPrice,
		product.AvailableInPos, product.SaleOk, product.PurchaseOk,
		product.CompanyID, product.CategID, product.UomID)
}

// FindCategoryByName retrieves a category by exact name
func (s *Store) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	found, err := s.get(ctx, &category,
		"SELECT * FROM product_category WHERE name = $1 ORDER BY id LIMIT 1", name)
	if err != nil || !found {
		return nil, err
	}
	return &category, nil
}

// FindAnyCategory returns the first category
func (s *Store) FindAnyCategory(ctx context.Context) (*models.Category, error) {
	var category models.Category
	found, err := s.get(ctx, &category, "SELECT * FROM product_category ORDER BY id LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &category, nil
}

// CreateCategory creates a new category
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.insert(ctx, &category.ID,
		"INSERT INTO product_category (name, parent_id) VALUES ($1, $2) RETURNING id",
		category.Name, category.ParentID)
}

// FindUomByName retrieves a unit of measure by exact name
func (s *Store) FindUomByName(ctx context.Context, name string) (*models.Uom, error) {
	var uom models.Uom
	found, err := s.get(ctx, &uom, "SELECT * FROM uom_uom WHERE name = $1 ORDER BY id LIMIT 1", name)
	if err != nil || !found {
		return nil, err
	}
	return &uom, nil
}

// FindAnyUom returns the first unit of measure
func (s *Store) FindAnyUom(ctx context.Context) (*models.Uom, error) {
	var uom models.Uom
	found, err := s.get(ctx, &uom, "SELECT * FROM uom_uom ORDER BY id LIMIT 1")
	if err != nil || !found {
		return nil, err
	}
	return &uom, nil
}
