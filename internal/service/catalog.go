package service

import (
	"context"
	"fmt"
	"strings"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store"
	"pos-order-api/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultImageSize is used when the caller does not ask for one
const DefaultImageSize = "1920"

// ProductInfo is the storefront view of a product
type ProductInfo struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	ListPrice float64 `json:"list_price"`
	ImageURL  string  `json:"image_url"`
}

// CatalogService looks up and creates storefront products
type CatalogService struct {
	repo     store.Repository
	resolver *Resolver
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo store.Repository, resolver *Resolver) *CatalogService {
	return &CatalogService{repo: repo, resolver: resolver, logger: util.GetLogger()}
}

// ImageURL builds the image address of a product; baseURL is scheme://host
func ImageURL(baseURL string, productID int64, size string) string {
	if size == "" {
		size = DefaultImageSize
	}
	return fmt.Sprintf("%s/web/image/product.product/%d/image_%s", strings.TrimRight(baseURL, "/"), productID, size)
}

// GetProductByName looks up the storefront product without creating it
func (c *CatalogService) GetProductByName(ctx context.Context, name, baseURL, imageSize string) (*ProductInfo, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProductByName")
	defer span.End()

	if name == "" {
		return nil, ErrMissingProductName
	}

	product, err := c.repo.FindProductByName(ctx, ProductFullName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return productInfo(product, baseURL, imageSize), nil
}

// GetOrCreateProduct resolves the storefront product, creating it with
// price as its list price when absent
func (c *CatalogService) GetOrCreateProduct(ctx context.Context, name string, price decimal.Decimal, baseURL, imageSize string) (*ProductInfo, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetOrCreateProduct")
	defer span.End()

	if name == "" {
		return nil, ErrMissingProductName
	}

	var product *models.Product
	err := c.repo.Execute(ctx, func(ctx context.Context) error {
		res := c.resolver.ResolveProduct(ctx, name, price)
		if res.Outcome == OutcomeFailed {
			return res.Err
		}

		var err error
		product, err = c.repo.GetProduct(ctx, res.ID)
		if err == nil && product == nil {
			err = fmt.Errorf("%w: %s", ErrProductUnresolved, name)
		}
		return err
	})
	if err != nil {
		c.logger.Error("Get or create product failed", zap.String("product_name", name), zap.Error(err))
		return nil, err
	}
	return productInfo(product, baseURL, imageSize), nil
}

func productInfo(p *models.Product, baseURL, imageSize string) *ProductInfo {
	return &ProductInfo{
		ProductID: p.ID,
		Name:      p.Name,
		ListPrice: p.ListPrice.InexactFloat64(),
		ImageURL:  ImageURL(baseURL, p.ID, imageSize),
	}
}
