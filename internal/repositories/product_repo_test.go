package repositories

import (
	"context"
	"testing"
	"time"

	"orderhub/internal/common"
	"orderhub/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const updateProductSQL = `UPDATE products\s+SET name = \$1, description = \$2, category = \$3, price = \$4, is_active = \$5, updated_at = \$6\s+WHERE sku = \$7`

type ProductRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    ProductRepository
	product *models.Product
	context context.Context
}

func (suite *ProductRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewProductRepo(mock)
	suite.product = &models.Product{
		Sku:       "prod-001",
		Name:      "Widget",
		Category:  "tools",
		Price:     decimal.RequireFromString("12.50"),
		IsActive:  true,
		UpdatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	suite.context = context.Background()
}

func (suite *ProductRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestProductRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ProductRepoTestSuite))
}

func (suite *ProductRepoTestSuite) expectUpdate() *pgxmock.ExpectedExec {
	p := suite.product
	return suite.mock.ExpectExec(updateProductSQL).
		WithArgs(p.Name, p.Description, p.Category, pgxmock.AnyArg(), p.IsActive, p.UpdatedAt, p.Sku)
}

func (suite *ProductRepoTestSuite) TestUpdate_Success() {
	suite.expectUpdate().WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	found, err := suite.repo.Update(suite.context, suite.product)

	require.NoError(suite.T(), err)
	assert.True(suite.T(), found)
}

func (suite *ProductRepoTestSuite) TestUpdate_UnknownSku() {
	suite.expectUpdate().WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	found, err := suite.repo.Update(suite.context, suite.product)

	require.NoError(suite.T(), err)
	assert.False(suite.T(), found)
}

func (suite *ProductRepoTestSuite) TestUpdate_CheckViolationIsWrapped() {
	suite.expectUpdate().WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "products_price_check"})

	found, err := suite.repo.Update(suite.context, suite.product)

	require.Error(suite.T(), err)
	assert.False(suite.T(), found)
	assert.Contains(suite.T(), err.Error(), "update product")
	assert.False(suite.T(), common.IsValidation(err))
}
