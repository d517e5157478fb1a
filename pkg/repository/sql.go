package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/dairyshop/pkg/config"
	"github.com/example/dairyshop/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// SQLRepository is the MySQL order/product backend. It exists so the
// storage driver can be swapped by configuration without touching the
// packages that consume the repository interfaces.
type SQLRepository struct {
	db *gorm.DB
}

// orderRow is the relational shape of an order; line items are kept as a
// JSON text column.
type orderRow struct {
	ID             string `gorm:"primaryKey;type:varchar(32)"`
	UserID         string `gorm:"type:varchar(64);not null;index"`
	CustomerName   string `gorm:"type:varchar(200)"`
	CustomerPhone  string `gorm:"type:varchar(20)"`
	CustomerAddr   string `gorm:"type:text"`
	CustomerEmail  string `gorm:"type:varchar(200)"`
	Landmark       string `gorm:"type:varchar(200)"`
	Items          string `gorm:"type:text"`
	DeliverySlot   string `gorm:"type:varchar(20)"`
	Instructions   string `gorm:"type:text"`
	Subtotal       float64 `gorm:"type:decimal(10,2)"`
	DeliveryCharge float64 `gorm:"type:decimal(10,2)"`
	Total          float64 `gorm:"type:decimal(10,2)"`
	Status         string  `gorm:"type:varchar(20);default:'pending'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (orderRow) TableName() string {
	return "orders"
}

func NewSQLRepository(cfg *config.MySQLConfig) (*SQLRepository, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.AutoMigrate(&models.Product{}, &orderRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &SQLRepository{db: db}, nil
}

func (s *SQLRepository) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLRepository) Products() ProductRepository {
	return &sqlProducts{db: s.db}
}

func (s *SQLRepository) Orders() OrderRepository {
	return &sqlOrders{db: s.db}
}

type sqlProducts struct {
	db *gorm.DB
}

func (p *sqlProducts) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return &product, nil
}

func (p *sqlProducts) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := p.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (p *sqlProducts) ListInStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := p.db.WithContext(ctx).
		Where("in_stock = ?", true).
		Order("category, name").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

type sqlOrders struct {
	db *gorm.DB
}

func (o *sqlOrders) Create(ctx context.Context, order *models.Order) error {
	row, err := toRow(order)
	if err != nil {
		return err
	}
	return o.db.WithContext(ctx).Create(row).Error
}

func (o *sqlOrders) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var row orderRow
	if err := o.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDocument
		}
		return nil, err
	}
	return fromRow(&row)
}

func (o *sqlOrders) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := o.db.WithContext(ctx).Model(&orderRow{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (o *sqlOrders) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Order, error) {
	var rows []orderRow
	err := o.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(int(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	for i := range rows {
		order, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (o *sqlOrders) UpdateStatus(ctx context.Context, id, status string) error {
	res := o.db.WithContext(ctx).Model(&orderRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoDocument
	}
	return nil
}

func toRow(order *models.Order) (*orderRow, error) {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize items: %w", err)
	}
	return &orderRow{
		ID:             order.ID,
		UserID:         order.UserID,
		CustomerName:   order.Customer.Name,
		CustomerPhone:  order.Customer.Phone,
		CustomerAddr:   order.Customer.Address,
		CustomerEmail:  order.Customer.Email,
		Landmark:       order.Customer.Landmark,
		Items:          string(itemsJSON),
		DeliverySlot:   order.DeliverySlot,
		Instructions:   order.Instructions,
		Subtotal:       order.Subtotal,
		DeliveryCharge: order.DeliveryCharge,
		Total:          order.Total,
		Status:         order.Status,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}, nil
}

func fromRow(row *orderRow) (*models.Order, error) {
	var items []models.OrderItem
	if row.Items != "" {
		if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
			return nil, fmt.Errorf("failed to parse items: %w", err)
		}
	}
	return &models.Order{
		ID:     row.ID,
		UserID: row.UserID,
		Customer: models.CustomerInfo{
			Name:     row.CustomerName,
			Phone:    row.CustomerPhone,
			Address:  row.CustomerAddr,
			Email:    row.CustomerEmail,
			Landmark: row.Landmark,
		},
		Items:          items,
		DeliverySlot:   row.DeliverySlot,
		Instructions:   row.Instructions,
		Subtotal:       row.Subtotal,
		DeliveryCharge: row.DeliveryCharge,
		Total:          row.Total,
		Status:         row.Status,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}
