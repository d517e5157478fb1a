package models

// Product is a sellable catalog entry. The catalog is maintained by an
// external sync process; this service only reads it.
type Product struct {
	ID          string  `bson:"_id" json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name        string  `bson:"name" json:"name" gorm:"type:varchar(200);not null"`
	NameHindi   string  `bson:"name_hi,omitempty" json:"name_hi,omitempty" gorm:"type:varchar(200)"`
	NameMarathi string  `bson:"name_mr,omitempty" json:"name_mr,omitempty" gorm:"type:varchar(200)"`
	Price       float64 `bson:"price" json:"price" gorm:"type:decimal(10,2)"`
	Unit        string  `bson:"unit" json:"unit" gorm:"type:varchar(30)"`
	Category    string  `bson:"category" json:"category" gorm:"type:varchar(50);index"`
	InStock     bool    `bson:"in_stock" json:"in_stock"`
	Featured    bool    `bson:"featured" json:"featured"`
}

func (Product) TableName() string {
	return "products"
}
