package models

// Product is a sellable exhaust system. It has no structural parent of its
// own; ProductParentLink rows attach it to taxonomy nodes.
type Product struct {
	ID       uint                `gorm:"primaryKey"`
	Name     string              `gorm:"size:255;not null;index"`
	Variants []Variant           `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Links    []ProductParentLink `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (p *Product) TableName() string {
	return "products"
}
