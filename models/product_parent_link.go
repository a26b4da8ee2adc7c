package models

// ProductParentLink attaches a Product to one Make or CarModel. A product
// carries one link per level of the chain it belongs to; membership is
// never derived from the tree at query time.
type ProductParentLink struct {
	ID         uint       `gorm:"primaryKey"`
	ProductID  uint       `gorm:"not null;uniqueIndex:idx_product_parent_links_triple,priority:1"`
	ParentKind ParentKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_product_parent_links_triple,priority:2;index:idx_product_parent_links_parent,priority:1"`
	ParentID   uint       `gorm:"not null;uniqueIndex:idx_product_parent_links_triple,priority:3;index:idx_product_parent_links_parent,priority:2"`
	Product    *Product   `gorm:"foreignKey:ProductID"`
}

func (l *ProductParentLink) TableName() string {
	return "product_parent_links"
}

func (l *ProductParentLink) Parent() ParentRef {
	return ParentRef{Kind: l.ParentKind, ID: l.ParentID}
}
