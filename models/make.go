package models

// Make is a vehicle manufacturer, the root of every taxonomy chain.
type Make struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;uniqueIndex;not null"`
	Icon string `gorm:"size:255"`
}

func (m *Make) TableName() string {
	return "makes"
}

func (m *Make) Ref() ParentRef {
	return MakeRef(m.ID)
}
