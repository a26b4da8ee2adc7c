package models

// CarModel is a model or sub-model. Its parent is either a Make or
// another CarModel, stored as a (kind, id) pair.
type CarModel struct {
	ID         uint       `gorm:"primaryKey"`
	Name       string     `gorm:"size:50;not null;uniqueIndex:idx_car_models_parent_name,priority:3"`
	ParentKind ParentKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_car_models_parent_name,priority:1"`
	ParentID   uint       `gorm:"not null;uniqueIndex:idx_car_models_parent_name,priority:2"`
}

func (m *CarModel) TableName() string {
	return "car_models"
}

func (m *CarModel) Ref() ParentRef {
	return CarModelRef(m.ID)
}

// Parent returns the node this model hangs from.
func (m *CarModel) Parent() ParentRef {
	return ParentRef{Kind: m.ParentKind, ID: m.ParentID}
}

func (m *CarModel) SetParent(ref ParentRef) {
	m.ParentKind = ref.Kind
	m.ParentID = ref.ID
}
