package hierarchy

import (
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

// ParentSelection is the admin-facing way to pick a parent: a make or a
// model, never both and never neither.
type ParentSelection struct {
	MakeID  *uint `json:"make_parent,omitempty"`
	ModelID *uint `json:"model_parent,omitempty"`
}

// Ref validates the selection and returns the chosen node.
func (s ParentSelection) Ref() (models.ParentRef, error) {
	hasMake := s.MakeID != nil && *s.MakeID != 0
	hasModel := s.ModelID != nil && *s.ModelID != 0
	switch {
	case hasMake && hasModel:
		return models.ParentRef{}, &models.ValidationError{Err: models.ErrAmbiguousParent}
	case hasMake:
		return models.MakeRef(*s.MakeID), nil
	case hasModel:
		return models.CarModelRef(*s.ModelID), nil
	}
	return models.ParentRef{}, &models.ValidationError{Err: models.ErrMissingParent}
}

// CarModelParent validates the selection for the car model with id self.
// self is zero for a model that does not exist yet.
func (s ParentSelection) CarModelParent(self uint) (models.ParentRef, error) {
	ref, err := s.Ref()
	if err != nil {
		return ref, err
	}
	if self != 0 && ref == models.CarModelRef(self) {
		return models.ParentRef{}, &models.ValidationError{Field: "model_parent", Err: models.ErrSelfParent}
	}
	return ref, nil
}

func SelectMake(id uint) ParentSelection {
	return ParentSelection{MakeID: &id}
}

func SelectModel(id uint) ParentSelection {
	return ParentSelection{ModelID: &id}
}

// SelectionOf turns a resolved reference back into a selection.
func SelectionOf(ref models.ParentRef) ParentSelection {
	if ref.IsMake() {
		return SelectMake(ref.ID)
	}
	return SelectModel(ref.ID)
}
