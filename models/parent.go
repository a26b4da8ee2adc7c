package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ParentKind enumerates the record kinds a taxonomy node can hang from.
// The set is closed: there is no runtime registration of new kinds.
type ParentKind uint8

const (
	ParentKindMake ParentKind = iota + 1
	ParentKindCarModel
)

const (
	parentKindMakeName     = "make"
	parentKindCarModelName = "carmodel"
)

// ParseParentKind maps the wire/database name of a kind to its value.
func ParseParentKind(s string) (ParentKind, error) {
	switch s {
	case parentKindMakeName:
		return ParentKindMake, nil
	case parentKindCarModelName:
		return ParentKindCarModel, nil
	}
	return 0, &ValidationError{Field: "parent_kind", Err: fmt.Errorf("%w: %q", ErrUnknownParentKind, s)}
}

func (k ParentKind) String() string {
	switch k {
	case ParentKindMake:
		return parentKindMakeName
	case ParentKindCarModel:
		return parentKindCarModelName
	}
	return fmt.Sprintf("ParentKind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k ParentKind) Valid() bool {
	return k == ParentKindMake || k == ParentKindCarModel
}

// Value stores the kind as its name so rows stay readable.
func (k ParentKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParentKind, uint8(k))
	}
	return k.String(), nil
}

func (k *ParentKind) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan parent kind: unsupported type %T", src)
	}
	parsed, err := ParseParentKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k ParentKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownParentKind, uint8(k))
	}
	return json.Marshal(k.String())
}

func (k *ParentKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseParentKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// GormDataType keeps the column a short string on every dialect.
func (ParentKind) GormDataType() string {
	return "varchar(16)"
}

// ParentRef points at one taxonomy node: a Make or a CarModel.
// Build it with MakeRef or CarModelRef and switch on Kind exhaustively.
type ParentRef struct {
	Kind ParentKind `json:"kind"`
	ID   uint       `json:"id"`
}

func MakeRef(id uint) ParentRef {
	return ParentRef{Kind: ParentKindMake, ID: id}
}

func CarModelRef(id uint) ParentRef {
	return ParentRef{Kind: ParentKindCarModel, ID: id}
}

// NewParentRef validates a (kind, id) pair coming from outside the process.
func NewParentRef(kind string, id uint) (ParentRef, error) {
	k, err := ParseParentKind(kind)
	if err != nil {
		return ParentRef{}, err
	}
	if id == 0 {
		return ParentRef{}, &ValidationError{Field: "parent_id", Err: ErrMissingParent}
	}
	return ParentRef{Kind: k, ID: id}, nil
}

func (r ParentRef) IsMake() bool     { return r.Kind == ParentKindMake }
func (r ParentRef) IsCarModel() bool { return r.Kind == ParentKindCarModel }

func (r ParentRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}
