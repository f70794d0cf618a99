package suppliers

import (
	"encoding/json"
	"strconv"

	internalShared "github.com/contractor-desk/contractor-desk/internal/shared"
)

// Supplier is a supplier record as stored by the backend.
type Supplier struct {
	ID            string `json:"id" yaml:"id"`
	SNo           int    `json:"sNo" yaml:"sNo"`
	Name          string `json:"name" yaml:"name"`
	ContactNo     string `json:"contactNo" yaml:"contactNo"`
	Address       string `json:"address" yaml:"address"`
	Category      string `json:"category" yaml:"category"`
	SuppliedItems string `json:"suppliedItems" yaml:"suppliedItems"`
	Remarks       string `json:"remarks" yaml:"remarks"`
}

// Draft holds the mutable fields of a Supplier, in validation order.
type Draft struct {
	Name          string `json:"name" validate:"notblank"`
	ContactNo     string `json:"contactNo" validate:"notblank"`
	Address       string `json:"address" validate:"notblank"`
	Category      string `json:"category" validate:"notblank"`
	SuppliedItems string `json:"suppliedItems" validate:"notblank"`
	Remarks       string `json:"remarks"`
}

// UnmarshalJSON tolerates numeric ids, "_id" and string serial numbers.
func (s *Supplier) UnmarshalJSON(data []byte) error {
	type alias Supplier
	var aux struct {
		alias
		ID      json.RawMessage `json:"id"`
		MongoID json.RawMessage `json:"_id"`
		SNo     json.RawMessage `json:"sNo"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Supplier(aux.alias)
	s.ID = internalShared.FlexibleID(aux.ID)
	if s.ID == "" {
		s.ID = internalShared.FlexibleID(aux.MongoID)
	}
	s.SNo, _ = strconv.Atoi(internalShared.FlexibleID(aux.SNo))
	return nil
}

func (s Supplier) Key() string { return s.ID }

func (s Supplier) WithKey(id string) Supplier {
	s.ID = id
	return s
}

func (s Supplier) Draft() Draft {
	return Draft{
		Name:          s.Name,
		ContactNo:     s.ContactNo,
		Address:       s.Address,
		Category:      s.Category,
		SuppliedItems: s.SuppliedItems,
		Remarks:       s.Remarks,
	}
}

func (s Supplier) Contact() string { return s.ContactNo }

func (s Supplier) Title() string { return s.Name }

func (s Supplier) SearchFields() []string {
	return []string{s.Name, s.Address, s.Category, s.SuppliedItems, s.Remarks}
}

func (s Supplier) FilterCategory() string { return s.Category }
