package contractors

import (
	"encoding/json"
	"strconv"

	internalShared "github.com/contractor-desk/contractor-desk/internal/shared"
)

// Contractor is a contractor record as stored by the backend.
type Contractor struct {
	ID           string `json:"id" yaml:"id"`
	SNo          int    `json:"sNo" yaml:"sNo"`
	Name         string `json:"name" yaml:"name"`
	ContactNo    string `json:"contactNo" yaml:"contactNo"`
	Address      string `json:"address" yaml:"address"`
	WorkCategory string `json:"workCategory" yaml:"workCategory"`
	Remarks      string `json:"remarks" yaml:"remarks"`
}

// Draft holds the mutable fields of a Contractor, in validation order.
type Draft struct {
	Name         string `json:"name" validate:"notblank"`
	ContactNo    string `json:"contactNo" validate:"notblank"`
	Address      string `json:"address" validate:"notblank"`
	WorkCategory string `json:"workCategory" validate:"notblank"`
	Remarks      string `json:"remarks"`
}

// UnmarshalJSON tolerates numeric ids, "_id" and string serial numbers.
func (c *Contractor) UnmarshalJSON(data []byte) error {
	type alias Contractor
	var aux struct {
		alias
		ID      json.RawMessage `json:"id"`
		MongoID json.RawMessage `json:"_id"`
		SNo     json.RawMessage `json:"sNo"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Contractor(aux.alias)
	c.ID = internalShared.FlexibleID(aux.ID)
	if c.ID == "" {
		c.ID = internalShared.FlexibleID(aux.MongoID)
	}
	c.SNo, _ = strconv.Atoi(internalShared.FlexibleID(aux.SNo))
	return nil
}

func (c Contractor) Key() string { return c.ID }

func (c Contractor) WithKey(id string) Contractor {
	c.ID = id
	return c
}

func (c Contractor) Draft() Draft {
	return Draft{
		Name:         c.Name,
		ContactNo:    c.ContactNo,
		Address:      c.Address,
		WorkCategory: c.WorkCategory,
		Remarks:      c.Remarks,
	}
}

func (c Contractor) FilterCategory() string { return c.WorkCategory }

func (c Contractor) Contact() string { return c.ContactNo }

func (c Contractor) Title() string { return c.Name }

func (c Contractor) SearchFields() []string {
	return []string{c.Name, c.Address, c.WorkCategory, c.Remarks}
}
