package suppliers

import (
	"strconv"

	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/shared"
)

// Resource is the backend collection path.
const Resource = shared.SectionSuppliers

// Client is the Entity Client for suppliers.
type Client = backend.Entities[Supplier, Draft]

// NewClient binds the supplier collection to conn.
func NewClient(conn *backend.Conn) *Client {
	return backend.NewEntities[Supplier, Draft](conn, Resource)
}

// List and Form are the supplier controllers.
type (
	List = shared.List[Supplier, Draft]
	Form = shared.Form[Supplier, Draft]
)

func sno(s Supplier) string { return strconv.Itoa(s.SNo) }

// Descriptor presents suppliers to the section handlers and exporters.
var Descriptor = shared.Descriptor[Supplier, Draft]{
	Section:       Resource,
	Singular:      "Supplier",
	Plural:        "Suppliers",
	CategoryLabel: "Category",
	SearchHint:    "Search suppliers by name, contact, address, category, items, or remarks...",
	TableColumns: []shared.Column[Supplier]{
		{Header: "S. No", Value: sno},
		{Header: "Name", Value: func(s Supplier) string { return s.Name }},
		{Header: "Contact No", Value: func(s Supplier) string { return s.ContactNo }},
		{Header: "Address", Value: func(s Supplier) string { return s.Address }},
		{Header: "Category", Value: func(s Supplier) string { return s.Category }},
		{Header: "Supplied Items", Value: func(s Supplier) string { return s.SuppliedItems }},
		{Header: "Remarks", Value: func(s Supplier) string { return s.Remarks }},
	},
	CSVColumns: []shared.Column[Supplier]{
		{Header: "S. NO", Value: sno},
		{Header: "NAME", Value: func(s Supplier) string { return s.Name }, Quoted: true},
		{Header: "CONTACT NO", Value: func(s Supplier) string { return s.ContactNo }, Quoted: true},
		{Header: "ADDRESS", Value: func(s Supplier) string { return s.Address }, Quoted: true},
		{Header: "CATEGORY", Value: func(s Supplier) string { return s.Category }, Quoted: true},
		{Header: "SUPPLIED ITEMS", Value: func(s Supplier) string { return s.SuppliedItems }, Quoted: true},
		{Header: "REMARKS", Value: func(s Supplier) string { return s.Remarks }, Quoted: true},
	},
	DocFields: []shared.DocField[Supplier]{
		{Label: "S. NO", Value: sno},
		{Label: "Name", Value: func(s Supplier) string { return s.Name }},
		{Label: "Contact No", Value: func(s Supplier) string { return s.ContactNo }},
		{Label: "Address", Value: func(s Supplier) string { return s.Address }},
		{Label: "Category", Value: func(s Supplier) string { return s.Category }},
		{Label: "Supplied Items", Value: func(s Supplier) string { return s.SuppliedItems }},
		{Label: "Remarks", Value: func(s Supplier) string { return s.Remarks }},
	},
	FormFields: []shared.FormField[Draft]{
		{
			Name: "name", Label: "Name", Placeholder: "Enter supplier name", Required: true,
			Get: func(d Draft) string { return d.Name },
			Set: func(d *Draft, v string) { d.Name = v },
		},
		{
			Name: "contactNo", Label: "Contact Number", Placeholder: "e.g., +880 17 1234 5678", Required: true,
			Get: func(d Draft) string { return d.ContactNo },
			Set: func(d *Draft, v string) { d.ContactNo = v },
		},
		{
			Name: "address", Label: "Address", Placeholder: "Enter full address", Required: true, Multiline: true,
			Get: func(d Draft) string { return d.Address },
			Set: func(d *Draft, v string) { d.Address = v },
		},
		{
			Name: "category", Label: "Category", Placeholder: "e.g., Construction Materials", Required: true,
			Get: func(d Draft) string { return d.Category },
			Set: func(d *Draft, v string) { d.Category = v },
		},
		{
			Name: "suppliedItems", Label: "Supplied Items", Placeholder: "e.g., Steel bars, beams, plates", Required: true, Multiline: true,
			Get: func(d Draft) string { return d.SuppliedItems },
			Set: func(d *Draft, v string) { d.SuppliedItems = v },
		},
		{
			Name: "remarks", Label: "Remarks", Placeholder: "Additional notes or remarks", Multiline: true,
			Get: func(d Draft) string { return d.Remarks },
			Set: func(d *Draft, v string) { d.Remarks = v },
		},
	},
}
