package contractors

import (
	"strconv"

	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/shared"
)

// Resource is the backend collection path.
const Resource = shared.SectionContractors

// Client is the Entity Client for contractors.
type Client = backend.Entities[Contractor, Draft]

// NewClient binds the contractor collection to conn.
func NewClient(conn *backend.Conn) *Client {
	return backend.NewEntities[Contractor, Draft](conn, Resource)
}

// List and Form are the contractor controllers.
type (
	List = shared.List[Contractor, Draft]
	Form = shared.Form[Contractor, Draft]
)

func sno(c Contractor) string { return strconv.Itoa(c.SNo) }

func remarksOrNA(c Contractor) string {
	if c.Remarks == "" {
		return "N/A"
	}
	return c.Remarks
}

// Descriptor presents contractors to the section handlers and exporters.
var Descriptor = shared.Descriptor[Contractor, Draft]{
	Section:       Resource,
	Singular:      "Contractor",
	Plural:        "Contractors",
	CategoryLabel: "Work Category",
	SearchHint:    "Search contractors by name, contact, address, category, or remarks...",
	TableColumns: []shared.Column[Contractor]{
		{Header: "S. No", Value: sno},
		{Header: "Name", Value: func(c Contractor) string { return c.Name }},
		{Header: "Contact No", Value: func(c Contractor) string { return c.ContactNo }},
		{Header: "Address", Value: func(c Contractor) string { return c.Address }},
		{Header: "Work Category", Value: func(c Contractor) string { return c.WorkCategory }},
		{Header: "Remarks", Value: remarksOrNA},
	},
	CSVColumns: []shared.Column[Contractor]{
		{Header: "S. NO", Value: sno},
		{Header: "NAME", Value: func(c Contractor) string { return c.Name }, Quoted: true},
		{Header: "CONTACT NO", Value: func(c Contractor) string { return c.ContactNo }, Quoted: true},
		{Header: "ADDRESS", Value: func(c Contractor) string { return c.Address }, Quoted: true},
		{Header: "WORK CATEGORY", Value: func(c Contractor) string { return c.WorkCategory }, Quoted: true},
		{Header: "REMARKS", Value: func(c Contractor) string { return c.Remarks }, Quoted: true},
	},
	DocFields: []shared.DocField[Contractor]{
		{Label: "S. NO", Value: sno},
		{Label: "Name", Value: func(c Contractor) string { return c.Name }},
		{Label: "Contact No", Value: func(c Contractor) string { return c.ContactNo }},
		{Label: "Address", Value: func(c Contractor) string { return c.Address }},
		{Label: "Work Category", Value: func(c Contractor) string { return c.WorkCategory }},
		{Label: "Remarks", Value: remarksOrNA},
	},
	FormFields: []shared.FormField[Draft]{
		{
			Name: "name", Label: "Name", Placeholder: "Enter contractor name", Required: true,
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
			Name: "workCategory", Label: "Work Category", Placeholder: "e.g., Piling, Construction, Electrical", Required: true,
			Get: func(d Draft) string { return d.WorkCategory },
			Set: func(d *Draft, v string) { d.WorkCategory = v },
		},
		{
			Name: "remarks", Label: "Remarks", Placeholder: "Additional notes or remarks", Multiline: true,
			Get: func(d Draft) string { return d.Remarks },
			Set: func(d *Draft, v string) { d.Remarks = v },
		},
	},
}
