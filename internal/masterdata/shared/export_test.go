package shared_test

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractor-desk/contractor-desk/internal/masterdata/contractors"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/shared"
)

func TestWriteCSV(t *testing.T) {
	records := []contractors.Contractor{
		{ID: "1", SNo: 1, Name: "Alice", ContactNo: "555", Address: "Road 1, Gulshan", WorkCategory: "Piling"},
		{ID: "2", SNo: 2, Name: `Bob "The Builder"`, ContactNo: "777", Address: "Banani", WorkCategory: "Civil", Remarks: "ok"},
	}
	var out strings.Builder
	require.NoError(t, shared.WriteCSV(&out, contractors.Descriptor.CSVColumns, slices.Values(records)))

	want := "S. NO,NAME,CONTACT NO,ADDRESS,WORK CATEGORY,REMARKS\n" +
		`1,"Alice","555","Road 1, Gulshan","Piling",""` + "\n" +
		`2,"Bob ""The Builder""","777","Banani","Civil","ok"`
	assert.Equal(t, want, out.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var out strings.Builder
	require.NoError(t, shared.WriteCSV(&out, contractors.Descriptor.CSVColumns, slices.Values([]contractors.Contractor(nil))))
	assert.Equal(t, "S. NO,NAME,CONTACT NO,ADDRESS,WORK CATEGORY,REMARKS", out.String())
}

func TestWriteDocument(t *testing.T) {
	var out strings.Builder
	require.NoError(t, shared.WriteDocument(&out, contractors.Descriptor.DocFields, alice()))
	want := strings.Join([]string{
		"S. NO: 1",
		"Name: Alice",
		"Contact No: 555",
		"Address: X",
		"Work Category: Piling",
		"Remarks: N/A",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "Alice_Rahman_details.doc", shared.DocumentFilename("Alice  Rahman"))
	assert.Equal(t, "Solo_details.doc", shared.DocumentFilename("Solo"))
	assert.Equal(t, "Alice_Rahman_details.doc", shared.DocumentFilename("Alice\u00a0Rahman"))
	assert.Equal(t, "Alice_Rahman_details.doc", shared.DocumentFilename("Alice\u2003\tRahman"))
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "suppliers_2024-03-09.csv", shared.CSVFilename(shared.SectionSuppliers, now))
}

func TestDescriptorBindAndViews(t *testing.T) {
	values := map[string]string{
		"name":         "Alice",
		"contactNo":    "555",
		"address":      "X",
		"workCategory": "Piling",
		"remarks":      "note",
	}
	draft := contractors.Descriptor.Bind(func(name string) string { return values[name] })
	assert.Equal(t, contractors.Draft{Name: "Alice", ContactNo: "555", Address: "X", WorkCategory: "Piling", Remarks: "note"}, draft)

	views := contractors.Descriptor.FieldViews(draft)
	require.Len(t, views, 5)
	assert.Equal(t, "workCategory", views[3].Name)
	assert.Equal(t, "Piling", views[3].Value)
	assert.True(t, views[3].Required)
	assert.False(t, views[4].Required)

	assert.Equal(t, []string{"S. No", "Name", "Contact No", "Address", "Work Category", "Remarks"}, contractors.Descriptor.Headers())
	assert.Equal(t, "N/A", contractors.Descriptor.Cells(alice())[5])
}
