package shared

const (
	// CategoryAll is the category filter value that disables the category gate.
	CategoryAll = "all"

	// Section names double as backend resource paths.
	SectionContractors = "contractors"
	SectionSuppliers   = "suppliers"
)
