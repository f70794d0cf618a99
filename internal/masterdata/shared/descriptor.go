package shared

// FormField describes one draft input.
type FormField[D any] struct {
	Name        string
	Label       string
	Placeholder string
	Required    bool
	Multiline   bool
	Get         func(D) string
	Set         func(*D, string)
}

// FieldView is a FormField with its current value, ready for templates.
type FieldView struct {
	Name        string
	Label       string
	Placeholder string
	Required    bool
	Multiline   bool
	Value       string
}

// Descriptor tells the section handlers how to present one entity type.
type Descriptor[R Record[R, D], D any] struct {
	Section       string
	Singular      string
	Plural        string
	CategoryLabel string
	SearchHint    string
	TableColumns  []Column[R]
	CSVColumns    []Column[R]
	DocFields     []DocField[R]
	FormFields    []FormField[D]
}

// Bind builds a draft from submitted values, looked up by field name.
func (d Descriptor[R, D]) Bind(get func(name string) string) D {
	var draft D
	for _, f := range d.FormFields {
		f.Set(&draft, get(f.Name))
	}
	return draft
}

// FieldViews pairs every form field with its value in draft.
func (d Descriptor[R, D]) FieldViews(draft D) []FieldView {
	views := make([]FieldView, len(d.FormFields))
	for i, f := range d.FormFields {
		views[i] = FieldView{
			Name:        f.Name,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Required:    f.Required,
			Multiline:   f.Multiline,
			Value:       f.Get(draft),
		}
	}
	return views
}

// Headers returns the table column headers.
func (d Descriptor[R, D]) Headers() []string {
	out := make([]string, len(d.TableColumns))
	for i, c := range d.TableColumns {
		out[i] = c.Header
	}
	return out
}

// Cells renders one table row.
func (d Descriptor[R, D]) Cells(r R) []string {
	out := make([]string, len(d.TableColumns))
	for i, c := range d.TableColumns {
		out[i] = c.Value(r)
	}
	return out
}
