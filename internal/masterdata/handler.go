// Package masterdata serves the contractor and supplier sections of the desk.
package masterdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/contractor-desk/contractor-desk/internal/masterdata/contractors"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/shared"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/suppliers"
	"github.com/contractor-desk/contractor-desk/internal/platform/httpx"
	"github.com/contractor-desk/contractor-desk/internal/session"
	internalShared "github.com/contractor-desk/contractor-desk/internal/shared"
	"github.com/contractor-desk/contractor-desk/internal/view"
	"github.com/contractor-desk/contractor-desk/report"
)

// PDFRenderer converts an HTML page into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Handler serves both record sections.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *internalShared.CSRFManager
	desks     *Desks
	pdf       PDFRenderer
	now       func() time.Time
}

// NewHandler builds the section handler. pdf may be nil.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *internalShared.CSRFManager, desks *Desks, pdf PDFRenderer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, csrf: csrf, desks: desks, pdf: pdf, now: time.Now}
}

// MountRoutes registers /contractors and /suppliers.
func (h *Handler) MountRoutes(r chi.Router) {
	mountSection(r, h, contractors.Descriptor, func(d *Desk) *Section[contractors.Contractor, contractors.Draft] {
		return d.Contractors
	})
	mountSection(r, h, suppliers.Descriptor, func(d *Desk) *Section[suppliers.Supplier, suppliers.Draft] {
		return d.Suppliers
	})
}

// Nav lists the sidebar entries with active marked.
func Nav(active string) []view.NavItem {
	return []view.NavItem{
		{Label: contractors.Descriptor.Plural, Href: "/" + shared.SectionContractors, Active: active == shared.SectionContractors},
		{Label: suppliers.Descriptor.Plural, Href: "/" + shared.SectionSuppliers, Active: active == shared.SectionSuppliers},
	}
}

type section[R shared.Record[R, D], D any] struct {
	h    *Handler
	desc shared.Descriptor[R, D]
	pick func(*Desk) *Section[R, D]
}

func mountSection[R shared.Record[R, D], D any](r chi.Router, h *Handler, desc shared.Descriptor[R, D], pick func(*Desk) *Section[R, D]) {
	s := &section[R, D]{h: h, desc: desc, pick: pick}
	r.Route("/"+desc.Section, func(r chi.Router) {
		r.Get("/", s.list)
		r.Get("/new", s.newForm)
		r.Post("/form", s.submit)
		r.Post("/form/cancel", s.cancel)
		r.Get("/export.csv", s.exportCSV)
		r.Get("/{id}/edit", s.editForm)
		r.Post("/{id}/delete", s.delete)
		r.Get("/{id}/document", s.document)
		r.Get("/{id}/document.pdf", s.documentPDF)
	})
}

func (s *section[R, D]) base() string {
	return "/" + s.desc.Section
}

func (s *section[R, D]) workspace(w http.ResponseWriter, r *http.Request) (*Desk, *Section[R, D], bool) {
	sess := internalShared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, nil, false
	}
	desk := s.h.desks.For(sess.ID)
	return desk, s.pick(desk), true
}

// activate loads the section if needed. It returns the message to show when
// loading failed, and false when the response has already been written.
func (s *section[R, D]) activate(w http.ResponseWriter, r *http.Request, desk *Desk, reload bool) (string, bool) {
	if _, err := desk.Activate(r.Context(), s.desc.Section, reload); err != nil {
		if errors.Is(err, internalShared.ErrSessionExpired) {
			s.h.expire(w, r)
			return "", false
		}
		s.h.logger.Error("load records failed", slog.String("section", s.desc.Section), slog.Any("error", err))
		return internalShared.UserMessage(err, "Failed to load "+strings.ToLower(s.desc.Plural)), true
	}
	return "", true
}

func (s *section[R, D]) list(w http.ResponseWriter, r *http.Request) {
	desk, sec, ok := s.workspace(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if q.Has("q") || q.Has("category") {
		sec.List.SetFilters(shared.Filters{Search: q.Get("q"), Category: q.Get("category")})
	}
	loadErr, ok := s.activate(w, r, desk, q.Get("reload") == "1")
	if !ok {
		return
	}
	s.render(w, r, sec, loadErr, http.StatusOK)
}

func (s *section[R, D]) newForm(w http.ResponseWriter, r *http.Request) {
	desk, sec, ok := s.workspace(w, r)
	if !ok {
		return
	}
	loadErr, ok := s.activate(w, r, desk, false)
	if !ok {
		return
	}
	sec.Form.OpenForCreate()
	s.render(w, r, sec, loadErr, http.StatusOK)
}

func (s *section[R, D]) editForm(w http.ResponseWriter, r *http.Request) {
	desk, sec, ok := s.workspace(w, r)
	if !ok {
		return
	}
	loadErr, ok := s.activate(w, r, desk, false)
	if !ok {
		return
	}
	rec, found := sec.List.Find(chi.URLParam(r, "id"))
	if !found {
		s.h.redirectWithFlash(w, r, s.base(), "error", s.desc.Singular+" not found")
		return
	}
	sec.Form.OpenForEdit(rec)
	s.render(w, r, sec, loadErr, http.StatusOK)
}

func (s *section[R, D]) submit(w http.ResponseWriter, r *http.Request) {
	desk, sec, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	// The posted id names the record being edited; re-open the form when this
	// desk's form was closed or points elsewhere.
	id := r.PostFormValue("id")
	state := sec.Form.State()
	if !state.Open || state.EditingID != id {
		if id == "" {
			sec.Form.OpenForCreate()
		} else {
			if !sec.List.Loaded() {
				if _, ok := s.activate(w, r, desk, false); !ok {
					return
				}
			}
			rec, found := sec.List.Find(id)
			if !found {
				s.h.redirectWithFlash(w, r, s.base(), "error", s.desc.Singular+" not found")
				return
			}
			sec.Form.OpenForEdit(rec)
		}
	}
	if err := sec.Form.SetDraft(s.desc.Bind(r.PostFormValue)); err != nil {
		s.h.redirectWithFlash(w, r, s.base(), "error", "A save is already in progress")
		return
	}

	mode := sec.Form.State().Mode
	err := sec.Form.Submit(r.Context(), func(ctx context.Context, target shared.Target, draft D) error {
		if target.Mode == shared.ModeEdit {
			_, err := sec.List.Update(ctx, target.ID, draft)
			return err
		}
		_, err := sec.List.Create(ctx, draft)
		return err
	})

	var verr *internalShared.ValidationError
	switch {
	case err == nil:
		verb := "added"
		if mode == shared.ModeEdit {
			verb = "updated"
		}
		s.h.redirectWithFlash(w, r, s.base(), "success", s.desc.Singular+" "+verb+" successfully")
	case errors.Is(err, internalShared.ErrSessionExpired):
		s.h.expire(w, r)
	case errors.Is(err, internalShared.ErrBusy):
		s.h.redirectWithFlash(w, r, s.base(), "error", "A save is already in progress")
	case errors.As(err, &verr):
		s.render(w, r, sec, "", http.StatusBadRequest)
	default:
		s.h.logger.Error("save record failed", slog.String("section", s.desc.Section), slog.String("mode", mode.String()), slog.Any("error", err))
		s.render(w, r, sec, "", http.StatusBadRequest)
	}
}

func (s *section[R, D]) cancel(w http.ResponseWriter, r *http.Request) {
	_, sec, ok := s.workspace(w, r)
	if !ok {
		return
	}
	sec.Form.Close()
	http.Redirect(w, r, s.base(), http.StatusSeeOther)
}

func (s *section[R, D]) delete(w http.ResponseWriter, r *http.Request) {
	_, sec, ok := s.workspace(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	err := sec.List.Delete(r.Context(), id)
	switch {
	case err == nil:
		if state := sec.Form.State(); state.Open && state.EditingID == id {
			sec.Form.Close()
		}
		s.h.redirectWithFlash(w, r, s.base(), "success", s.desc.Singular+" deleted successfully")
	case errors.Is(err, internalShared.ErrSessionExpired):
		s.h.expire(w, r)
	case errors.Is(err, internalShared.ErrBusy):
		s.h.redirectWithFlash(w, r, s.base(), "error", "Delete already in progress")
	default:
		s.h.logger.Error("delete record failed", slog.String("section", s.desc.Section), slog.String("id", id), slog.Any("error", err))
		s.h.redirectWithFlash(w, r, s.base(), "error", internalShared.UserMessage(err, "Failed to delete "+strings.ToLower(s.desc.Singular)))
	}
}

func (s *section[R, D]) exportCSV(w http.ResponseWriter, r *http.Request) {
	desk, sec, ok := s.workspace(w, r)
	if !ok {
		return
	}
	loadErr, ok := s.activate(w, r, desk, false)
	if !ok {
		return
	}
	if loadErr != "" {
		s.h.redirectWithFlash(w, r, s.base(), "error", loadErr)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(shared.CSVFilename(s.desc.Section, s.h.now())))
	if err := shared.WriteCSV(w, s.desc.CSVColumns, sec.List.FilteredView()); err != nil {
		s.h.logger.Error("write csv failed", slog.String("section", s.desc.Section), slog.Any("error", err))
	}
}

func (s *section[R, D]) record(w http.ResponseWriter, r *http.Request) (R, bool) {
	var zero R
	desk, sec, ok := s.workspace(w, r)
	if !ok {
		return zero, false
	}
	if _, ok := s.activate(w, r, desk, false); !ok {
		return zero, false
	}
	rec, found := sec.List.Find(chi.URLParam(r, "id"))
	if !found {
		httpx.RespondError(w, fmt.Errorf("%s %q: %w", strings.ToLower(s.desc.Singular), chi.URLParam(r, "id"), internalShared.ErrNotFound))
		return zero, false
	}
	return rec, true
}

func (s *section[R, D]) document(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/msword")
	w.Header().Set("Content-Disposition", attachment(shared.DocumentFilename(rec.Title())))
	if err := shared.WriteDocument(w, s.desc.DocFields, rec); err != nil {
		s.h.logger.Error("write document failed", slog.String("section", s.desc.Section), slog.Any("error", err))
	}
}

type docLine struct {
	Label string
	Value string
}

func (s *section[R, D]) documentPDF(w http.ResponseWriter, r *http.Request) {
	if s.h.pdf == nil {
		http.Error(w, "PDF export is not configured", http.StatusServiceUnavailable)
		return
	}
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	lines := make([]docLine, len(s.desc.DocFields))
	for i, f := range s.desc.DocFields {
		lines[i] = docLine{Label: f.Label, Value: f.Value(rec)}
	}
	html, err := s.h.templates.Bytes("pages/document.html", map[string]any{
		"Heading": s.desc.Singular + " Details",
		"Title":   rec.Title(),
		"Lines":   lines,
	})
	if err != nil {
		s.h.logger.Error("render document html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pdf, err := s.h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		s.h.logger.Warn("render document pdf", slog.String("section", s.desc.Section), slog.Any("error", err))
		status := http.StatusBadGateway
		if errors.Is(err, report.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "PDF export failed", status)
		return
	}
	filename := strings.TrimSuffix(shared.DocumentFilename(rec.Title()), ".doc") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment(filename))
	_, _ = w.Write(pdf)
}

type rowView struct {
	ID    string
	Title string
	Cells []string
}

type formView struct {
	Mode        string
	Heading     string
	SubmitLabel string
	ID          string
	Fields      []shared.FieldView
	Error       string
	ErrorField  string
	Submitting  bool
}

type listView struct {
	Section       string
	Singular      string
	Plural        string
	CategoryLabel string
	SearchHint    string
	Headers       []string
	Rows          []rowView
	Search        string
	Category      string
	Categories    []string
	Shown         int
	Total         int
	Filtered      bool
	LoadedAt      time.Time
	LoadError     string
	Form          *formView
}

func (s *section[R, D]) view(sec *Section[R, D], loadErr string) listView {
	filters := sec.List.Filters()
	shown, total := sec.List.Counts()
	v := listView{
		Section:       s.desc.Section,
		Singular:      s.desc.Singular,
		Plural:        s.desc.Plural,
		CategoryLabel: s.desc.CategoryLabel,
		SearchHint:    s.desc.SearchHint,
		Headers:       s.desc.Headers(),
		Search:        filters.Search,
		Category:      filters.Category,
		Categories:    sec.List.Categories(),
		Shown:         shown,
		Total:         total,
		Filtered:      filters.Active(),
		LoadedAt:      sec.List.LoadedAt(),
		LoadError:     loadErr,
	}
	for rec := range sec.List.FilteredView() {
		v.Rows = append(v.Rows, rowView{ID: rec.Key(), Title: rec.Title(), Cells: s.desc.Cells(rec)})
	}

	state := sec.Form.State()
	if !state.Open {
		return v
	}
	f := &formView{
		Mode:        state.Mode.String(),
		Heading:     "Add New " + s.desc.Singular,
		SubmitLabel: "Add " + s.desc.Singular,
		ID:          state.EditingID,
		Fields:      s.desc.FieldViews(state.Draft),
		Submitting:  state.Submitting,
	}
	if state.Mode == shared.ModeEdit {
		f.Heading = "Edit " + s.desc.Singular
		f.SubmitLabel = "Update " + s.desc.Singular
	}
	if state.Err != nil {
		f.Error = internalShared.UserMessage(state.Err, "Failed to save "+strings.ToLower(s.desc.Singular))
		var verr *internalShared.ValidationError
		if errors.As(state.Err, &verr) {
			f.ErrorField = verr.Field
		}
	}
	v.Form = f
	return v
}

func (s *section[R, D]) render(w http.ResponseWriter, r *http.Request, sec *Section[R, D], loadErr string, status int) {
	s.h.render(w, r, "pages/records.html", s.desc.Plural, s.desc.Section, s.view(sec, loadErr), status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title, active string, data any, status int) {
	sess := internalShared.SessionFromContext(r.Context())
	csrfToken := h.csrf.EnsureToken(sess)
	var flash *internalShared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Nav:         Nav(active),
		Data:        data,
	}
	if store := session.FromContext(r.Context()); store != nil {
		if user, ok := store.User(); ok {
			viewData.User = &user
		}
	}
	body, err := h.templates.Bytes(template, viewData)
	if err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(internalShared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// expire forgets the desk of a session the backend no longer accepts. The
// backend client has already cleared the stored token.
func (h *Handler) expire(w http.ResponseWriter, r *http.Request) {
	if sess := internalShared.SessionFromContext(r.Context()); sess != nil {
		h.desks.Drop(sess.ID)
	}
	h.redirectWithFlash(w, r, "/auth/login", "error", "Your session has expired. Please sign in again.")
}

func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}
