package masterdata

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/contractors"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/shared"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/suppliers"
)

// Section bundles the controllers of one entity type.
type Section[R shared.Record[R, D], D any] struct {
	Descriptor shared.Descriptor[R, D]
	List       *shared.List[R, D]
	Form       *shared.Form[R, D]
}

func newSection[R shared.Record[R, D], D any](desc shared.Descriptor[R, D], client shared.EntityClient[R, D], v *validator.Validate) *Section[R, D] {
	return &Section[R, D]{
		Descriptor: desc,
		List:       shared.NewList[R, D](client),
		Form:       shared.NewForm[R, D](v),
	}
}

type loader interface {
	Refresh(ctx context.Context) error
	Loaded() bool
}

// Desk is the workspace of one signed-in browser: both sections' controllers
// and which section is active. Contractors and suppliers share no state.
type Desk struct {
	Contractors *Section[contractors.Contractor, contractors.Draft]
	Suppliers   *Section[suppliers.Supplier, suppliers.Draft]

	mu       sync.Mutex
	active   string
	lastSeen time.Time
}

// NewDesk builds a workspace whose entity clients use conn.
func NewDesk(conn *backend.Conn, v *validator.Validate) *Desk {
	if v == nil {
		v = shared.NewValidator()
	}
	return &Desk{
		Contractors: newSection(contractors.Descriptor, shared.EntityClient[contractors.Contractor, contractors.Draft](contractors.NewClient(conn)), v),
		Suppliers:   newSection(suppliers.Descriptor, shared.EntityClient[suppliers.Supplier, suppliers.Draft](suppliers.NewClient(conn)), v),
		lastSeen:    time.Now(),
	}
}

// Active returns the active section name, "" before the first activation.
func (d *Desk) Active() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Activate makes section the active one and loads its collection when the
// section changed, has never loaded, or reload is set. It reports whether a
// refresh was attempted.
func (d *Desk) Activate(ctx context.Context, section string, reload bool) (bool, error) {
	l := d.loader(section)
	if l == nil {
		return false, nil
	}
	d.mu.Lock()
	changed := d.active != section
	d.active = section
	d.lastSeen = time.Now()
	d.mu.Unlock()

	if !changed && !reload && l.Loaded() {
		return false, nil
	}
	return true, l.Refresh(ctx)
}

func (d *Desk) loader(section string) loader {
	switch section {
	case shared.SectionContractors:
		return d.Contractors.List
	case shared.SectionSuppliers:
		return d.Suppliers.List
	default:
		return nil
	}
}

func (d *Desk) touch() {
	d.mu.Lock()
	d.lastSeen = time.Now()
	d.mu.Unlock()
}

func (d *Desk) idleSince() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen
}

// Desks maps browser session ids to their workspaces.
type Desks struct {
	client   *backend.Client
	validate *validator.Validate

	mu    sync.Mutex
	desks map[string]*Desk
}

// NewDesks returns an empty registry whose desks talk to client.
func NewDesks(client *backend.Client) *Desks {
	return &Desks{client: client, validate: shared.NewValidator(), desks: make(map[string]*Desk)}
}

// For returns the desk of sessionID, creating it on first use.
func (ds *Desks) For(sessionID string) *Desk {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	desk, ok := ds.desks[sessionID]
	if !ok {
		// The session store is taken from each request's context.
		desk = NewDesk(ds.client.Bind(nil), ds.validate)
		ds.desks[sessionID] = desk
	}
	desk.touch()
	return desk
}

// Drop forgets the desk of sessionID.
func (ds *Desks) Drop(sessionID string) {
	ds.mu.Lock()
	delete(ds.desks, sessionID)
	ds.mu.Unlock()
}

// Len returns the number of live desks.
func (ds *Desks) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.desks)
}

// Prune drops desks not used since before cutoff, whose browser sessions have
// expired. It returns how many were dropped.
func (ds *Desks) Prune(cutoff time.Time) int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	dropped := 0
	for id, desk := range ds.desks {
		if desk.idleSince().Before(cutoff) {
			delete(ds.desks, id)
			dropped++
		}
	}
	return dropped
}
