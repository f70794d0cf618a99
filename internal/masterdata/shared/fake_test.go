package shared_test

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/contractor-desk/contractor-desk/internal/masterdata/contractors"
)

// fakeClient is an in-memory contractor backend that counts calls.
type fakeClient struct {
	mu      sync.Mutex
	records []contractors.Contractor
	nextID  int
	calls   map[string]int
	fail    error
	// block, when set, holds Delete until it is closed.
	block chan struct{}
	// listBlock, when set, holds List until it is closed.
	listBlock chan struct{}
	// dropIDs makes Update answer without an id.
	dropIDs bool
}

func newFakeClient(records ...contractors.Contractor) *fakeClient {
	return &fakeClient{records: records, nextID: 100, calls: make(map[string]int)}
}

func (f *fakeClient) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeClient) List(ctx context.Context) ([]contractors.Contractor, error) {
	f.mu.Lock()
	f.calls["list"]++
	block := f.listBlock
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]contractors.Contractor(nil), f.records...), nil
}

func (f *fakeClient) Create(ctx context.Context, d contractors.Draft) (contractors.Contractor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.fail != nil {
		return contractors.Contractor{}, f.fail
	}
	f.nextID++
	c := contractors.Contractor{
		ID:           strconv.Itoa(f.nextID),
		SNo:          len(f.records) + 1,
		Name:         d.Name,
		ContactNo:    d.ContactNo,
		Address:      d.Address,
		WorkCategory: d.WorkCategory,
		Remarks:      d.Remarks,
	}
	f.records = append(f.records, c)
	return c, nil
}

func (f *fakeClient) Update(ctx context.Context, id string, d contractors.Draft) (contractors.Contractor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.fail != nil {
		return contractors.Contractor{}, f.fail
	}
	for i, c := range f.records {
		if c.ID != id {
			continue
		}
		c.Name, c.ContactNo, c.Address, c.WorkCategory, c.Remarks = d.Name, d.ContactNo, d.Address, d.WorkCategory, d.Remarks
		f.records[i] = c
		if f.dropIDs {
			c.ID = ""
		}
		return c, nil
	}
	return contractors.Contractor{}, errors.New("no such record")
}

func (f *fakeClient) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	f.calls["delete"]++
	block, fail := f.block, f.fail
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail != nil {
		return fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.records {
		if c.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			break
		}
	}
	return nil
}

func alice() contractors.Contractor {
	return contractors.Contractor{ID: "1", SNo: 1, Name: "Alice", ContactNo: "555", Address: "X", WorkCategory: "Piling"}
}

func validDraft() contractors.Draft {
	return contractors.Draft{Name: "Bob", ContactNo: "+880 17", Address: "Dhaka", WorkCategory: "Civil"}
}
