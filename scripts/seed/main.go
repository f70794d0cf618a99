package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/contractor-desk/contractor-desk/internal/auth"
	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/contractors"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/shared"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/suppliers"
	"github.com/contractor-desk/contractor-desk/internal/session"
	internalShared "github.com/contractor-desk/contractor-desk/internal/shared"
)

func main() {
	apiURL := getenv("DESK_API_URL", "http://localhost:5000/api")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := session.NewMemoryStore()
	conn := backend.NewClient(apiURL).Bind(store)

	fmt.Println("→ Signing in...")
	if err := signIn(ctx, conn); err != nil {
		log.Fatalf("sign in: %v", err)
	}

	fmt.Println("→ Seeding contractors...")
	if err := seedContractors(ctx, conn); err != nil {
		log.Fatalf("seed contractors: %v", err)
	}

	fmt.Println("→ Seeding suppliers...")
	if err := seedSuppliers(ctx, conn); err != nil {
		log.Fatalf("seed suppliers: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// signIn logs in with the seed account, registering it on first run.
func signIn(ctx context.Context, conn *backend.Conn) error {
	svc := auth.NewService(conn)
	name := getenv("SEED_NAME", "Desk Admin")
	email := getenv("SEED_EMAIL", "admin@desk.local")
	password := getenv("SEED_PASSWORD", "admin123")

	_, err := svc.Login(ctx, email, password)
	var aerr *internalShared.AuthError
	if errors.As(err, &aerr) {
		_, err = svc.Register(ctx, name, email, password)
	}
	return err
}

// =============================================================================
// CONTRACTORS
// =============================================================================

func seedContractors(ctx context.Context, conn *backend.Conn) error {
	drafts := []contractors.Draft{
		{Name: "Rahman Piling Works", ContactNo: "+880 17 1111 2222", Address: "House 12, Road 4, Dhanmondi, Dhaka", WorkCategory: "Piling", Remarks: "Own rig, 2 crews"},
		{Name: "Karim Civil Construction", ContactNo: "+880 18 3333 4444", Address: "Agrabad C/A, Chattogram", WorkCategory: "Civil"},
		{Name: "Bright Electrical Services", ContactNo: "+880 19 5555 6666", Address: "Sector 7, Uttara, Dhaka", WorkCategory: "Electrical", Remarks: "Licensed for HT lines"},
		{Name: "Noor Plumbing & Sanitary", ContactNo: "+880 16 7777 8888", Address: "Zindabazar, Sylhet", WorkCategory: "Plumbing"},
	}
	return seed[contractors.Contractor](ctx, contractors.NewClient(conn), drafts, func(d contractors.Draft) string { return d.Name })
}

// =============================================================================
// SUPPLIERS
// =============================================================================

func seedSuppliers(ctx context.Context, conn *backend.Conn) error {
	drafts := []suppliers.Draft{
		{Name: "Delta Steel Ltd", ContactNo: "+880 17 2222 3333", Address: "Tejgaon I/A, Dhaka", Category: "Steel", SuppliedItems: "Rebar, MS angles, beams", Remarks: "30-day credit"},
		{Name: "Meghna Cement Traders", ContactNo: "+880 18 4444 5555", Address: "Narayanganj", Category: "Cement", SuppliedItems: "OPC, PCC bags"},
		{Name: "Sonali Bricks", ContactNo: "+880 19 6666 7777", Address: "Savar, Dhaka", Category: "Bricks", SuppliedItems: "First-class bricks, picket"},
	}
	return seed[suppliers.Supplier](ctx, suppliers.NewClient(conn), drafts, func(d suppliers.Draft) string { return d.Name })
}

// seed creates every draft whose name is not in the collection yet, so
// reruns do not duplicate records.
func seed[R shared.Record[R, D], D any](ctx context.Context, client shared.EntityClient[R, D], drafts []D, name func(D) string) error {
	list := shared.NewList[R, D](client)
	if err := list.Refresh(ctx); err != nil {
		return err
	}
	existing := make(map[string]struct{})
	for _, r := range list.Records() {
		existing[r.Title()] = struct{}{}
	}
	v := shared.NewValidator()
	for _, d := range drafts {
		if _, ok := existing[name(d)]; ok {
			continue
		}
		if err := shared.ValidateDraft(v, d); err != nil {
			return fmt.Errorf("%s: %w", name(d), err)
		}
		if _, err := list.Create(ctx, d); err != nil {
			return fmt.Errorf("%s: %w", name(d), err)
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
