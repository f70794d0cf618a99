package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/shared"
)

type section[R shared.Record[R, D], D any] struct {
	rt        *runtime
	desc      shared.Descriptor[R, D]
	newClient func(*backend.Conn) *backend.Entities[R, D]
	now       func() time.Time
}

func newSectionCommand[R shared.Record[R, D], D any](rt *runtime, desc shared.Descriptor[R, D], newClient func(*backend.Conn) *backend.Entities[R, D]) *cobra.Command {
	s := &section[R, D]{rt: rt, desc: desc, newClient: newClient, now: time.Now}
	cmd := &cobra.Command{
		Use:   desc.Section,
		Short: "Manage " + strings.ToLower(desc.Plural),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return rt.requireLogin()
		},
	}
	cmd.AddCommand(s.listCommand(), s.exportCommand(), s.docCommand(), s.addCommand(), s.editCommand(), s.deleteCommand())
	return cmd
}

func (s *section[R, D]) load(ctx context.Context, filters shared.Filters) (*shared.List[R, D], error) {
	list := shared.NewList[R, D](s.newClient(s.rt.conn))
	if err := list.Refresh(ctx); err != nil {
		return nil, err
	}
	list.SetFilters(filters)
	return list, nil
}

func filterFlags(cmd *cobra.Command, f *shared.Filters) {
	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "search term")
	cmd.Flags().StringVarP(&f.Category, "category", "c", shared.CategoryAll, "category filter")
}

func (s *section[R, D]) listCommand() *cobra.Command {
	var (
		filters shared.Filters
		output  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + strings.ToLower(s.desc.Plural),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := s.load(cmd.Context(), filters)
			if err != nil {
				return err
			}
			records := slices.Collect(list.FilteredView())
			switch output {
			case "table":
				return s.writeTable(s.rt.out, records)
			case "yaml":
				enc := yaml.NewEncoder(s.rt.out)
				defer enc.Close()
				return enc.Encode(records)
			case "json":
				enc := json.NewEncoder(s.rt.out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			default:
				return fmt.Errorf("unknown output format %q (want table, yaml or json)", output)
			}
		},
	}
	filterFlags(cmd, &filters)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "table, yaml or json")
	return cmd
}

func (s *section[R, D]) writeTable(w io.Writer, records []R) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t"+strings.Join(s.desc.Headers(), "\t"))
	for _, r := range records {
		cells := s.desc.Cells(r)
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "\n", " ")
		}
		fmt.Fprintln(tw, r.Key()+"\t"+strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func (s *section[R, D]) exportCommand() *cobra.Command {
	var (
		filters shared.Filters
		file    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export " + strings.ToLower(s.desc.Plural) + " as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := s.load(cmd.Context(), filters)
			if err != nil {
				return err
			}
			if file == "" {
				file = shared.CSVFilename(s.desc.Section, s.now())
			}
			return s.writeTo(file, func(w io.Writer) error {
				return shared.WriteCSV(w, s.desc.CSVColumns, list.FilteredView())
			})
		},
	}
	filterFlags(cmd, &filters)
	cmd.Flags().StringVarP(&file, "file", "f", "", `output file, "-" for stdout`)
	return cmd
}

func (s *section[R, D]) docCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "doc <id>",
		Short: "Write the document of one " + strings.ToLower(s.desc.Singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, _, err := s.find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if file == "" {
				file = shared.DocumentFilename(rec.Title())
			}
			return s.writeTo(file, func(w io.Writer) error {
				return shared.WriteDocument(w, s.desc.DocFields, rec)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `output file, "-" for stdout`)
	return cmd
}

func (s *section[R, D]) find(ctx context.Context, id string) (R, *shared.List[R, D], error) {
	var zero R
	list, err := s.load(ctx, shared.Filters{})
	if err != nil {
		return zero, nil, err
	}
	rec, ok := list.Find(id)
	if !ok {
		return zero, nil, fmt.Errorf("%s %q not found", strings.ToLower(s.desc.Singular), id)
	}
	return rec, list, nil
}

func (s *section[R, D]) writeTo(file string, write func(io.Writer) error) error {
	if file == "-" {
		return write(s.rt.out)
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(s.rt.errOut, "wrote", file)
	return nil
}

// fieldFlags registers one string flag per form field.
func (s *section[R, D]) fieldFlags(cmd *cobra.Command) map[string]*string {
	values := make(map[string]*string, len(s.desc.FormFields))
	for _, f := range s.desc.FormFields {
		values[f.Name] = cmd.Flags().String(f.Name, "", f.Label)
	}
	return values
}

func (s *section[R, D]) addCommand() *cobra.Command {
	var values map[string]*string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a " + strings.ToLower(s.desc.Singular),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := shared.NewList[R, D](s.newClient(s.rt.conn))
			form := shared.NewForm[R, D](nil)
			form.OpenForCreate()
			if err := form.SetDraft(s.desc.Bind(func(name string) string { return *values[name] })); err != nil {
				return err
			}
			var created R
			err := form.Submit(cmd.Context(), func(ctx context.Context, _ shared.Target, draft D) error {
				var err error
				created, err = list.Create(ctx, draft)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(s.rt.out, "%s added (id %s)\n", s.desc.Singular, created.Key())
			return nil
		},
	}
	values = s.fieldFlags(cmd)
	return cmd
}

func (s *section[R, D]) editCommand() *cobra.Command {
	var values map[string]*string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a " + strings.ToLower(s.desc.Singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, list, err := s.find(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form := shared.NewForm[R, D](nil)
			form.OpenForEdit(rec)
			current := form.State().Draft
			getters := make(map[string]func(D) string, len(s.desc.FormFields))
			for _, f := range s.desc.FormFields {
				getters[f.Name] = f.Get
			}
			draft := s.desc.Bind(func(name string) string {
				if cmd.Flags().Changed(name) {
					return *values[name]
				}
				return getters[name](current)
			})
			if err := form.SetDraft(draft); err != nil {
				return err
			}
			err = form.Submit(cmd.Context(), func(ctx context.Context, target shared.Target, draft D) error {
				_, err := list.Update(ctx, target.ID, draft)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(s.rt.out, "%s %s updated\n", s.desc.Singular, rec.Key())
			return nil
		},
	}
	values = s.fieldFlags(cmd)
	return cmd
}

func (s *section[R, D]) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + strings.ToLower(s.desc.Singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := shared.NewList[R, D](s.newClient(s.rt.conn))
			if err := list.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(s.rt.out, "%s %s deleted\n", s.desc.Singular, args[0])
			return nil
		},
	}
}
