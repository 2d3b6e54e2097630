package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/healthmap/internal/dataset"
	"github.com/sells-group/healthmap/internal/directory"
	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/pkg/orgapi"
)

// newProxyClient builds the proxy client for data commands.
func newProxyClient() (orgapi.Client, error) {
	if err := cfg.Validate("client"); err != nil {
		return nil, err
	}
	return orgapi.NewClient(
		orgapi.WithBaseURL(cfg.Client.BaseURL),
		orgapi.WithResource(cfg.Server.Resource),
	), nil
}

// listFilter selects which organizations a data command prints.
type listFilter struct {
	Sheet        string
	Hospitals    bool
	Associations bool
	OnlyActive   bool
}

// loadOrganizations fetches and filters one sheet through the proxy.
func loadOrganizations(ctx context.Context, client orgapi.Client, f listFilter) ([]model.Organization, error) {
	hook := dataset.New(client)
	defer hook.Close()

	orgs, err := hook.FetchCategory(ctx, f.Sheet)
	if err != nil {
		return nil, eris.Wrap(err, "load organizations")
	}
	if f.OnlyActive {
		orgs = directory.VisibleOnly(orgs)
	}
	return directory.FilterByCategory(orgs, f.Hospitals, f.Associations), nil
}

func formatOrganizations(out io.Writer, orgs []model.Organization) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tCITY\tCOUNTRY\tLAT\tLNG")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t----\t-------\t---\t---")
	for _, o := range orgs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.6f\t%.6f\n",
			o.ID, o.Name, o.Type, o.City, o.Country, o.Coordinates.Lat(), o.Coordinates.Lng())
	}
	_ = w.Flush()
}

func formatCounts(out io.Writer, c directory.Counts) {
	_, _ = fmt.Fprintf(out, "\nHospitals: %d  Associations: %d\n", c.Hospitals, c.Associations)
}
