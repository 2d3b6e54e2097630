package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/healthmap/internal/dataset"
	"github.com/sells-group/healthmap/internal/i18n"
	"github.com/sells-group/healthmap/internal/intake"
	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/internal/normalize"
	"github.com/sells-group/healthmap/pkg/orgapi"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an organization through the proxy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newProxyClient()
		if err != nil {
			return err
		}
		catalog, err := i18n.New(cfg.I18n.DefaultLocale)
		if err != nil {
			return err
		}
		if locale, _ := cmd.Flags().GetString("locale"); locale != "" {
			if err := catalog.SetLocale(locale); err != nil {
				return err
			}
		}

		org, err := addOrganization(cmd.Context(), client, catalog, formFromFlags(cmd), os.Stderr)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %s (%s)\n", catalog.Translate("saveSucceeded", nil), org.Name, org.ID)
		return nil
	},
}

func formFromFlags(cmd *cobra.Command) intake.FormData {
	f := intake.NewFormData()
	str := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	f.Name = str("name")
	f.Type = model.OrgType(str("type"))
	f.Address = str("address")
	f.Phone = str("phone")
	f.Website = str("website")
	f.Email = str("email")
	f.Country = str("country")
	f.City = str("city")
	f.Specialty = str("specialty")

	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		f = f.WithCoordinates(model.Coordinates{lat, lng})
	}
	return f
}

// addOrganization validates form, prints translated field errors to errOut
// and saves the organization.
func addOrganization(ctx context.Context, client orgapi.Client, tr *i18n.Catalog, form intake.FormData, errOut io.Writer) (model.Organization, error) {
	if errs := form.Validate(); len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for field := range errs {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(errOut, "%s: %s\n", field, tr.Translate(errs[field], nil))
		}
		return model.Organization{}, eris.Wrap(intake.ErrInvalid, "add")
	}

	org, err := form.Organization(normalize.New().NewID())
	if err != nil {
		return model.Organization{}, err
	}

	hook := dataset.New(client)
	defer hook.Close()
	if _, err := hook.Submit(ctx, org); err != nil {
		msg := tr.Translate("saveFailed", map[string]string{"error": eris.Cause(err).Error()})
		fmt.Fprintln(errOut, msg)
		return model.Organization{}, err
	}
	return org, nil
}

func addFormFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("name", "", "organization name")
	f.String("type", string(model.TypeHospital), "hospital or association")
	f.String("address", "", "street address")
	f.String("phone", "", "phone number")
	f.String("website", "", "website URL")
	f.String("email", "", "contact email")
	f.String("country", "", "country")
	f.String("city", "", "city")
	f.String("specialty", "", "specialty")
	f.Float64("lat", 0, "latitude")
	f.Float64("lng", 0, "longitude")
}

func init() {
	addFormFlags(addCmd)
	addCmd.Flags().String("locale", "", "message language (en, es, fr)")
	rootCmd.AddCommand(addCmd)
}
