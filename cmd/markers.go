package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/healthmap/internal/i18n"
	"github.com/sells-group/healthmap/internal/markers"
	"github.com/sells-group/healthmap/internal/model"
)

var markersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Export the marker set as GeoJSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newProxyClient()
		if err != nil {
			return err
		}

		orgs, err := loadOrganizations(cmd.Context(), client, listFilterFromFlags(cmd))
		if err != nil {
			return err
		}

		width, _ := cmd.Flags().GetInt("width")
		locale, _ := cmd.Flags().GetString("locale")
		data, err := markersGeoJSON(orgs, width, locale)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}
		return nil
	},
}

// markersGeoJSON renders orgs the way the map would at the given viewport
// width and encodes them as a GeoJSON FeatureCollection.
func markersGeoJSON(orgs []model.Organization, width int, locale string) ([]byte, error) {
	catalog, err := i18n.New(cfg.I18n.DefaultLocale)
	if err != nil {
		return nil, err
	}
	if locale == "" {
		locale = catalog.Locale()
	}

	ms := markers.Build(orgs, markers.Options{
		Viewport:   markers.Viewport{Width: width},
		Breakpoint: cfg.Map.MobileBreakpoint,
		Translator: catalog.For(locale),
	})
	data, err := markers.FeatureCollection(ms).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "encode markers")
	}
	return data, nil
}

func init() {
	addListFlags(markersCmd)
	markersCmd.Flags().Int("width", 0, "viewport width in pixels; at or below the mobile breakpoint icons shrink")
	markersCmd.Flags().String("locale", "", "popup language (en, es, fr)")
	markersCmd.Flags().String("out", "", "write to file instead of stdout")
	rootCmd.AddCommand(markersCmd)
}
