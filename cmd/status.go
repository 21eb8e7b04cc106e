package cmd

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blang/semver"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/paperctl/paperless"
)

var minVersion string

// statusCmd tests the connection and reports server details
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Test the connection to Paperless",
	Long:  `Test the connection to your Paperless instance and display basic information.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&minVersion, "min-version", "", "fail if the server is older than this version")
}

// serverStatus is the status report
type serverStatus struct {
	URL            string `json:"url"`
	Version        string `json:"version"`
	APIVersion     string `json:"api_version"`
	Documents      int    `json:"documents"`
	Tags           int    `json:"tags"`
	Correspondents int    `json:"correspondents"`
	DocumentTypes  int    `json:"document_types"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var required *semver.Version
	if minVersion != "" {
		v, err := semver.ParseTolerant(minVersion)
		if err != nil {
			return fmt.Errorf("invalid --min-version: %w", err)
		}
		required = &v
	}

	if err := client.TestConnection(ctx); err != nil {
		if paperless.IsUnauthorized(err) {
			return fmt.Errorf("connected to %s but the token was rejected: %w", cfg.Paperless.URL, err)
		}
		return fmt.Errorf("failed to connect to %s: %w", cfg.Paperless.URL, err)
	}

	status := serverStatus{URL: cfg.Paperless.URL, Version: "unknown", APIVersion: "unknown"}

	serverVersion, err := client.ServerVersion(ctx)
	switch {
	case err == nil:
		status.Version = serverVersion.String()
	case errors.Is(err, paperless.ErrNoVersion):
		logger.Warn().Msg("Server did not report its version")
	default:
		return fmt.Errorf("failed to get server version: %w", err)
	}

	if required != nil {
		if status.Version == "unknown" {
			return fmt.Errorf("cannot check --min-version: %w", paperless.ErrNoVersion)
		}
		if serverVersion.LT(*required) {
			return fmt.Errorf("server version %s is older than required %s", serverVersion, required)
		}
	}

	if v, err := client.APIVersion(ctx); err == nil {
		status.APIVersion = v
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	count := func(name string, dst *int, fn func() (int, error)) {
		g.Go(func() error {
			n, err := fn()
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", name, err)
			}
			mu.Lock()
			*dst = n
			mu.Unlock()
			return nil
		})
	}

	one := paperless.ListQuery{PageSize: 1}
	count("documents", &status.Documents, func() (int, error) {
		page, err := client.Documents.List(gctx, &paperless.DocumentListQuery{ListQuery: one})
		if err != nil {
			return 0, err
		}
		return page.Count, nil
	})
	count("tags", &status.Tags, func() (int, error) {
		page, err := client.Tags.List(gctx, &paperless.TagListQuery{NameQuery: paperless.NameQuery{ListQuery: one}})
		if err != nil {
			return 0, err
		}
		return page.Count, nil
	})
	count("correspondents", &status.Correspondents, func() (int, error) {
		page, err := client.Correspondents.List(gctx, &paperless.NameQuery{ListQuery: one})
		if err != nil {
			return 0, err
		}
		return page.Count, nil
	})
	count("document types", &status.DocumentTypes, func() (int, error) {
		page, err := client.DocumentTypes.List(gctx, &paperless.NameQuery{ListQuery: one})
		if err != nil {
			return 0, err
		}
		return page.Count, nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	return render(cmd, view{
		data:    status,
		headers: []string{"Field", "Value"},
		rows: keyValueRows(
			"URL", status.URL,
			"Version", status.Version,
			"API version", status.APIVersion,
			"Documents", fmt.Sprint(status.Documents),
			"Tags", fmt.Sprint(status.Tags),
			"Correspondents", fmt.Sprint(status.Correspondents),
			"Document types", fmt.Sprint(status.DocumentTypes),
		),
	})
}
