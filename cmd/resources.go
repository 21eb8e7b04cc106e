package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/paperctl/paperless"
)

// createFlags holds the flags of the create subcommands
type createFlags struct {
	match       string
	algorithm   string
	insensitive bool
	color       string
	inbox       bool
}

// matching converts the matching flags that were set
func (f *createFlags) matching(cmd *cobra.Command) (*paperless.MatchingAlgorithm, *bool, error) {
	var (
		algorithm   *paperless.MatchingAlgorithm
		insensitive *bool
	)
	if cmd.Flags().Changed("algorithm") {
		a, err := paperless.ParseMatchingAlgorithm(f.algorithm)
		if err != nil {
			return nil, nil, err
		}
		algorithm = &a
	}
	if cmd.Flags().Changed("insensitive") {
		insensitive = &f.insensitive
	}
	return algorithm, insensitive, nil
}

// namedResource describes a tag-like resource for the generic commands
type namedResource[T, Q, W, P any] struct {
	use     string
	aliases []string
	noun    string
	tagLike bool
	api     func() paperless.ResourceAPI[T, Q, W, P]
	query   func(nameContains string) *Q
	body    func(cmd *cobra.Command, name string, f *createFlags) (*W, error)
	headers []string
	row     func(T) []string
}

func newResourceCommand[T, Q, W, P any](r namedResource[T, Q, W, P]) *cobra.Command {
	parent := &cobra.Command{
		Use:     r.use,
		Aliases: r.aliases,
		Short:   fmt.Sprintf("Manage %ss", r.noun),
	}

	var nameFilter string
	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %ss", r.noun),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var query *Q
			if nameFilter != "" {
				query = r.query(nameFilter)
			}
			items, err := r.api().ListAll(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("failed to list %ss: %w", r.noun, err)
			}
			return renderItems(cmd, items, r.headers, r.row)
		},
	}
	list.Flags().StringVar(&nameFilter, "name", "", "only names containing this text")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show a %s", r.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := r.api().Retrieve(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get %s %d: %w", r.noun, id, err)
			}
			return renderItems(cmd, []T{*item}, r.headers, r.row)
		},
	}

	var flags createFlags
	create := &cobra.Command{
		Use:   "create <name>",
		Short: fmt.Sprintf("Create a %s", r.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := r.body(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			item, err := r.api().Create(cmd.Context(), body)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", r.noun, err)
			}
			return renderItems(cmd, []T{*item}, r.headers, r.row)
		},
	}
	create.Flags().StringVar(&flags.match, "match", "", "text to match new documents against")
	create.Flags().StringVar(&flags.algorithm, "algorithm", "", "matching algorithm: none, any, all, literal, regex, fuzzy or auto")
	create.Flags().BoolVar(&flags.insensitive, "insensitive", true, "match case insensitively")
	if r.tagLike {
		create.Flags().StringVar(&flags.color, "color", "", "colour as #rrggbb")
		create.Flags().BoolVar(&flags.inbox, "inbox", false, "mark as inbox tag")
	}

	var skipConfirm bool
	remove := &cobra.Command{
		Use:   "delete <id>...",
		Short: fmt.Sprintf("Delete %ss", r.noun),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if cfg.Safety.ConfirmDelete && !skipConfirm {
				ok, err := confirm(cmd, fmt.Sprintf("Delete %s?", plural(len(ids), r.noun)))
				if err != nil || !ok {
					return err
				}
			}
			for _, id := range ids {
				if err := r.api().Remove(cmd.Context(), id); err != nil {
					return fmt.Errorf("failed to delete %s %d: %w", r.noun, id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s %d\n", r.noun, id)
			}
			return nil
		},
	}
	remove.Flags().BoolVar(&skipConfirm, "no-confirm", false, "skip confirmation prompt")

	parent.AddCommand(list, get, create, remove)
	return parent
}

func renderItems[T any](cmd *cobra.Command, items []T, headers []string, row func(T) []string) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, row(item))
	}
	return render(cmd, view{data: items, headers: headers, rows: rows})
}

func matchingColumns(m paperless.Matching) []string {
	return []string{m.MatchingAlgorithm.String(), orDash(m.Match)}
}

func nameQuery(name string) *paperless.NameQuery {
	return &paperless.NameQuery{NameContains: name}
}

func namedBody(cmd *cobra.Command, name string, f *createFlags) (*paperless.NamedRequest, error) {
	algorithm, insensitive, err := f.matching(cmd)
	if err != nil {
		return nil, err
	}
	return &paperless.NamedRequest{
		Name:              name,
		Match:             f.match,
		MatchingAlgorithm: algorithm,
		IsInsensitive:     insensitive,
	}, nil
}

var tagsCmd = newResourceCommand(namedResource[paperless.Tag, paperless.TagListQuery, paperless.TagRequest, paperless.TagPatch]{
	use:     "tags",
	aliases: []string{"tag"},
	noun:    "tag",
	tagLike: true,
	api: func() paperless.ResourceAPI[paperless.Tag, paperless.TagListQuery, paperless.TagRequest, paperless.TagPatch] {
		return client.Tags
	},
	query: func(name string) *paperless.TagListQuery {
		return &paperless.TagListQuery{NameQuery: *nameQuery(name)}
	},
	body: func(cmd *cobra.Command, name string, f *createFlags) (*paperless.TagRequest, error) {
		algorithm, insensitive, err := f.matching(cmd)
		if err != nil {
			return nil, err
		}
		req := &paperless.TagRequest{
			Name:              name,
			Color:             f.color,
			Match:             f.match,
			MatchingAlgorithm: algorithm,
			IsInsensitive:     insensitive,
		}
		if cmd.Flags().Changed("inbox") {
			req.IsInboxTag = &f.inbox
		}
		return req, nil
	},
	headers: []string{"ID", "Name", "Documents", "Inbox", "Algorithm", "Match"},
	row: func(t paperless.Tag) []string {
		return append([]string{
			strconv.Itoa(t.ID), t.Name, strconv.Itoa(t.DocumentCount), strconv.FormatBool(t.IsInboxTag),
		}, matchingColumns(t.Matching)...)
	},
})

var correspondentsCmd = newResourceCommand(namedResource[paperless.Correspondent, paperless.NameQuery, paperless.NamedRequest, paperless.NamedPatch]{
	use:     "correspondents",
	aliases: []string{"correspondent"},
	noun:    "correspondent",
	api: func() paperless.ResourceAPI[paperless.Correspondent, paperless.NameQuery, paperless.NamedRequest, paperless.NamedPatch] {
		return client.Correspondents
	},
	query:   nameQuery,
	body:    namedBody,
	headers: []string{"ID", "Name", "Documents", "Last Correspondence", "Algorithm", "Match"},
	row: func(c paperless.Correspondent) []string {
		return append([]string{
			strconv.Itoa(c.ID), c.Name, strconv.Itoa(c.DocumentCount), formatOptional(c.LastCorrespondence),
		}, matchingColumns(c.Matching)...)
	},
})

var doctypesCmd = newResourceCommand(namedResource[paperless.DocumentType, paperless.NameQuery, paperless.NamedRequest, paperless.NamedPatch]{
	use:     "doctypes",
	aliases: []string{"document-types", "doctype"},
	noun:    "document type",
	api: func() paperless.ResourceAPI[paperless.DocumentType, paperless.NameQuery, paperless.NamedRequest, paperless.NamedPatch] {
		return client.DocumentTypes
	},
	query:   nameQuery,
	body:    namedBody,
	headers: []string{"ID", "Name", "Documents", "Algorithm", "Match"},
	row: func(d paperless.DocumentType) []string {
		return append([]string{
			strconv.Itoa(d.ID), d.Name, strconv.Itoa(d.DocumentCount),
		}, matchingColumns(d.Matching)...)
	},
})

func init() {
	rootCmd.AddCommand(tagsCmd, correspondentsCmd, doctypesCmd)
}
