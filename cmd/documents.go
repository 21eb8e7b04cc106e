package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/paperctl/filter"
	"github.com/s0up4200/paperctl/paperless"
)

var (
	// list flags
	docQuery         string
	docTags          []int
	docCorrespondent int
	docType          int
	docInbox         bool
	docAll           bool
	docPage          int
	docPageSize      int
	docOrdering      string
	filterExpr       string
	preset           string

	// download flags
	downloadDir      string
	downloadOriginal bool

	// upload flags
	uploadTitle   string
	uploadCreated string
	uploadASN     int
	uploadWait    bool
	uploadTimeout time.Duration

	// delete flags
	noConfirm bool

	// email flags
	emailTo      string
	emailSubject string
	emailMessage string
	emailArchive bool
)

// documentsCmd groups the document commands
var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs", "doc"},
	Short:   "Manage documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Long: `List documents, optionally narrowed on the server by a full text query,
tags, correspondent or document type, and on the client by a filter
expression or a preset from the config file.

Filter examples:
  paperctl documents list --filter 'hasTag("inbox") and Created < monthsAgo(3)'
  paperctl documents list --filter 'from("Power Co") and isType("Invoice")'
  paperctl documents list --preset stale-inbox`,
	Args: cobra.NoArgs,
	RunE: runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsDownloadCmd = &cobra.Command{
	Use:   "download <id>...",
	Short: "Download document files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentsDownload,
}

var documentsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document for consumption",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsUpload,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentsDelete,
}

var documentsPatchCmd = &cobra.Command{
	Use:   "patch <id>",
	Short: "Change fields of a document",
	Long:  `Change fields of a document. Only the flags given are sent.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsPatch,
}

var documentsHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show the audit log of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsHistory,
}

var documentsEmailCmd = &cobra.Command{
	Use:   "email <id>",
	Short: "Send a document by email",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsEmail,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(documentsListCmd, documentsGetCmd, documentsDownloadCmd,
		documentsUploadCmd, documentsDeleteCmd, documentsPatchCmd, documentsHistoryCmd,
		documentsEmailCmd)

	f := documentsListCmd.Flags()
	f.StringVarP(&docQuery, "query", "q", "", "full text query")
	f.IntSliceVar(&docTags, "tag", nil, "only documents with all of these tag ids")
	f.IntVar(&docCorrespondent, "correspondent", 0, "only documents from this correspondent id")
	f.IntVar(&docType, "type", 0, "only documents of this document type id")
	f.BoolVar(&docInbox, "inbox", false, "only documents in the inbox")
	f.BoolVar(&docAll, "all", false, "fetch every page")
	f.IntVar(&docPage, "page", 0, "page number")
	f.IntVar(&docPageSize, "page-size", 0, "documents per page")
	f.StringVar(&docOrdering, "ordering", "", "sort field, prefix with - for descending")
	f.StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	f.StringVarP(&preset, "preset", "p", "", "use a preset filter from config")

	documentsDownloadCmd.Flags().StringVar(&downloadDir, "dir", ".", "target directory")
	documentsDownloadCmd.Flags().BoolVar(&downloadOriginal, "original", false, "download the original instead of the archived version")

	uf := documentsUploadCmd.Flags()
	uf.StringVar(&uploadTitle, "title", "", "document title")
	uf.IntSliceVar(&docTags, "tag", nil, "tag ids")
	uf.IntVar(&docCorrespondent, "correspondent", 0, "correspondent id")
	uf.IntVar(&docType, "type", 0, "document type id")
	uf.IntVar(&uploadASN, "asn", 0, "archive serial number")
	uf.StringVar(&uploadCreated, "created", "", "creation date")
	uf.BoolVar(&uploadWait, "wait", false, "wait until the document is consumed")
	uf.DurationVar(&uploadTimeout, "timeout", 5*time.Minute, "how long to wait with --wait")

	documentsDeleteCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")

	pf := documentsPatchCmd.Flags()
	pf.StringVar(&uploadTitle, "title", "", "new title")
	pf.IntSliceVar(&docTags, "tag", nil, "replace tags with these ids")
	pf.IntVar(&docCorrespondent, "correspondent", 0, "correspondent id")
	pf.IntVar(&docType, "type", 0, "document type id")
	pf.IntVar(&uploadASN, "asn", 0, "archive serial number")
	pf.StringVar(&uploadCreated, "created", "", "creation date")

	ef := documentsEmailCmd.Flags()
	ef.StringVar(&emailTo, "to", "", "comma separated recipient addresses")
	ef.StringVar(&emailSubject, "subject", "", "mail subject")
	ef.StringVar(&emailMessage, "message", "", "mail body")
	ef.BoolVar(&emailArchive, "archive", true, "attach the archived version")
	_ = documentsEmailCmd.MarkFlagRequired("to")
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	expr, err := getFilterExpression()
	if err != nil {
		return err
	}

	query := &paperless.DocumentListQuery{
		ListQuery: paperless.ListQuery{
			Page:     docPage,
			PageSize: docPageSize,
			Ordering: docOrdering,
		},
		Query:     docQuery,
		TagsIDAll: docTags,
	}
	if cmd.Flags().Changed("correspondent") {
		query.CorrespondentID = &docCorrespondent
	}
	if cmd.Flags().Changed("type") {
		query.DocumentTypeID = &docType
	}
	if cmd.Flags().Changed("inbox") {
		query.IsInInbox = &docInbox
	}

	var docs []paperless.Document
	total := 0
	if docAll || expr != "" {
		docs, err = client.Documents.ListAll(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		total = len(docs)
	} else {
		page, err := client.Documents.List(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		docs = page.Results
		total = page.Count
	}

	names, err := loadNames(ctx)
	if err != nil {
		return err
	}

	if expr != "" {
		docs, err = applyFilter(ctx, expr, docs, names)
		if err != nil {
			return err
		}
		total = len(docs)
	}

	logger.Debug().Int("shown", len(docs)).Int("total", total).Msg("Listed documents")

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, documentRow(doc, names))
	}
	return render(cmd, view{
		data:    docs,
		headers: []string{"ID", "Title", "Correspondent", "Type", "Tags", "Created"},
		rows:    rows,
	})
}

// getFilterExpression determines the filter expression to use
func getFilterExpression() (string, error) {
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expr, ok := cfg.Filter[preset]; ok {
			return expr, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return "", nil
}

// applyFilter evaluates expr client side against docs
func applyFilter(ctx context.Context, expr string, docs []paperless.Document, names *filter.Names) ([]paperless.Document, error) {
	manager := filter.NewManager(filter.WithEvaluator(
		filter.NewConcurrentEvaluator(filter.WithWorkers(cfg.Safety.Concurrency)),
	))

	compiled, err := manager.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	views := make([]filter.Document, len(docs))
	byID := make(map[int]paperless.Document, len(docs))
	for i := range docs {
		views[i] = filter.NewDocument(&docs[i], names)
		byID[docs[i].ID] = docs[i]
	}

	matches, err := manager.Evaluate(ctx, compiled, views)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// documents that fail to evaluate do not match
		logger.Warn().Err(err).Msg("Filter failed on some documents")
	}

	result := make([]paperless.Document, 0, len(matches))
	for _, m := range matches {
		result = append(result, byID[m.ID])
	}
	return result, nil
}

// loadNames fetches the tag, correspondent and document type names
func loadNames(ctx context.Context) (*filter.Names, error) {
	names := &filter.Names{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tags, err := client.Tags.ListAll(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}
		names.Tags = make(map[int]string, len(tags))
		for _, t := range tags {
			names.Tags[t.ID] = t.Name
		}
		return nil
	})
	g.Go(func() error {
		correspondents, err := client.Correspondents.ListAll(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list correspondents: %w", err)
		}
		names.Correspondents = make(map[int]string, len(correspondents))
		for _, c := range correspondents {
			names.Correspondents[c.ID] = c.Name
		}
		return nil
	})
	g.Go(func() error {
		types, err := client.DocumentTypes.ListAll(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list document types: %w", err)
		}
		names.DocumentTypes = make(map[int]string, len(types))
		for _, t := range types {
			names.DocumentTypes[t.ID] = t.Name
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

func documentRow(doc paperless.Document, names *filter.Names) []string {
	fd := filter.NewDocument(&doc, names)

	created := "-"
	if !fd.Created.IsZero() {
		created = fd.Created.Format("2006-01-02")
	}

	return []string{
		strconv.Itoa(doc.ID),
		truncate(doc.Title, 50),
		orDash(fd.Correspondent),
		orDash(fd.DocumentType),
		strings.Join(fd.TagNames, ", "),
		created,
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	doc, err := client.Documents.Retrieve(ctx, id, nil)
	if err != nil {
		return fmt.Errorf("failed to get document %d: %w", id, err)
	}

	names, err := loadNames(ctx)
	if err != nil {
		return err
	}
	fd := filter.NewDocument(doc, names)

	asn := "-"
	if doc.ArchiveSerialNumber != nil {
		asn = strconv.Itoa(*doc.ArchiveSerialNumber)
	}

	return render(cmd, view{
		data:    doc,
		headers: []string{"Field", "Value"},
		rows: keyValueRows(
			"ID", strconv.Itoa(doc.ID),
			"Title", doc.Title,
			"Correspondent", orDash(fd.Correspondent),
			"Type", orDash(fd.DocumentType),
			"Tags", strings.Join(fd.TagNames, ", "),
			"Created", doc.Created,
			"Added", formatTime(doc.Added),
			"Modified", formatTime(doc.Modified),
			"ASN", asn,
			"File", orDash(doc.OriginalFileName),
			"Notes", strconv.Itoa(len(doc.Notes)),
		),
	})
}
