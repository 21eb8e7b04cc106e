package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/paperctl/paperless"
)

// forEachDocument runs fn for every id with bounded concurrency. Every id is
// attempted; failures are collected.
func forEachDocument(ctx context.Context, ids []int, fn func(ctx context.Context, id int) error) error {
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Safety.Concurrency)

	for _, id := range ids {
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("document %d: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errs.ErrorOrNil()
}

func runDocumentsDownload(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", downloadDir, err)
	}

	opts := &paperless.DownloadOptions{Stream: true}
	if cmd.Flags().Changed("original") {
		opts.Original = &downloadOriginal
	}

	var outMu sync.Mutex
	out := cmd.OutOrStdout()
	names := &fileNames{used: make(map[string]bool)}

	return forEachDocument(cmd.Context(), ids, func(ctx context.Context, id int) error {
		path, err := downloadDocument(ctx, id, opts, names)
		if err != nil {
			logger.Error().Err(err).Int("document", id).Msg("Download failed")
			return err
		}

		outMu.Lock()
		fmt.Fprintf(out, "✓ Document %d saved to %s\n", id, path)
		outMu.Unlock()
		return nil
	})
}

func downloadDocument(ctx context.Context, id int, opts *paperless.DownloadOptions, names *fileNames) (string, error) {
	content, err := client.Documents.Download(ctx, id, opts)
	if err != nil {
		return "", err
	}
	defer content.Body.Close()

	path := filepath.Join(downloadDir, names.claim(downloadFileName(id, content), id))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, content.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// fileNames hands out file names that are unique within one download run
type fileNames struct {
	mu   sync.Mutex
	used map[string]bool
}

// claim reserves name, or name with the document id appended before the
// extension when another document of this run already took it
func (n *fileNames) claim(name string, id int) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; n.used[candidate]; i++ {
		if i == 1 {
			candidate = fmt.Sprintf("%s-%d%s", stem, id, ext)
		} else {
			candidate = fmt.Sprintf("%s-%d-%d%s", stem, id, i, ext)
		}
	}
	n.used[candidate] = true
	return candidate
}

// downloadFileName picks the server supplied name, or one derived from the id
// and content type
func downloadFileName(id int, content *paperless.DocumentContent) string {
	if name := filepath.Base(content.FileName); content.FileName != "" && name != "." && name != string(filepath.Separator) {
		return name
	}

	ext := ""
	if exts, err := mime.ExtensionsByType(content.ContentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("document-%d%s", id, ext)
}

func runDocumentsUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	opts := paperless.UploadOptions{
		Document: f,
		FileName: filepath.Base(path),
		Title:    uploadTitle,
		Tags:     docTags,
		Created:  uploadCreated,
	}
	if cmd.Flags().Changed("correspondent") {
		opts.Correspondent = &docCorrespondent
	}
	if cmd.Flags().Changed("type") {
		opts.DocumentType = &docType
	}
	if cmd.Flags().Changed("asn") {
		opts.ArchiveSerialNumber = &uploadASN
	}

	logger.Info().Str("file", path).Msg("Uploading document")

	taskID, err := client.Documents.Upload(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if !uploadWait {
		fmt.Fprintf(out, "✓ Uploaded, consumption task %s\n", taskID)
		return nil
	}

	fmt.Fprintf(out, "→ Waiting for task %s...\n", taskID)
	task, err := client.Tasks.Wait(ctx, taskID, paperless.WaitOptions{Timeout: uploadTimeout})
	if err != nil {
		if errors.Is(err, paperless.ErrTaskFailed) && task != nil {
			return fmt.Errorf("consumption failed: %s", formatOptional(task.Result))
		}
		return err
	}

	fmt.Fprintf(out, "✓ Consumed as document %s\n", formatOptional(task.RelatedDocument))
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if cfg.Safety.ConfirmDelete && !noConfirm {
		ok, err := confirm(cmd, fmt.Sprintf("Delete %s?", plural(len(ids), "document")))
		if err != nil {
			return err
		}
		if !ok {
			logger.Info().Msg("Deletion cancelled")
			return nil
		}
	}

	var outMu sync.Mutex
	out := cmd.OutOrStdout()

	return forEachDocument(cmd.Context(), ids, func(ctx context.Context, id int) error {
		if err := client.Documents.Remove(ctx, id); err != nil {
			logger.Error().Err(err).Int("document", id).Msg("Delete failed")
			return err
		}

		outMu.Lock()
		fmt.Fprintf(out, "✓ Deleted document %d\n", id)
		outMu.Unlock()
		return nil
	})
}

func runDocumentsPatch(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	patch := &paperless.DocumentPatch{}
	changed := false
	if flags.Changed("title") {
		patch.Title = &uploadTitle
		changed = true
	}
	if flags.Changed("tag") {
		patch.Tags = &docTags
		changed = true
	}
	if flags.Changed("correspondent") {
		patch.Correspondent = &docCorrespondent
		changed = true
	}
	if flags.Changed("type") {
		patch.DocumentType = &docType
		changed = true
	}
	if flags.Changed("asn") {
		patch.ArchiveSerialNumber = &uploadASN
		changed = true
	}
	if flags.Changed("created") {
		patch.Created = &uploadCreated
		changed = true
	}
	if !changed {
		return errors.New("nothing to change: pass at least one field flag")
	}

	doc, err := client.Documents.PartialUpdate(cmd.Context(), id, patch)
	if err != nil {
		return fmt.Errorf("failed to update document %d: %w", id, err)
	}

	return render(cmd, view{
		data:    doc,
		headers: []string{"ID", "Title", "Tags", "Created"},
		rows:    [][]string{{strconv.Itoa(doc.ID), doc.Title, formatInts(doc.Tags), doc.Created}},
	})
}

func runDocumentsHistory(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	entries, err := client.Documents.History(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get history of document %d: %w", id, err)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		actor := "-"
		if e.Actor != nil {
			actor = e.Actor.Username
		}
		fields := slices.Sorted(maps.Keys(e.Changes))
		rows = append(rows, []string{formatTime(e.Timestamp), e.Action, actor, strings.Join(fields, ", ")})
	}

	return render(cmd, view{
		data:    entries,
		headers: []string{"When", "Action", "Actor", "Changed"},
		rows:    rows,
	})
}

func runDocumentsEmail(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	resp, err := client.Documents.SendByEmail(cmd.Context(), id, paperless.EmailRequest{
		Addresses:         emailTo,
		Subject:           emailSubject,
		Message:           emailMessage,
		UseArchiveVersion: emailArchive,
	})
	if err != nil {
		return fmt.Errorf("failed to email document %d: %w", id, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", orDash(resp.Message))
	return nil
}
