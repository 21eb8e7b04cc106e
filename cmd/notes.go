package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/paperctl/paperless"
)

var documentsNotesCmd = &cobra.Command{
	Use:   "notes <id>",
	Short: "List the notes of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsNotes,
}

var documentsAddNoteCmd = &cobra.Command{
	Use:   "add-note <id> <text>...",
	Short: "Add a note to a document",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDocumentsAddNote,
}

var documentsRemoveNoteCmd = &cobra.Command{
	Use:   "remove-note <id> <note-id>",
	Short: "Remove a note from a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentsRemoveNote,
}

func init() {
	documentsCmd.AddCommand(documentsNotesCmd, documentsAddNoteCmd, documentsRemoveNoteCmd)
}

func runDocumentsNotes(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	page, err := client.Documents.Notes(cmd.Context(), id, nil)
	if err != nil {
		return fmt.Errorf("failed to list notes of document %d: %w", id, err)
	}
	return renderNotes(cmd, page)
}

func runDocumentsAddNote(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	page, err := client.Documents.AddNote(cmd.Context(), id, paperless.NoteRequest{
		Note: strings.Join(args[1:], " "),
	})
	if err != nil {
		return fmt.Errorf("failed to add note to document %d: %w", id, err)
	}
	return renderNotes(cmd, page)
}

func runDocumentsRemoveNote(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	page, err := client.Documents.RemoveNote(cmd.Context(), ids[0], ids[1])
	if err != nil {
		return fmt.Errorf("failed to remove note %d from document %d: %w", ids[1], ids[0], err)
	}
	return renderNotes(cmd, page)
}

func renderNotes(cmd *cobra.Command, page *paperless.Page[paperless.Note]) error {
	rows := make([][]string, 0, len(page.Results))
	for _, n := range page.Results {
		author := "-"
		if n.User != nil {
			author = n.User.Username
		}
		rows = append(rows, []string{strconv.Itoa(n.ID), formatTime(n.Created), author, n.Note})
	}

	return render(cmd, view{
		data:    page.Results,
		headers: []string{"ID", "Created", "Author", "Note"},
		rows:    rows,
	})
}
