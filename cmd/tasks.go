package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/paperctl/paperless"
)

var (
	taskStatus      string
	taskUnacked     bool
	taskWaitTimeout time.Duration
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Follow background tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksGet,
}

var tasksAckCmd = &cobra.Command{
	Use:   "ack <id>...",
	Short: "Acknowledge tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTasksAck,
}

var tasksRunCmd = &cobra.Command{
	Use:   "run <task-name>",
	Short: "Start a system task",
	Long: `Start a system task such as index_optimize, train_classifier or
check_sanity. Requires an admin token.`,
	Args: cobra.ExactArgs(1),
	RunE: runTasksRun,
}

var tasksWaitCmd = &cobra.Command{
	Use:   "wait <task-uuid>",
	Short: "Wait for a task to finish",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksWait,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksGetCmd, tasksAckCmd, tasksRunCmd, tasksWaitCmd)

	tasksListCmd.Flags().StringVar(&taskStatus, "status", "", "only tasks in this state, e.g. FAILURE")
	tasksListCmd.Flags().BoolVar(&taskUnacked, "unacknowledged", false, "only tasks not yet acknowledged")
	tasksWaitCmd.Flags().DurationVar(&taskWaitTimeout, "timeout", 5*time.Minute, "give up after this long")
}

var taskHeaders = []string{"ID", "Task", "File", "Status", "Created", "Result"}

func taskRow(t paperless.Task) []string {
	return []string{
		strconv.Itoa(t.ID),
		t.TaskID,
		formatOptional(t.TaskFileName),
		string(t.Status),
		formatTime(t.DateCreated),
		truncate(formatOptional(t.Result), 60),
	}
}

func runTasksList(cmd *cobra.Command, args []string) error {
	query := &paperless.TaskListQuery{Status: taskStatus}
	if taskUnacked {
		acked := false
		query.Acknowledged = &acked
	}

	tasks, err := client.Tasks.List(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	return renderItems(cmd, tasks, taskHeaders, taskRow)
}

func runTasksGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	task, err := client.Tasks.Retrieve(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return renderItems(cmd, []paperless.Task{*task}, taskHeaders, taskRow)
}

func runTasksAck(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	resp, err := client.Tasks.Acknowledge(cmd.Context(), ids)
	if err != nil {
		return fmt.Errorf("failed to acknowledge tasks: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Acknowledged %s\n", plural(resp.Result, "task"))
	return nil
}

func runTasksRun(cmd *cobra.Command, args []string) error {
	task, err := client.Tasks.Run(cmd.Context(), paperless.RunTaskRequest{TaskName: args[0]})
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", args[0], err)
	}
	return renderItems(cmd, []paperless.Task{*task}, taskHeaders, taskRow)
}

func runTasksWait(cmd *cobra.Command, args []string) error {
	task, err := client.Tasks.Wait(cmd.Context(), args[0], paperless.WaitOptions{Timeout: taskWaitTimeout})
	if err != nil && !(errors.Is(err, paperless.ErrTaskFailed) && task != nil) {
		return err
	}

	if rerr := renderItems(cmd, []paperless.Task{*task}, taskHeaders, taskRow); rerr != nil {
		return rerr
	}
	return err
}
