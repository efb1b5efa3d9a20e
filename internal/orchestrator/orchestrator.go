package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ShayCichocki/agentflow/internal/api"
	"github.com/ShayCichocki/agentflow/internal/prompt"
	"github.com/ShayCichocki/agentflow/internal/response"
	"github.com/ShayCichocki/agentflow/pkg/models"
)

// Agent names shown in the activity log for the non sub-task stages.
const (
	AgentPlanner   = "Planner"
	AgentFinalizer = "Finalizer"
)

// Completer is the completion service boundary. *api.Client implements it.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts api.Options) (string, error)
}

// usageSource is implemented by completers that track token usage.
type usageSource interface {
	Tracker() *api.TokenTracker
}

// Orchestrator runs one goal at a time through decompose, execute-each and
// summarize. It is the only writer of run state; observers get snapshots.
type Orchestrator struct {
	client Completer
	logger *DebugLogger

	newRunID func() string
	now      func() time.Time

	// notifyMu serializes transitions with their listener calls so
	// listeners see transitions in order.
	notifyMu sync.Mutex

	mu             sync.Mutex
	builder        *prompt.Builder
	stageOpts      StageOptions
	run            models.Snapshot
	done           chan struct{}
	runErr         error
	nextLogID      uint64
	listeners      map[int]Listener
	listenerOrder  []int
	nextListenerID int
}

// New creates an idle Orchestrator that calls client for every stage.
func New(client Completer, opts ...Option) *Orchestrator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	orch := &Orchestrator{
		client:    client,
		logger:    o.logger,
		newRunID:  o.newRunID,
		now:       o.now,
		builder:   o.builder,
		stageOpts: o.stageOpts,
		run:       models.Snapshot{Stage: models.StageIdle},
		listeners: make(map[int]Listener),
	}
	for _, l := range o.listeners {
		orch.Subscribe(l)
	}
	return orch
}

// Subscribe registers l for every later transition and returns a func
// that removes it.
func (o *Orchestrator) Subscribe(l Listener) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextListenerID
	o.nextListenerID++
	o.listeners[id] = l
	o.listenerOrder = append(o.listenerOrder, id)

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.listeners, id)
		for i, v := range o.listenerOrder {
			if v == id {
				o.listenerOrder = append(o.listenerOrder[:i], o.listenerOrder[i+1:]...)
				break
			}
		}
	}
}

// Snapshot returns a deep copy of the current run state.
func (o *Orchestrator) Snapshot() models.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run.Clone()
}

// SetStageOptions replaces the stage options. Runs already in flight keep
// the options they started with.
func (o *Orchestrator) SetStageOptions(s StageOptions) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stageOpts = s
}

// SetBuilder replaces the prompt builder for the next run.
func (o *Orchestrator) SetBuilder(b *prompt.Builder) {
	if b == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.builder = b
}

// runConfig is captured at start so a run never observes later changes.
type runConfig struct {
	builder *prompt.Builder
	opts    StageOptions
	done    chan struct{}
}

// Start begins a run for goal in the background. It is a no-op returning
// ErrRunInProgress while another run is active.
func (o *Orchestrator) Start(ctx context.Context, goal string) error {
	cfg, err := o.begin(goal)
	if err != nil {
		return err
	}
	go o.pipeline(ctx, cfg)
	return nil
}

// Run executes a run for goal and blocks until it is terminal. The
// returned error is the run failure, if any, and is a *StageError.
func (o *Orchestrator) Run(ctx context.Context, goal string) (models.Snapshot, error) {
	cfg, err := o.begin(goal)
	if err != nil {
		return o.Snapshot(), err
	}
	err = o.pipeline(ctx, cfg)
	return o.Snapshot(), err
}

// Wait blocks until the current run is terminal or ctx is done. With no
// run started it returns immediately.
func (o *Orchestrator) Wait(ctx context.Context) (models.Snapshot, error) {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	if done == nil {
		return o.Snapshot(), nil
	}
	select {
	case <-done:
	case <-ctx.Done():
		return o.Snapshot(), ctx.Err()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run.Clone(), o.runErr
}

// Reset discards a finished run and returns to Idle. It fails with
// ErrRunInProgress while a run is active and is a no-op when idle.
func (o *Orchestrator) Reset() error {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	switch {
	case o.run.Stage.Active():
		o.mu.Unlock()
		return ErrRunInProgress
	case o.run.Stage == models.StageIdle:
		o.mu.Unlock()
		return nil
	}
	if err := ValidateTransition(o.run.Stage, models.StageIdle); err != nil {
		o.mu.Unlock()
		return err
	}
	o.logger.Log("[reset] discarding run %s (%s)", o.run.RunID, o.run.Stage)
	o.run = models.Snapshot{Stage: models.StageIdle}
	o.done = nil
	o.runErr = nil
	ev := o.eventLocked(EventReset, 0, "run state discarded", nil)
	listeners := o.listenersLocked()
	o.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
	return nil
}

// begin validates the goal and moves Idle -> Decomposing.
func (o *Orchestrator) begin(goal string) (runConfig, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return runConfig{}, ErrEmptyGoal
	}

	var cfg runConfig
	var beginErr error
	o.transition(func(run *models.Snapshot) (Event, bool) {
		switch {
		case run.Stage.Active():
			beginErr = ErrRunInProgress
			return Event{}, false
		case run.Stage != models.StageIdle:
			beginErr = ErrNotIdle
			return Event{}, false
		}

		now := o.now()
		*run = models.Snapshot{
			RunID:     o.newRunID(),
			Goal:      goal,
			Stage:     models.StageDecomposing,
			StartedAt: now,
		}
		o.addLogLocked(AgentPlanner, "Breaking the goal into sub-tasks")

		cfg = runConfig{
			builder: o.builder,
			opts:    o.stageOpts,
			done:    make(chan struct{}),
		}
		o.done = cfg.done
		o.runErr = nil
		o.logger.Log("[start] run %s goal=%q variant=%s", run.RunID, goal, cfg.builder.Variant)
		return o.eventLocked(EventRunStarted, 0, "decomposing goal", nil), true
	})
	if beginErr != nil {
		o.logger.Log("[start] rejected goal=%q: %v", goal, beginErr)
		return runConfig{}, beginErr
	}
	return cfg, nil
}

// pipeline drives a started run to Done or Failed.
func (o *Orchestrator) pipeline(ctx context.Context, cfg runConfig) (err error) {
	defer func() {
		o.mu.Lock()
		if o.done == cfg.done {
			o.runErr = err
		}
		o.mu.Unlock()
		close(cfg.done)
	}()

	tasks, err := o.decompose(ctx, cfg)
	if err != nil {
		return o.fail(&StageError{Stage: models.StageDecomposing, Err: err}, 0)
	}

	for i := range tasks {
		if err := o.executeTask(ctx, cfg, i); err != nil {
			return o.fail(&StageError{Stage: models.StageExecuting, TaskID: i + 1, Err: err}, i)
		}
	}

	if err := o.summarize(ctx, cfg); err != nil {
		return o.fail(&StageError{Stage: models.StageSummarizing, Err: err}, 0)
	}
	return nil
}

func (o *Orchestrator) decompose(ctx context.Context, cfg runConfig) ([]models.SubTask, error) {
	snap := o.Snapshot()

	p, err := cfg.builder.Decompose(snap.Goal)
	if err != nil {
		return nil, err
	}

	raw, err := o.complete(ctx, p, cfg.opts.Decompose)
	if err != nil {
		return nil, err
	}

	tasks, err := parsePlan(cfg.builder.Variant, raw)
	if err != nil {
		o.logger.Log("[decompose] parse failed: %v", err)
		return nil, err
	}

	o.transition(func(run *models.Snapshot) (Event, bool) {
		run.SubTasks = tasks
		run.Cursor = 0
		run.Stage = models.StageExecuting
		o.finishLogLocked(AgentPlanner, models.SubTaskCompleted, fmt.Sprintf("Planned %d sub-tasks", len(tasks)), "")
		return o.eventLocked(EventPlanned, 0, fmt.Sprintf("planned %d sub-tasks", len(tasks)), nil), true
	})
	o.logger.Log("[decompose] %d sub-tasks", len(tasks))
	return tasks, nil
}

// parsePlan turns the decomposition response into pending sub-tasks with
// 1-based IDs in response order.
func parsePlan(variant prompt.Variant, raw string) ([]models.SubTask, error) {
	var tasks []models.SubTask
	if variant == prompt.VariantPlain {
		descs, err := response.ParseDescriptions(raw)
		if err != nil {
			return nil, err
		}
		for i, d := range descs {
			tasks = append(tasks, models.SubTask{ID: i + 1, Description: d, Status: models.SubTaskPending})
		}
		return tasks, nil
	}

	items, err := response.ParseRoleTasks(raw)
	if err != nil {
		return nil, err
	}
	for i, it := range items {
		tasks = append(tasks, models.SubTask{ID: i + 1, Description: it.Task, Role: it.Role, Status: models.SubTaskPending})
	}
	return tasks, nil
}

func (o *Orchestrator) executeTask(ctx context.Context, cfg runConfig, i int) error {
	var task models.SubTask
	var contextEntries []models.ContextEntry
	var total int
	var startErr error

	o.transition(func(run *models.Snapshot) (Event, bool) {
		st := &run.SubTasks[i]
		if !st.Status.CanTransition(models.SubTaskInProgress) {
			startErr = fmt.Errorf("sub-task %d cannot start from %s", st.ID, st.Status)
			return Event{}, false
		}
		now := o.now()
		st.Status = models.SubTaskInProgress
		st.StartedAt = &now
		run.Cursor = i
		o.addLogLocked(agentName(st.Role), st.Description)

		task = *st
		total = len(run.SubTasks)
		contextEntries = run.Context()
		return o.eventLocked(EventTaskStarted, st.ID, st.Description, nil), true
	})
	if startErr != nil {
		return startErr
	}
	o.logger.Log("[execute] sub-task %d/%d role=%s context=%d", task.ID, total, task.Role, len(contextEntries))

	p, err := cfg.builder.Execute(task, contextEntries)
	if err != nil {
		return err
	}
	raw, err := o.complete(ctx, p, cfg.opts.Execute)
	if err != nil {
		return err
	}
	result, err := response.ParseText(raw)
	if err != nil {
		return err
	}

	o.transition(func(run *models.Snapshot) (Event, bool) {
		st := &run.SubTasks[i]
		now := o.now()
		st.Status = models.SubTaskCompleted
		st.Result = result
		st.CompletedAt = &now
		run.Cursor = i + 1
		o.finishLogLocked(agentName(st.Role), models.SubTaskCompleted, "Completed", "")

		if run.Cursor == len(run.SubTasks) {
			run.Stage = models.StageSummarizing
			o.addLogLocked(AgentFinalizer, "Compiling the final report")
		}
		return o.eventLocked(EventTaskCompleted, st.ID, st.Description, nil), true
	})
	o.logger.Log("[execute] sub-task %d completed (%d chars)", task.ID, len(result))
	return nil
}

func (o *Orchestrator) summarize(ctx context.Context, cfg runConfig) error {
	snap := o.Snapshot()

	p, err := cfg.builder.Summarize(snap.Goal, snap.Context())
	if err != nil {
		return err
	}
	raw, err := o.complete(ctx, p, cfg.opts.Summarize)
	if err != nil {
		return err
	}
	report, err := response.ParseText(raw)
	if err != nil {
		return err
	}

	o.transition(func(run *models.Snapshot) (Event, bool) {
		now := o.now()
		run.Stage = models.StageDone
		run.Report = report
		run.FinishedAt = &now
		o.finishLogLocked(AgentFinalizer, models.SubTaskCompleted, "Report ready", "")
		return o.eventLocked(EventRunDone, 0, "final report ready", nil), true
	})
	o.logger.Log("[summarize] run %s done, report %d chars", snap.RunID, len(report))
	return nil
}

// fail moves the run to Failed. A sub-task in progress at index i is
// marked Failed; every later sub-task stays Pending.
func (o *Orchestrator) fail(stageErr *StageError, i int) error {
	msg := stageErr.Error()
	o.logger.Log("[fail] %s", msg)

	o.transition(func(run *models.Snapshot) (Event, bool) {
		now := o.now()
		evType := EventRunFailed
		agent := AgentPlanner
		if stageErr.Stage == models.StageSummarizing {
			agent = AgentFinalizer
		}

		if stageErr.TaskID > 0 && i < len(run.SubTasks) {
			st := &run.SubTasks[i]
			agent = agentName(st.Role)
			if st.Status.CanTransition(models.SubTaskFailed) {
				st.Status = models.SubTaskFailed
				st.Error = stageErr.Err.Error()
				st.CompletedAt = &now
				evType = EventTaskFailed
			}
		}

		run.Stage = models.StageFailed
		run.Error = msg
		run.FinishedAt = &now
		o.finishLogLocked(agent, models.SubTaskFailed, "", stageErr.Err.Error())
		return o.eventLocked(evType, stageErr.TaskID, msg, stageErr), true
	})
	return stageErr
}

// complete calls the service and folds any token usage into the run.
func (o *Orchestrator) complete(ctx context.Context, p string, opts api.Options) (string, error) {
	var tracker *api.TokenTracker
	var beforeIn, beforeOut int64
	if us, ok := o.client.(usageSource); ok {
		tracker = us.Tracker()
		beforeIn, beforeOut = tracker.Total()
	}

	raw, err := o.client.Complete(ctx, p, opts)

	if tracker != nil {
		afterIn, afterOut := tracker.Total()
		o.mu.Lock()
		o.run.InputTokens += afterIn - beforeIn
		o.run.OutputTokens += afterOut - beforeOut
		o.mu.Unlock()
	}
	return raw, err
}

// transition applies fn under the state lock, then delivers the returned
// event to listeners. fn returns false to abort without notifying.
func (o *Orchestrator) transition(fn func(run *models.Snapshot) (Event, bool)) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	from := o.run.Stage
	ev, ok := fn(&o.run)
	if ok {
		if err := ValidateTransition(from, o.run.Stage); err != nil {
			// Unreachable unless the pipeline is miswired.
			o.logger.Log("[transition] %v", err)
		}
	}
	listeners := o.listenersLocked()
	o.mu.Unlock()

	if !ok {
		return
	}
	for _, l := range listeners {
		l(ev)
	}
}

func (o *Orchestrator) listenersLocked() []Listener {
	out := make([]Listener, 0, len(o.listenerOrder))
	for _, id := range o.listenerOrder {
		out = append(out, o.listeners[id])
	}
	return out
}

func (o *Orchestrator) eventLocked(t EventType, taskID int, msg string, err error) Event {
	return Event{
		Type:      t,
		TaskID:    taskID,
		Message:   msg,
		Err:       err,
		Snapshot:  o.run.Clone(),
		Timestamp: o.now(),
	}
}

// addLogLocked appends an in-progress activity entry.
func (o *Orchestrator) addLogLocked(agent, message string) {
	o.nextLogID++
	o.run.Log = append(o.run.Log, models.LogEntry{
		ID:        o.nextLogID,
		Agent:     agent,
		Message:   message,
		Status:    models.SubTaskInProgress,
		Timestamp: o.now(),
	})
}

// finishLogLocked closes the latest in-progress entry for agent.
func (o *Orchestrator) finishLogLocked(agent string, status models.SubTaskStatus, detail, errMsg string) {
	for i := len(o.run.Log) - 1; i >= 0; i-- {
		e := &o.run.Log[i]
		if e.Agent == agent && e.Status == models.SubTaskInProgress {
			e.Status = status
			e.Detail = detail
			e.Error = errMsg
			return
		}
	}
}

func agentName(role models.AgentRole) string {
	return role.Title()
}
