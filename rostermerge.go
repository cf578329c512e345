// Package rostermerge provides the main entry point for reconciling
// legislative rosters kept as one YAML file per person.
//
// A data root holds data/<jurisdiction>/people (active records),
// data/<jurisdiction>/retired, data/<jurisdiction>/organizations
// (committees) and incoming/<jurisdiction>/people (a fresh scrape). The
// client reconciles the active and retired records with the incoming ones,
// retires single records, merges duplicate files and checks incoming
// volume against configured seat counts.
//
// Example usage:
//
//	client, err := rostermerge.New(
//	    rostermerge.WithDataRoot("./people"),
//	    rostermerge.WithJournal("./rostermerge.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.OnRetired(func(op *operations.Retire) {
//	    log.Printf("retired %s", op.Subject())
//	})
//
//	result, err := client.Merge(ctx, "ak", reconciler.WithSave(false))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, op := range result.Plan {
//	    fmt.Println(op.Describe())
//	}
package rostermerge

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/agentstation/rostermerge/internal/gitstate"
	"github.com/agentstation/rostermerge/internal/journal"
	"github.com/agentstation/rostermerge/internal/store/yamlstore"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/logging"
	"github.com/agentstation/rostermerge/pkg/merger"
	"github.com/agentstation/rostermerge/pkg/reconciler"
	"github.com/agentstation/rostermerge/pkg/retire"
	"github.com/agentstation/rostermerge/pkg/seats"
	"github.com/agentstation/rostermerge/pkg/store"
)

// Client manages the rosters under one data root.
type Client interface {
	// Store returns the file store of a jurisdiction.
	Store(jurisdiction string) (*yamlstore.Store, error)

	// Merge reconciles a jurisdiction's existing roster with its incoming one.
	Merge(ctx context.Context, jurisdiction string, opts ...reconciler.Option) (*reconciler.Result, error)

	// Retire retires the person stored at path.
	Retire(ctx context.Context, path string, r retire.Retirement) (*retire.Result, error)

	// CheckIncoming compares the incoming record count with expected seats.
	CheckIncoming(ctx context.Context, jurisdiction string) (*seats.Check, error)

	// MergeFiles folds the person at newPath into the one at oldPath and
	// deletes newPath.
	MergeFiles(ctx context.Context, oldPath, newPath string, policy merger.Policy) (document.Document, error)

	// OnCreated registers a callback for applied creations
	OnCreated(CreatedHook)

	// OnUpdated registers a callback for applied updates
	OnUpdated(UpdatedHook)

	// OnRetired registers a callback for applied retirements
	OnRetired(RetiredHook)

	// Close releases the journal, if one is open.
	Close() error
}

// client is the internal implementation of the Client interface
type client struct {
	config *config
	hooks  *hooks

	mu      sync.Mutex
	journal *journal.Journal
}

// New creates a new Client with the given options
func New(opts ...Option) (Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return &client{config: cfg, hooks: newHooks()}, nil
}

func (c *client) Store(jurisdiction string) (*yamlstore.Store, error) {
	return yamlstore.New(c.config.dataRoot, jurisdiction)
}

func (c *client) OnCreated(fn CreatedHook) { c.hooks.OnCreated(fn) }
func (c *client) OnUpdated(fn UpdatedHook) { c.hooks.OnUpdated(fn) }
func (c *client) OnRetired(fn RetiredHook) { c.hooks.OnRetired(fn) }

// Merge reconciles a jurisdiction. Settings, when present, enable the
// incoming-volume check; a configured journal records the run.
func (c *client) Merge(ctx context.Context, jurisdiction string, opts ...reconciler.Option) (*reconciler.Result, error) {
	ctx = logging.WithJurisdiction(ctx, jurisdiction)
	logger := logging.FromContext(ctx)

	st, err := c.Store(jurisdiction)
	if err != nil {
		return nil, err
	}
	if c.config.requireClean {
		if err := gitstate.RequireClean(st.Root()); err != nil {
			return nil, err
		}
	}

	runID := uuid.New().String()
	base := []reconciler.Option{
		reconciler.WithClock(c.config.now),
		reconciler.WithObserver(c.hooks.observer()),
	}

	expected, err := c.expectedSeats(ctx, jurisdiction)
	if err != nil {
		return nil, err
	}
	if expected != nil {
		base = append(base, reconciler.WithSeats(expected))
	}

	j, err := c.openJournal()
	if err != nil {
		return nil, err
	}
	if j != nil {
		base = append(base, reconciler.WithObserver(j.Observer(runID)))
	}

	// The journal keys entries on this run id, so it is applied last.
	opts = append(append(base, opts...), reconciler.WithRunID(runID))
	rec, err := reconciler.New(opts...)
	if err != nil {
		return nil, err
	}

	if j != nil {
		run := journal.Run{ID: runID, Jurisdiction: jurisdiction, StartedAt: c.config.now()}
		if err := j.Begin(ctx, run); err != nil {
			return nil, err
		}
	}

	result, runErr := rec.Reconcile(ctx, st)

	if j != nil {
		status := journal.StatusSucceeded
		if runErr != nil {
			status = journal.StatusFailed
		}
		save := result != nil && !result.DryRun
		if err := j.Finish(ctx, runID, status, save); err != nil {
			logger.Warn().Err(err).Msg("failed to finish journal run")
		}
	}
	return result, runErr
}

// expectedSeats expands the jurisdiction's seat settings. Missing settings
// disable the check.
func (c *client) expectedSeats(ctx context.Context, jurisdiction string) (seats.Seats, error) {
	if c.config.settingsFile == "" {
		return nil, nil
	}
	settings, err := seats.Load(c.config.settingsFile)
	if errors.IsNotFound(err) {
		logging.FromContext(ctx).Debug().Str("settings", c.config.settingsFile).Msg("no settings file, skipping seat check")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j, err := settings.Get(jurisdiction)
	if errors.IsNotFound(err) {
		logging.FromContext(ctx).Debug().Msg("jurisdiction has no seat settings")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return seats.Expand(j, c.config.now())
}

func (c *client) openJournal() (*journal.Journal, error) {
	if c.config.journalPath == "" {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.journal == nil {
		j, err := journal.Open(c.config.journalPath)
		if err != nil {
			return nil, err
		}
		c.journal = j
	}
	return c.journal, nil
}

// Retire retires one active person record. Committee memberships in the
// same jurisdiction are ended too.
func (c *client) Retire(ctx context.Context, path string, r retire.Retirement) (*retire.Result, error) {
	st, ref, err := yamlstore.Locate(path)
	if err != nil {
		return nil, err
	}
	if ref.Kind != store.KindPerson || ref.Partition != store.Active {
		return nil, errors.NewValidationError("path", path, "only active person records can be retired")
	}
	rec, err := st.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithPerson(logging.WithJurisdiction(ctx, st.Jurisdiction()), rec.Doc.ID())
	return retire.New(st, retire.WithClock(c.config.now)).Retire(ctx, rec, r)
}

// CheckIncoming compares the incoming volume with the expected seat count.
func (c *client) CheckIncoming(ctx context.Context, jurisdiction string) (*seats.Check, error) {
	if c.config.settingsFile == "" {
		return nil, errors.NewConfigError("settings", "no settings file configured", nil)
	}
	settings, err := seats.Load(c.config.settingsFile)
	if err != nil {
		return nil, err
	}
	j, err := settings.Get(jurisdiction)
	if err != nil {
		return nil, err
	}
	expected, err := seats.Expand(j, c.config.now())
	if err != nil {
		return nil, err
	}

	st, err := c.Store(jurisdiction)
	if err != nil {
		return nil, err
	}
	incoming, err := st.List(ctx, store.KindPerson, store.Incoming)
	if err != nil {
		return nil, err
	}
	check, err := seats.CheckIncoming(expected.Expected(), len(incoming))
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().
		Str("jurisdiction", jurisdiction).
		Int("expected", check.Expected).
		Int("incoming", check.Incoming).
		Bool("ok", check.OK).
		Msg("checked incoming volume")
	return &check, nil
}

// MergeFiles merges two person files. Both ids are kept unless the new file
// came from the incoming partition, whose ids are throwaway.
func (c *client) MergeFiles(ctx context.Context, oldPath, newPath string, policy merger.Policy) (document.Document, error) {
	oldStore, oldRef, err := yamlstore.Locate(oldPath)
	if err != nil {
		return nil, err
	}
	newStore, newRef, err := yamlstore.Locate(newPath)
	if err != nil {
		return nil, err
	}
	if oldRef.Kind != store.KindPerson || newRef.Kind != store.KindPerson {
		return nil, errors.NewValidationError("path", newPath, "only person records can be merged")
	}

	existing, err := oldStore.Load(ctx, oldRef)
	if err != nil {
		return nil, err
	}
	incoming, err := newStore.Load(ctx, newRef)
	if err != nil {
		return nil, err
	}

	merged, err := merger.Merge(existing.Doc, incoming.Doc,
		merger.WithPolicy(policy),
		merger.WithKeepBothIDs(newRef.Partition != store.Incoming),
		merger.WithAsOf(document.Today(c.config.now())),
	)
	if err != nil {
		return nil, err
	}

	existing.Doc = merged
	if err := oldStore.Save(ctx, existing); err != nil {
		return nil, err
	}
	if err := newStore.Delete(ctx, newRef); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().
		Str("into", oldRef.String()).
		Str("removed", newRef.String()).
		Msg("merged person files")
	return merged, nil
}

// Close closes the journal.
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.journal == nil {
		return nil
	}
	err := c.journal.Close()
	c.journal = nil
	return err
}

var _ Client = (*client)(nil)
