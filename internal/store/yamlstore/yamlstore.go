// Package yamlstore stores records as one YAML file each, laid out as
//
//	<root>/data/<jurisdiction>/people/         active people
//	<root>/data/<jurisdiction>/retired/        retired people
//	<root>/data/<jurisdiction>/organizations/  committees
//	<root>/incoming/<jurisdiction>/people/     incoming people
package yamlstore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/document"
	"github.com/agentstation/rostermerge/pkg/errors"
	"github.com/agentstation/rostermerge/pkg/logging"
	"github.com/agentstation/rostermerge/pkg/store"
)

const (
	dataDir      = "data"
	incomingDir  = "incoming"
	peopleDir    = "people"
	retiredDir   = "retired"
	committeeDir = "organizations"
)

// Store is a file backed store.Store for one jurisdiction.
type Store struct {
	root         string
	jurisdiction string
}

var _ store.Store = (*Store)(nil)

// New creates a store rooted at root for a jurisdiction.
func New(root, jurisdiction string) (*Store, error) {
	if jurisdiction == "" || strings.ContainsAny(jurisdiction, `/\`) {
		return nil, errors.NewValidationError("jurisdiction", jurisdiction, "must be a single path segment")
	}
	return &Store{root: root, jurisdiction: jurisdiction}, nil
}

// Locate resolves a record file path into its store and ref. The path must
// sit in one of the known partition directories.
func Locate(path string) (*Store, store.Ref, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, store.Ref{}, errors.WrapIO("resolve", path, err)
	}
	dir := filepath.Dir(abs)
	jurDir := filepath.Dir(dir)
	top := filepath.Base(filepath.Dir(jurDir))
	root := filepath.Dir(filepath.Dir(jurDir))

	ref := store.Ref{Name: filepath.Base(abs)}
	switch {
	case filepath.Base(dir) == peopleDir && top == dataDir:
		ref.Kind, ref.Partition = store.KindPerson, store.Active
	case filepath.Base(dir) == retiredDir && top == dataDir:
		ref.Kind, ref.Partition = store.KindPerson, store.Retired
	case filepath.Base(dir) == peopleDir && top == incomingDir:
		ref.Kind, ref.Partition = store.KindPerson, store.Incoming
	case filepath.Base(dir) == committeeDir && top == dataDir:
		ref.Kind, ref.Partition = store.KindCommittee, store.Active
	default:
		return nil, store.Ref{}, errors.NewValidationError("path", path, "not inside a known partition directory")
	}

	s, err := New(root, filepath.Base(jurDir))
	if err != nil {
		return nil, store.Ref{}, err
	}
	return s, ref, nil
}

// Root returns the directory holding data/ and incoming/.
func (s *Store) Root() string { return s.root }

// Jurisdiction returns the jurisdiction the store serves.
func (s *Store) Jurisdiction() string { return s.jurisdiction }

// Dir returns the directory records of a kind and partition live in.
func (s *Store) Dir(kind store.Kind, partition store.Partition) (string, error) {
	if err := store.Validate(kind, partition); err != nil {
		return "", err
	}
	switch {
	case kind == store.KindCommittee:
		return filepath.Join(s.root, dataDir, s.jurisdiction, committeeDir), nil
	case partition == store.Retired:
		return filepath.Join(s.root, dataDir, s.jurisdiction, retiredDir), nil
	case partition == store.Incoming:
		return filepath.Join(s.root, incomingDir, s.jurisdiction, peopleDir), nil
	default:
		return filepath.Join(s.root, dataDir, s.jurisdiction, peopleDir), nil
	}
}

// Path returns the file a ref is stored at.
func (s *Store) Path(ref store.Ref) (string, error) {
	dir, err := s.Dir(ref.Kind, ref.Partition)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ref.Name), nil
}

// List implements store.Reader. A missing directory is an empty partition.
func (s *Store) List(ctx context.Context, kind store.Kind, partition store.Partition) ([]*store.Record, error) {
	dir, err := s.Dir(kind, partition)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logging.FromContext(ctx).Debug().Str("dir", dir).Msg("partition directory missing")
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("list", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != constants.FileExtension {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	records := make([]*store.Record, 0, len(names))
	for _, name := range names {
		rec, err := s.Load(ctx, store.Ref{Kind: kind, Partition: partition, Name: name})
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Load implements store.Reader.
func (s *Store) Load(_ context.Context, ref store.Ref) (*store.Record, error) {
	path, err := s.Path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("record", path)
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	doc, err := document.Unmarshal(data)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &store.Record{Ref: ref, Doc: doc}, nil
}

// Save implements store.Writer.
func (s *Store) Save(ctx context.Context, rec *store.Record) error {
	path, err := s.Path(rec.Ref)
	if err != nil {
		return err
	}
	if err := writeDocument(path, rec.Doc); err != nil {
		return err
	}
	logging.FromContext(ctx).Debug().Str("path", path).Msg("saved record")
	return nil
}

// Move implements store.Writer.
func (s *Store) Move(ctx context.Context, rec *store.Record, to store.Partition) error {
	from, err := s.Path(rec.Ref)
	if err != nil {
		return err
	}
	target := rec.Ref.In(to)
	dest, err := s.Path(target)
	if err != nil {
		return err
	}
	if dest == from {
		return writeDocument(dest, rec.Doc)
	}
	if _, err := os.Stat(dest); err == nil {
		return &errors.AlreadyExistsError{Resource: "record", ID: dest}
	}
	if err := writeDocument(dest, rec.Doc); err != nil {
		return err
	}
	if err := os.Remove(from); err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("move", from, err)
	}
	rec.Ref = target
	logging.FromContext(ctx).Debug().
		Str("from", from).
		Str("to", dest).
		Msg("moved record")
	return nil
}

// Delete implements store.Writer.
func (s *Store) Delete(_ context.Context, ref store.Ref) error {
	path, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("record", path)
		}
		return errors.WrapIO("delete", path, err)
	}
	return nil
}

// writeDocument writes through a temp file and rename so a reader never
// sees a partial document.
func writeDocument(path string, doc document.Document) error {
	data, err := document.Marshal(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.WrapIO("write", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("write", path, err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
