package pond

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datrocity/pond/artifact"
	"github.com/datrocity/pond/metadata"
	"github.com/datrocity/pond/storage"
)

// CommitProvider returns the VCS commit id of the running code. A failure
// is non-fatal: the commit field is simply omitted from lineage.
type CommitProvider func() (string, error)

// Activity coordinates reads and writes of one script, notebook or
// pipeline step. It accumulates the URIs of everything read and written,
// and every write embeds the read history so far as the version's lineage.
//
// Create one Activity per script. There is no process-wide default.
type Activity struct {
	source   string
	author   string
	location string
	store    storage.Datastore
	registry *artifact.Registry
	logger   *zap.Logger
	commit   CommitProvider
	session  string

	mu           sync.Mutex
	readHistory  map[string]struct{}
	writeHistory map[string]struct{}
}

// ActivityOption configures an Activity at construction time.
type ActivityOption func(*Activity)

// WithAuthor sets the author recorded in lineage.
func WithAuthor(author string) ActivityOption {
	return func(a *Activity) { a.author = author }
}

// WithLogger sets the logger. The default is zap.NewNop.
func WithLogger(logger *zap.Logger) ActivityOption {
	return func(a *Activity) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRegistry replaces the artifact format registry.
func WithRegistry(r *artifact.Registry) ActivityOption {
	return func(a *Activity) {
		if r != nil {
			a.registry = r
		}
	}
}

// WithCommitProvider replaces the default git-based commit lookup.
func WithCommitProvider(p CommitProvider) ActivityOption {
	return func(a *Activity) {
		if p != nil {
			a.commit = p
		}
	}
}

// NewActivity creates an Activity writing to the given datastore under the
// given default location.
func NewActivity(source, location string, store storage.Datastore, opts ...ActivityOption) *Activity {
	a := &Activity{
		source:       source,
		location:     location,
		store:        store,
		registry:     artifact.DefaultRegistry(),
		logger:       zap.NewNop(),
		commit:       metadata.GitCommit,
		session:      uuid.NewString(),
		readHistory:  make(map[string]struct{}),
		writeHistory: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option configures a single Read or Write call.
type Option func(*opOptions) error

type opOptions struct {
	mode     WriteMode
	version  *VersionName
	location string
	metadata map[string]any
	format   artifact.Format
}

// WithVersion targets an explicit version, e.g. "v3" or "3".
func WithVersion(version string) Option {
	return func(o *opOptions) error {
		n, err := ParseVersionName(version)
		if err != nil {
			return err
		}
		o.version = &n
		return nil
	}
}

// WithVersionName targets an explicit version by its numeric name.
func WithVersionName(version VersionName) Option {
	return func(o *opOptions) error {
		o.version = &version
		return nil
	}
}

// WithWriteMode overrides the default ErrorIfExists mode for one write.
func WithWriteMode(mode WriteMode) Option {
	return func(o *opOptions) error {
		o.mode = mode
		return nil
	}
}

// WithLocation overrides the Activity's default location for one call.
func WithLocation(location string) Option {
	return func(o *opOptions) error {
		o.location = location
		return nil
	}
}

// WithMetadata attaches caller metadata, stored in the manifest's user
// section.
func WithMetadata(values map[string]any) Option {
	return func(o *opOptions) error {
		o.metadata = values
		return nil
	}
}

// WithFormat forces a specific artifact format instead of resolving by
// data type.
func WithFormat(f artifact.Format) Option {
	return func(o *opOptions) error {
		o.format = f
		return nil
	}
}

func (a *Activity) applyOptions(opts []Option) (opOptions, error) {
	o := opOptions{mode: ErrorIfExists, location: a.location}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return opOptions{}, err
		}
	}
	return o, nil
}

func (a *Activity) artifactAt(location, name string) *versionedArtifact {
	return &versionedArtifact{
		store:    a.store,
		location: location,
		name:     name,
		registry: a.registry,
		logger:   a.logger,
	}
}

// Write stores data as a new version of the named artifact and returns
// the written version. Under WriteOnChange, unchanged content returns the
// existing latest version without writing anything.
func (a *Activity) Write(ctx context.Context, name string, data any, opts ...Option) (*Version, error) {
	o, err := a.applyOptions(opts)
	if err != nil {
		return nil, err
	}

	manifest := metadata.NewManifest()
	manifest.AddSection(a.lineage())
	manifest.AddSection(metadata.DictSource{Name: metadata.SectionUser, Values: o.metadata})

	v, wrote, err := a.artifactAt(o.location, name).write(ctx, data, manifest, writeRequest{
		mode:     o.mode,
		explicit: o.version,
		format:   o.format,
	})
	if err != nil {
		return nil, err
	}
	if wrote {
		a.mu.Lock()
		a.writeHistory[v.URI.String()] = struct{}{}
		a.mu.Unlock()
	}
	return v, nil
}

// Read loads the latest version of the named artifact, or an explicit one
// with WithVersion. The version's URI is added to the read history.
func (a *Activity) Read(ctx context.Context, name string, opts ...Option) (*Version, error) {
	o, err := a.applyOptions(opts)
	if err != nil {
		return nil, err
	}
	v, err := a.artifactAt(o.location, name).read(ctx, o.version)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.readHistory[v.URI.String()] = struct{}{}
	a.mu.Unlock()
	return v, nil
}

// ReadVersion loads one explicit version, e.g. "v3".
func (a *Activity) ReadVersion(ctx context.Context, name, version string, opts ...Option) (*Version, error) {
	return a.Read(ctx, name, append(opts, WithVersion(version))...)
}

// ReadManifest loads only the manifest of a version, without the payload
// and without touching the read history.
func (a *Activity) ReadManifest(ctx context.Context, name string, opts ...Option) (*metadata.Manifest, error) {
	o, err := a.applyOptions(opts)
	if err != nil {
		return nil, err
	}
	art := a.artifactAt(o.location, name)
	if o.version != nil {
		return art.readManifest(ctx, *o.version)
	}
	latest, err := art.latest(ctx)
	if err != nil {
		return nil, err
	}
	return art.readManifest(ctx, latest)
}

// Versions lists the existing version names of an artifact in ascending
// order, e.g. ["v1", "v2", "v10"].
func (a *Activity) Versions(ctx context.Context, name string, opts ...Option) ([]string, error) {
	o, err := a.applyOptions(opts)
	if err != nil {
		return nil, err
	}
	names, err := a.artifactAt(o.location, name).versionNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out, nil
}

// ReadHistory returns the sorted URIs of every version read so far.
func (a *Activity) ReadHistory() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.readHistory)
}

// WriteHistory returns the sorted URIs of every version written so far.
func (a *Activity) WriteHistory() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.writeHistory)
}

// SessionID is the unique id of this Activity, recorded in lineage.
func (a *Activity) SessionID() string { return a.session }

// lineage snapshots the read history into a lineage record for a write
// happening now.
func (a *Activity) lineage() metadata.Source {
	commit := ""
	if c, err := a.commit(); err == nil {
		commit = c
	}
	return sessionLineage{
		Lineage: metadata.Lineage{
			Source:    a.source,
			Author:    a.author,
			Timestamp: time.Now(),
			Commit:    commit,
			Inputs:    a.ReadHistory(),
		},
		session: a.session,
	}
}

// sessionLineage extends the lineage section with the Activity session id.
type sessionLineage struct {
	metadata.Lineage
	session string
}

func (l sessionLineage) Collect() map[string]any {
	section := l.Lineage.Collect()
	section["session_id"] = l.session
	return section
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
