package lsp

import (
	"sort"

	"github.com/bethropolis/ebb/internal/logger"
	"github.com/bethropolis/ebb/internal/types"
	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"
)

// Record is an outstanding request.
type Record struct {
	ID          jsonrpc2.ID
	Kind        Kind
	URI         DocumentURI
	Version     uint64 // document version when the request was sent
	Server      string
	Incarnation uuid.UUID

	// Position and Range are the character positions the request was about.
	Position types.Position
	Range    types.Range
	NewName  string
}

// Resolved is a response matched to its record.
type Resolved struct {
	Record
	// Stale is set when the document changed after the request was sent.
	Stale  bool
	Result Result
	Err    error // *RPCError for error responses
}

// VersionSource reports the current version of an open document.
type VersionSource interface {
	DocumentVersion(uri DocumentURI) (uint64, bool)
}

type recordKey struct {
	incarnation uuid.UUID
	id          jsonrpc2.ID
}

// Registry correlates responses with outstanding requests. Resolution fails
// closed: anything it cannot match is dropped. It is owned by the main loop.
type Registry struct {
	records  map[recordKey]Record
	versions VersionSource
}

// NewRegistry creates an empty registry.
func NewRegistry(versions VersionSource) *Registry {
	return &Registry{records: make(map[recordKey]Record), versions: versions}
}

// Register adds an outstanding request.
func (r *Registry) Register(rec Record) {
	r.records[recordKey{rec.Incarnation, rec.ID}] = rec
}

// Len returns the number of outstanding requests.
func (r *Registry) Len() int { return len(r.records) }

// Pending reports whether a request is outstanding.
func (r *Registry) Pending(incarnation uuid.UUID, id jsonrpc2.ID) bool {
	_, ok := r.records[recordKey{incarnation, id}]
	return ok
}

// Resolve matches a response message. Unknown, duplicate, already resolved
// and foreign-incarnation responses return false, as do payloads that do
// not fit the request's schema.
func (r *Registry) Resolve(msg Message) (Resolved, bool) {
	if msg.Kind != MessageResponse {
		return Resolved{}, false
	}
	key := recordKey{msg.Incarnation, msg.ID}
	rec, ok := r.records[key]
	if !ok {
		logger.DebugTagf("lsp", "Registry: dropped response %s from %s: no matching request", msg.ID, msg.Server)
		return Resolved{}, false
	}
	delete(r.records, key)

	res := Resolved{Record: rec}
	if rec.Kind.documentScoped() {
		current, open := r.versions.DocumentVersion(rec.URI)
		res.Stale = !open || current != rec.Version
	}
	if msg.Error != nil {
		res.Err = newRPCError(msg.Error)
		return res, true
	}
	result, err := decodeResult(rec.Kind, msg.Result)
	if err != nil {
		logger.Warnf("Registry: %s result from %s does not match its schema, dropped: %v", rec.Kind, rec.Server, err)
		return Resolved{}, false
	}
	res.Result = result
	return res, true
}

// PurgeServer drops every record of a server incarnation and returns them.
func (r *Registry) PurgeServer(incarnation uuid.UUID) []Record {
	var purged []Record
	for key, rec := range r.records {
		if key.incarnation == incarnation {
			purged = append(purged, rec)
			delete(r.records, key)
		}
	}
	sortRecords(purged)
	return purged
}

// Supersede drops older requests of the same kind for the same document and
// returns them so the caller can send a best-effort cancellation.
func (r *Registry) Supersede(uri DocumentURI, kind Kind) []Record {
	var old []Record
	for key, rec := range r.records {
		if rec.URI == uri && rec.Kind == kind {
			old = append(old, rec)
			delete(r.records, key)
		}
	}
	sortRecords(old)
	return old
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID.Num < recs[j].ID.Num })
}
