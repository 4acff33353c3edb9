package vectorstore

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	indicesDir  = "indices"
	metadataDir = "metadata"

	indexExt    = ".index"
	metadataExt = ".json"

	jobSeparator = "_job_"
	jobPrefix    = "_job"
)

// Kind selects the document collection of a (tenant, job) pair. The values are
// the type tags written into metadata; lower-cased they are part of file names.
type Kind string

const (
	// KindQuery holds the single job description vector.
	KindQuery Kind = "JD"
	// KindCandidate holds résumé chunk vectors, append-only.
	KindCandidate Kind = "CV"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindQuery || k == KindCandidate
}

// Name is the human readable kind used in logs.
func (k Kind) Name() string {
	switch k {
	case KindQuery:
		return "query"
	case KindCandidate:
		return "candidate"
	default:
		return strings.ToLower(string(k))
	}
}

// Key identifies one index/metadata pair.
type Key struct {
	TenantID string
	JobID    string
	Kind     Kind
}

// QueryKey returns the QUERY key of a tenant and job.
func QueryKey(tenantID, jobID string) Key {
	return Key{TenantID: tenantID, JobID: jobID, Kind: KindQuery}
}

// CandidateKey returns the CANDIDATE key of a tenant and job.
func CandidateKey(tenantID, jobID string) Key {
	return Key{TenantID: tenantID, JobID: jobID, Kind: KindCandidate}
}

// Validate rejects keys that cannot be mapped to a file name safely.
func (k Key) Validate() error {
	if !k.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, k.Kind)
	}
	if err := validateID("tenant id", k.TenantID); err != nil {
		return err
	}
	// "a_job" + "job_x" and "a" + "job_job_x" would share a file name.
	if strings.HasSuffix(k.TenantID, jobPrefix) {
		return fmt.Errorf("%w: tenant id %q ends with %q", ErrInvalidKey, k.TenantID, jobPrefix)
	}
	return validateID("job id", k.JobID)
}

// String returns the base file name shared by the index and metadata files.
func (k Key) String() string {
	return "company_" + k.TenantID + jobSeparator + k.JobID + "_" + strings.ToLower(string(k.Kind))
}

// Location is where a key lives on storage.
type Location struct {
	IndexPath    string
	MetadataPath string
}

func resolve(root string, key Key) (Location, error) {
	if err := key.Validate(); err != nil {
		return Location{}, err
	}

	base := key.String()
	return Location{
		IndexPath:    filepath.Join(root, indicesDir, base+indexExt),
		MetadataPath: filepath.Join(root, metadataDir, base+metadataExt),
	}, nil
}

func validateID(name, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidKey, name)
	}
	if trimmed != id {
		return fmt.Errorf("%w: %s %q has surrounding whitespace", ErrInvalidKey, name, id)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %s %q contains path elements", ErrInvalidKey, name, id)
	}
	if strings.Contains(id, jobSeparator) {
		return fmt.Errorf("%w: %s %q contains %q", ErrInvalidKey, name, id, jobSeparator)
	}
	return nil
}
